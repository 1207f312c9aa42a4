// Package chain maintains the fork-aware block tree: an append-only
// structure rooted at a genesis block, retaining only blocks within a
// bounded depth of the tallest leaf, with one unspent-output snapshot
// materialized per retained block.
package chain

import (
	"sort"

	"github.com/helinwang/log15"

	"github.com/ledgercore/utxochain/pkg/block"
	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/txn"
	"github.com/ledgercore/utxochain/pkg/utxo"
)

// CutOffAge is the fixed depth beyond which nodes are pruned relative
// to the tallest leaf.
const CutOffAge = 10

func newLog() log15.Logger {
	return log15.New("module", "chain")
}

// Node is one admitted block together with the UOP snapshot that
// results from applying it, and its height (genesis is at height 1).
type Node struct {
	Block  *block.Block
	UOP    *utxo.Pool
	Height uint64
}

// Leaf is a branch tip: a hash into nodes, its height (kept
// denormalized so leaves sort without a node lookup), and the
// monotonic stamp of its most recent update.
type Leaf struct {
	TipHash     chainhash.Hash
	TipHeight   uint64
	LastUpdated uint64
}

// less orders leaves by height descending, breaking ties by
// lastUpdated descending: the most-recently-touched branch wins a
// height tie.
func (l Leaf) less(o Leaf) bool {
	if l.TipHeight != o.TipHeight {
		return l.TipHeight > o.TipHeight
	}
	return l.LastUpdated > o.LastUpdated
}

// Tree is the fork-aware block tree. It has no internal locking:
// callers must serialize addBlock and the tip queries, the same way
// the rest of the core expects a single external owner.
type Tree struct {
	nodes  map[chainhash.Hash]*Node
	leaves []Leaf
	clock  uint64
	verify utxo.VerifyFunc
	log    log15.Logger
}

// New creates a Tree rooted at genesis. genesisUOP is the UOP that
// results from genesis's own coinbase (the caller constructs it, since
// genesis has no parent to inherit from).
func New(genesis *block.Block, genesisUOP *utxo.Pool, verify utxo.VerifyFunc) *Tree {
	t := &Tree{
		nodes:  make(map[chainhash.Hash]*Node),
		verify: verify,
		log:    newLog(),
	}

	hash := genesis.Hash()
	t.nodes[hash] = &Node{Block: genesis, UOP: genesisUOP, Height: 1}
	t.clock++
	t.leaves = []Leaf{{TipHash: hash, TipHeight: 1, LastUpdated: t.clock}}
	return t
}

func (t *Tree) sortLeaves() {
	sort.Slice(t.leaves, func(i, j int) bool { return t.leaves[i].less(t.leaves[j]) })
}

// MaxHeightBlock returns the block at the tip of the highest-ranked
// leaf.
func (t *Tree) MaxHeightBlock() *block.Block {
	leaf := t.leaves[0]
	return t.nodes[leaf.TipHash].Block
}

// MaxHeightUOP returns a copy of the UOP snapshot owned by the
// highest-ranked leaf's node.
func (t *Tree) MaxHeightUOP() *utxo.Pool {
	leaf := t.leaves[0]
	return t.nodes[leaf.TipHash].UOP.Clone()
}

// maxHeight returns the height of the tallest leaf.
func (t *Tree) maxHeight() uint64 {
	return t.leaves[0].TipHeight
}

// TipHeight returns the height of the current canonical tip.
func (t *Tree) TipHeight() uint64 {
	return t.maxHeight()
}

// AddBlock attempts to admit block onto the tree, running its
// transaction list through a fresh Handler seeded from the parent's
// UOP. It returns true iff the block was admitted; no state is
// mutated on rejection.
func (t *Tree) AddBlock(b *block.Block) bool {
	if b.IsGenesis() {
		t.log.Debug("rejected block: second genesis")
		return false
	}

	parent, ok := t.nodes[b.PrevHash]
	if !ok {
		// Also covers blocks whose parent has already been pruned
		// below the cut-off: an absent parent is indistinguishable
		// from a too-old one, and both are correctly rejected.
		t.log.Debug("rejected block: parent not found", "prevHash", b.PrevHash)
		return false
	}

	pool := parent.UOP.Clone()
	handler := utxo.NewHandler(pool, t.verify)

	accepted := handler.HandleTxs(toPtrs(b.Transactions))
	if len(accepted) != len(b.Transactions) {
		t.log.Debug("rejected block: not every transaction was acceptable",
			"accepted", len(accepted), "total", len(b.Transactions))
		return false
	}

	pool.Add(b.CoinbaseUOR(), b.Coinbase.Outputs[0])

	height := parent.Height + 1
	hash := b.Hash()
	t.nodes[hash] = &Node{Block: b, UOP: pool, Height: height}

	t.clock++
	updated := false
	for i := range t.leaves {
		if t.leaves[i].TipHash == b.PrevHash {
			t.leaves[i] = Leaf{TipHash: hash, TipHeight: height, LastUpdated: t.clock}
			updated = true
			break
		}
	}
	if !updated {
		t.leaves = append(t.leaves, Leaf{TipHash: hash, TipHeight: height, LastUpdated: t.clock})
	}
	t.sortLeaves()

	t.prune()
	return true
}

// prune drops every node whose height falls strictly below the
// cut-off relative to the new tallest leaf, then drops any leaf whose
// tip no longer exists. A node at exactly height == floor is still a
// valid parent for the next admissible extension and must survive.
func (t *Tree) prune() {
	max := t.maxHeight()
	if max <= CutOffAge {
		return
	}
	floor := max - CutOffAge

	for hash, node := range t.nodes {
		if node.Height < floor {
			delete(t.nodes, hash)
		}
	}

	live := t.leaves[:0]
	for _, leaf := range t.leaves {
		if _, ok := t.nodes[leaf.TipHash]; ok {
			live = append(live, leaf)
		}
	}
	t.leaves = live
}

// toPtrs adapts a block's owned transaction slice to the pointer slice
// the handler operates on.
func toPtrs(txs []txn.Transaction) []*txn.Transaction {
	ptrs := make([]*txn.Transaction, len(txs))
	for i := range txs {
		ptrs[i] = &txs[i]
	}
	return ptrs
}
