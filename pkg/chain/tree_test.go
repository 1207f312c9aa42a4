package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgercore/utxochain/pkg/block"
	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/crypto"
	"github.com/ledgercore/utxochain/pkg/txn"
	"github.com/ledgercore/utxochain/pkg/utxo"
)

type keyPair struct {
	pk crypto.PK
	sk crypto.SK
}

func newKeyPair(t *testing.T) keyPair {
	pk, sk, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return keyPair{pk: pk, sk: sk}
}

func newGenesis(t *testing.T, payee crypto.PK, value uint64) *block.Block {
	coinbase := txn.Transaction{Outputs: []txn.Output{{Value: value, Payee: payee}}}
	genesis, err := block.New(chainhash.Hash{}, coinbase, nil)
	require.NoError(t, err)
	return genesis
}

func newTree(t *testing.T, genesis *block.Block) *Tree {
	pool := utxo.NewPool()
	pool.Add(genesis.CoinbaseUOR(), genesis.Coinbase.Outputs[0])
	return New(genesis, pool, crypto.Verify)
}

func extend(t *testing.T, prev *block.Block, coinbasePayee crypto.PK, txs []txn.Transaction) *block.Block {
	coinbase := txn.Transaction{Outputs: []txn.Output{{Value: 1, Payee: coinbasePayee}}}
	b, err := block.New(prev.Hash(), coinbase, txs)
	require.NoError(t, err)
	return b
}

func spend(t *testing.T, uor txn.UOR, owner keyPair, value uint64, payee crypto.PK) txn.Transaction {
	tx := txn.Transaction{
		Inputs:  []txn.Input{{TxHash: uor.TxHash, Index: uor.Index}},
		Outputs: []txn.Output{{Value: value, Payee: payee}},
	}
	sig, err := owner.sk.Sign(tx.RawDataToSign(0))
	require.NoError(t, err)
	tx.Inputs[0].Sig = sig
	return tx
}

// TestAddBlockSimpleTransfer is scenario A.
func TestAddBlockSimpleTransfer(t *testing.T) {
	k := newKeyPair(t)
	l := newKeyPair(t)
	miner := newKeyPair(t)

	genesis := newGenesis(t, k.pk, 10)
	tree := newTree(t, genesis)

	tx := spend(t, genesis.CoinbaseUOR(), k, 10, l.pk)
	b2 := extend(t, genesis, miner.pk, []txn.Transaction{tx})

	assert.True(t, tree.AddBlock(b2))
	assert.Equal(t, b2.Hash(), tree.MaxHeightBlock().Hash())

	pool := tree.MaxHeightUOP()
	assert.True(t, pool.Contains(txn.UOR{TxHash: tx.Hash(), Index: 0}))
	assert.True(t, pool.Contains(b2.CoinbaseUOR()))
	assert.False(t, pool.Contains(genesis.CoinbaseUOR()))
	assert.Equal(t, 2, pool.Len())
}

func TestAddBlockRejectsUnknownParent(t *testing.T) {
	k := newKeyPair(t)
	genesis := newGenesis(t, k.pk, 10)
	tree := newTree(t, genesis)

	orphanParent := newGenesis(t, k.pk, 5) // distinct hash, never inserted
	b := extend(t, orphanParent, k.pk, nil)
	assert.False(t, tree.AddBlock(b))
}

func TestAddBlockRejectsPartiallyInvalidBatch(t *testing.T) {
	k := newKeyPair(t)
	impostor := newKeyPair(t)
	l := newKeyPair(t)
	miner := newKeyPair(t)

	genesis := newGenesis(t, k.pk, 10)
	tree := newTree(t, genesis)

	good := spend(t, genesis.CoinbaseUOR(), k, 10, l.pk)
	// bad claims an output that does not exist.
	bad := spend(t, txn.UOR{Index: 99}, impostor, 5, l.pk)

	b2 := extend(t, genesis, miner.pk, []txn.Transaction{good, bad})
	assert.False(t, tree.AddBlock(b2))
	assert.Equal(t, genesis.Hash(), tree.MaxHeightBlock().Hash(), "rejection must not mutate state")
}

// TestCutOffBoundary is scenario D: after extending to height 12, a
// sibling of genesis's child can no longer be admitted.
func TestCutOffBoundary(t *testing.T) {
	miner := newKeyPair(t)
	genesis := newGenesis(t, miner.pk, 10)
	tree := newTree(t, genesis)

	prev := genesis
	var firstChild *block.Block
	for i := 0; i < 11; i++ {
		b := extend(t, prev, miner.pk, nil)
		require.True(t, tree.AddBlock(b))
		if i == 0 {
			firstChild = b
		}
		prev = b
	}
	assert.Equal(t, uint64(12), tree.TipHeight())

	// a different coinbase payee makes this a distinct sibling rather
	// than a copy of firstChild.
	sibling := extend(t, genesis, newKeyPair(t).pk, nil)
	require.NotEqual(t, firstChild.Hash(), sibling.Hash())
	assert.False(t, tree.AddBlock(sibling), "genesis's node must have been pruned by now")
	_ = firstChild
}

// TestCutOffBoundaryStillAdmissibleAtFloor works through spec.md §4.2's
// own numeric example: with maxHeight = 11, the lowest admissible new
// block is at height 2, meaning genesis (height 1) must still be a
// valid parent. Only once maxHeight reaches 12 does genesis fall out
// of range (covered by TestCutOffBoundary above).
func TestCutOffBoundaryStillAdmissibleAtFloor(t *testing.T) {
	miner := newKeyPair(t)
	genesis := newGenesis(t, miner.pk, 10)
	tree := newTree(t, genesis)

	prev := genesis
	for i := 0; i < 10; i++ {
		b := extend(t, prev, miner.pk, nil)
		require.True(t, tree.AddBlock(b))
		prev = b
	}
	require.Equal(t, uint64(11), tree.TipHeight())

	// a different coinbase payee makes this a distinct sibling rather
	// than a copy of genesis's existing child.
	sibling := extend(t, genesis, newKeyPair(t).pk, nil)
	assert.True(t, tree.AddBlock(sibling), "genesis must still be a valid parent when maxHeight == 11")
}

// TestForkTipSelection is scenario E: two branches reach the same
// height, the more recently updated one wins the tie.
func TestForkTipSelection(t *testing.T) {
	miner := newKeyPair(t)
	genesis := newGenesis(t, miner.pk, 10)
	tree := newTree(t, genesis)

	prevX := genesis
	for i := 0; i < 4; i++ {
		b := extend(t, prevX, miner.pk, nil)
		require.True(t, tree.AddBlock(b))
		prevX = b
	}

	// branch Y pays a different miner so its blocks differ from X's.
	minerY := newKeyPair(t)
	prevY := genesis
	var yTip *block.Block
	for i := 0; i < 4; i++ {
		b := extend(t, prevY, minerY.pk, nil)
		require.True(t, tree.AddBlock(b))
		prevY = b
		yTip = b
	}

	assert.Equal(t, yTip.Hash(), tree.MaxHeightBlock().Hash())
}
