package utxo

import (
	"bytes"
	"sort"

	"github.com/helinwang/log15"

	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/crypto"
	"github.com/ledgercore/utxochain/pkg/txn"
)

// VerifyFunc checks a signature over a message under a public key. Both
// crypto.Verify and (*crypto.VerifyCache).Verify satisfy this shape.
type VerifyFunc func(pk crypto.PK, msg []byte, sig crypto.Sig) bool

// Handler owns the live unspent-output pool for one branch and turns
// unordered batches of candidate transactions into the largest
// mutually-consistent, double-spend-free subset. It has no internal
// synchronization: callers above it must serialize their calls, the
// same way a single miner or block validator drives one branch at a
// time.
type Handler struct {
	pool   *Pool
	verify VerifyFunc
	log    log15.Logger
}

// NewHandler creates a Handler backed by pool, using verify to check
// signatures. pool is taken by reference and mutated by HandleTxs.
func NewHandler(pool *Pool, verify VerifyFunc) *Handler {
	return &Handler{
		pool:   pool,
		verify: verify,
		log:    log15.New("module", "utxo"),
	}
}

// Pool returns the handler's live pool.
func (h *Handler) Pool() *Pool {
	return h.pool
}

// IsValidTx reports whether tx is well-formed and fully spendable
// against the handler's current pool, in isolation from any other
// candidate transaction. It checks, in order: no UOR is claimed twice
// within tx, every claimed UOR is spendable, every input's signature
// verifies against the payee of the output it claims, and the sum of
// claimed input values is at least the sum of declared output values.
func (h *Handler) IsValidTx(tx *txn.Transaction) bool {
	return isValidTxAgainst(tx, h.pool, h.verify)
}

func isValidTxAgainst(tx *txn.Transaction, pool *Pool, verify VerifyFunc) bool {
	seen := make(map[txn.UOR]bool, len(tx.Inputs))
	var inputTotal uint64

	for i, in := range tx.Inputs {
		uor := in.UOR()
		if seen[uor] {
			return false
		}
		seen[uor] = true

		out, ok := pool.Get(uor)
		var payee crypto.PK
		if ok {
			payee = out.Payee
		}
		// verify(nil, ...) is always false: an absent UOR can never
		// authorize a spend, matching the Crypto collaborator's
		// contract for a missing public key.
		if !verify(payee, tx.RawDataToSign(i), in.Sig) {
			return false
		}

		sum := inputTotal + out.Value
		if sum < inputTotal {
			// overflow: no real ledger balance reaches here, but a
			// wraparound must never be mistaken for solvency.
			return false
		}
		inputTotal = sum
	}

	var outputTotal uint64
	for _, out := range tx.Outputs {
		sum := outputTotal + out.Value
		if sum < outputTotal {
			return false
		}
		outputTotal = sum
	}

	return inputTotal >= outputTotal
}

// ConservesValue reports whether tx's declared outputs spend no more
// than its claimed inputs are worth against pool. It is IsValidTx's
// balance check exposed standalone, for callers (such as tests) that
// only need the value law and already know the signatures and UOR
// shape are fine. It returns false if any claimed UOR is absent.
func ConservesValue(tx *txn.Transaction, pool *Pool) bool {
	var inputTotal, outputTotal uint64
	for _, in := range tx.Inputs {
		out, ok := pool.Get(in.UOR())
		if !ok {
			return false
		}
		inputTotal += out.Value
	}
	for _, out := range tx.Outputs {
		outputTotal += out.Value
	}
	return inputTotal >= outputTotal
}

// record tracks one candidate transaction through the admission
// pipeline: its hash, the transaction itself, and the set of other
// candidates (by hash) that spend one of its own outputs. dependents
// lets a rejection propagate forward without rescanning the batch.
type record struct {
	tx         *txn.Transaction
	dependents map[chainhash.Hash]bool
}

// HandleTxs runs the three-phase batch-acceptance algorithm over
// candidates and returns the accepted subset, in their original
// relative order. The handler's pool is left holding exactly the
// outputs introduced or left standing by the accepted subset; rejected
// candidates leave no trace.
func (h *Handler) HandleTxs(candidates []*txn.Transaction) []*txn.Transaction {
	if len(candidates) == 0 {
		return nil
	}

	// Phase 0: index every candidate by hash and, for each input,
	// record the dependency edge from the transaction that would
	// create the claimed output to the transaction claiming it.
	records := make(map[chainhash.Hash]*record, len(candidates))
	order := make([]chainhash.Hash, 0, len(candidates))
	for _, tx := range candidates {
		hash := tx.Hash()
		if _, dup := records[hash]; dup {
			// identical resubmission within one batch: keep the
			// first, the duplicate contributes nothing new.
			continue
		}
		records[hash] = &record{tx: tx, dependents: make(map[chainhash.Hash]bool)}
		order = append(order, hash)
	}

	byOutput := make(map[txn.UOR]chainhash.Hash, len(records))
	for hash, rec := range records {
		for i := range rec.tx.Outputs {
			byOutput[txn.UOR{TxHash: hash, Index: uint32(i)}] = hash
		}
	}
	for hash, rec := range records {
		for _, in := range rec.tx.Inputs {
			if producer, ok := byOutput[in.UOR()]; ok {
				records[producer].dependents[hash] = true
			}
		}
	}

	alive := make(map[chainhash.Hash]bool, len(records))
	for hash := range records {
		alive[hash] = true
	}

	// Phase 1: self-inconsistency removal. A candidate is checked
	// against a hypothetical pool: the live pool plus every output any
	// candidate would introduce (built once, before any rejection), so
	// that intra-batch chains
	// of dependent spends validate even though none of them exist in
	// the live pool yet. Anything that fails is removed along with
	// everything transitively depending on it.
	hypothetical := h.pool.Clone()
	for hash, rec := range records {
		for i, out := range rec.tx.Outputs {
			hypothetical.Add(txn.UOR{TxHash: hash, Index: uint32(i)}, out)
		}
	}

	var reject func(hash chainhash.Hash)
	reject = func(hash chainhash.Hash) {
		if !alive[hash] {
			return
		}
		alive[hash] = false
		for dep := range records[hash].dependents {
			reject(dep)
		}
	}

	for _, hash := range order {
		if !alive[hash] {
			continue
		}
		if !isValidTxAgainst(records[hash].tx, hypothetical, h.verify) {
			reject(hash)
		}
	}

	// Phase 2: double-spend resolution. Recompute the spender map from
	// the currently-surviving candidates on every iteration, since
	// phase-1-style rejections keep changing it. Each iteration picks
	// exactly one contested UOR, collapses away any surviving spender
	// that is itself a dependent of another spender in the same
	// conflict (dropping a transaction that only exists to build on a
	// spend that is about to be arbitrated away is not a real
	// tiebreak), then breaks any remaining tie by deterministically
	// dropping members until one spender is left. This is the single
	// re-sync point per conflict group: once a UOR's group is resolved
	// to one spender it is never revisited.
	for {
		spenders := make(map[txn.UOR][]chainhash.Hash)
		for _, hash := range order {
			if !alive[hash] {
				continue
			}
			for _, in := range records[hash].tx.Inputs {
				uor := in.UOR()
				spenders[uor] = append(spenders[uor], hash)
			}
		}

		var contested txn.UOR
		found := false
		for uor, spenderHashes := range spenders {
			if len(spenderHashes) > 1 {
				if !found || less(uor, contested) {
					contested = uor
					found = true
				}
			}
		}
		if !found {
			break
		}

		group := spenders[contested]
		groupSet := make(map[chainhash.Hash]bool, len(group))
		for _, hash := range group {
			groupSet[hash] = true
		}

		// Dependency-collapse to a fixpoint: drop any group member
		// that transitively depends on another surviving group
		// member, since keeping both would require the very spend
		// this pass is arbitrating to be double-committed.
		for {
			changed := false
			for _, hash := range group {
				if !alive[hash] || !groupSet[hash] {
					continue
				}
				if dependsOnAnother(hash, groupSet, alive, records) {
					reject(hash)
					changed = true
				}
			}
			if !changed {
				break
			}
		}

		remaining := make([]chainhash.Hash, 0, len(group))
		for _, hash := range group {
			if alive[hash] {
				remaining = append(remaining, hash)
			}
		}
		sort.Slice(remaining, func(i, j int) bool {
			return bytes.Compare(remaining[i][:], remaining[j][:]) < 0
		})
		for _, hash := range remaining[1:] {
			reject(hash)
		}
	}

	// Phase 3: commit. Insert every accepted transaction's outputs
	// first, then remove every accepted transaction's claimed inputs,
	// so that an intra-batch spend chain lands in the pool correctly
	// regardless of insertion order.
	accepted := make([]*txn.Transaction, 0, len(order))
	for _, hash := range order {
		if alive[hash] {
			accepted = append(accepted, records[hash].tx)
		}
	}

	for _, tx := range accepted {
		hash := tx.Hash()
		for i, out := range tx.Outputs {
			h.pool.Add(txn.UOR{TxHash: hash, Index: uint32(i)}, out)
		}
	}
	for _, tx := range accepted {
		for _, in := range tx.Inputs {
			h.pool.Remove(in.UOR())
		}
	}

	if rejected := len(candidates) - len(accepted); rejected > 0 {
		h.log.Debug("rejected candidate transactions", "rejected", rejected, "accepted", len(accepted))
	}

	return accepted
}

// dependsOnAnother reports whether hash transitively depends (via its
// inputs claiming an output some ancestor introduces) on some other
// live member of group.
func dependsOnAnother(hash chainhash.Hash, group map[chainhash.Hash]bool, alive map[chainhash.Hash]bool, records map[chainhash.Hash]*record) bool {
	visited := make(map[chainhash.Hash]bool)
	var walk func(chainhash.Hash) bool
	walk = func(h chainhash.Hash) bool {
		if visited[h] {
			return false
		}
		visited[h] = true
		for _, in := range records[h].tx.Inputs {
			producer := in.TxHash
			if _, ok := records[producer]; !ok || !alive[producer] {
				continue
			}
			if producer != hash && group[producer] {
				return true
			}
			if walk(producer) {
				return true
			}
		}
		return false
	}
	return walk(hash)
}

func less(a, b txn.UOR) bool {
	if c := bytes.Compare(a.TxHash[:], b.TxHash[:]); c != 0 {
		return c < 0
	}
	return a.Index < b.Index
}
