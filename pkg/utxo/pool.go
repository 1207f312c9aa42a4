// Package utxo implements the unspent-output pool and the epoch
// transaction handler described by the specification: a
// constraint-satisfaction pass that turns an unordered batch of
// candidate transactions into the largest mutually-consistent,
// double-spend-free subset, and atomically applies it.
package utxo

import (
	"github.com/ledgercore/utxochain/pkg/txn"
)

// Pool is the unspent-output pool (UOP): a mapping from UOR to the
// output it names. Every key corresponds to an output that has not
// yet been consumed on the branch this pool represents.
type Pool struct {
	entries map[txn.UOR]txn.Output
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{entries: make(map[txn.UOR]txn.Output)}
}

// Contains reports whether uor names a currently-spendable output.
func (p *Pool) Contains(uor txn.UOR) bool {
	_, ok := p.entries[uor]
	return ok
}

// Get returns the output named by uor, if any.
func (p *Pool) Get(uor txn.UOR) (txn.Output, bool) {
	out, ok := p.entries[uor]
	return out, ok
}

// Add inserts or overwrites the output named by uor.
func (p *Pool) Add(uor txn.UOR, out txn.Output) {
	p.entries[uor] = out
}

// Remove deletes uor from the pool. Removing an absent UOR is a no-op.
func (p *Pool) Remove(uor txn.UOR) {
	delete(p.entries, uor)
}

// Len returns the number of spendable outputs in the pool.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Clone returns an independent copy of the pool: mutating the clone
// never affects the original, matching the specification's
// copy-on-fork ownership model (a Node exclusively owns its snapshot).
func (p *Pool) Clone() *Pool {
	clone := make(map[txn.UOR]txn.Output, len(p.entries))
	for k, v := range p.entries {
		clone[k] = v
	}
	return &Pool{entries: clone}
}

// Each calls fn once per entry in the pool. The order of iteration is
// unspecified.
func (p *Pool) Each(fn func(txn.UOR, txn.Output)) {
	for k, v := range p.entries {
		fn(k, v)
	}
}
