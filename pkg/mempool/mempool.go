// Package mempool is a thin holding area for transactions that have
// not yet been included in an admitted block. It performs no
// validation of its own; that is the Handler's job once transactions
// reach a block.
package mempool

import (
	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/txn"
)

// Pool maps transaction hash to the transaction itself.
type Pool struct {
	txns map[chainhash.Hash]*txn.Transaction
}

// New returns an empty mempool.
func New() *Pool {
	return &Pool{txns: make(map[chainhash.Hash]*txn.Transaction)}
}

// Add inserts tx, keyed by its content hash. Adding an already-present
// transaction is a no-op.
func (p *Pool) Add(tx *txn.Transaction) {
	p.txns[tx.Hash()] = tx
}

// Remove drops the transaction with the given hash, if present.
func (p *Pool) Remove(hash chainhash.Hash) {
	delete(p.txns, hash)
}

// Get returns the transaction with the given hash, if present.
func (p *Pool) Get(hash chainhash.Hash) (*txn.Transaction, bool) {
	tx, ok := p.txns[hash]
	return tx, ok
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	return len(p.txns)
}

// All returns every pending transaction, in unspecified order.
func (p *Pool) All() []*txn.Transaction {
	all := make([]*txn.Transaction, 0, len(p.txns))
	for _, tx := range p.txns {
		all = append(all, tx)
	}
	return all
}

// RemoveIncluded removes every transaction in txs from the pool. Call
// this after a block containing txs is admitted onto the tree.
func (p *Pool) RemoveIncluded(txs []txn.Transaction) {
	for i := range txs {
		p.Remove(txs[i].Hash())
	}
}
