package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgercore/utxochain/pkg/crypto"
	"github.com/ledgercore/utxochain/pkg/txn"
)

func newTx(t *testing.T, value uint64) *txn.Transaction {
	pk, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return &txn.Transaction{Outputs: []txn.Output{{Value: value, Payee: pk}}}
}

// TestRemoveIncluded is scenario F: after RemoveIncluded is given the
// transactions of a block containing only a, the mempool retains b and
// drops a.
func TestRemoveIncluded(t *testing.T) {
	a := newTx(t, 1)
	b := newTx(t, 2)

	p := New()
	p.Add(a)
	p.Add(b)
	require.Equal(t, 2, p.Len())

	p.RemoveIncluded([]txn.Transaction{*a})

	_, aFound := p.Get(a.Hash())
	_, bFound := p.Get(b.Hash())
	assert.False(t, aFound)
	assert.True(t, bFound)
}

func TestAddIsIdempotent(t *testing.T) {
	a := newTx(t, 1)
	p := New()
	p.Add(a)
	p.Add(a)
	assert.Equal(t, 1, p.Len())
}
