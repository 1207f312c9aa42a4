package rpcquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgercore/utxochain/pkg/block"
	"github.com/ledgercore/utxochain/pkg/chain"
	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/crypto"
	"github.com/ledgercore/utxochain/pkg/mempool"
	"github.com/ledgercore/utxochain/pkg/txn"
	"github.com/ledgercore/utxochain/pkg/utxo"
)

func TestServerAnswersTipAndUTXO(t *testing.T) {
	pk, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	coinbase := txn.Transaction{Outputs: []txn.Output{{Value: 42, Payee: pk}}}
	genesis, err := block.New(chainhash.Hash{}, coinbase, nil)
	require.NoError(t, err)

	pool := utxo.NewPool()
	pool.Add(genesis.CoinbaseUOR(), genesis.Coinbase.Outputs[0])
	tree := chain.New(genesis, pool, crypto.Verify)

	pending := mempool.New()
	s := NewServer(tree, pending)

	var tip TipInfo
	require.NoError(t, s.Tip(0, &tip))
	assert.Equal(t, genesis.Hash(), tip.Hash)
	assert.Equal(t, uint64(1), tip.Height)

	var reply UTXOReply
	require.NoError(t, s.UTXO(UTXOQuery{UOR: genesis.CoinbaseUOR()}, &reply))
	assert.True(t, reply.Found)
	assert.Equal(t, uint64(42), reply.Output.Value)

	var size int
	require.NoError(t, s.MempoolSize(0, &size))
	assert.Equal(t, 0, size)
}
