// Package block defines the Block data model: a chain of blocks rooted
// at a parentless genesis, each carrying exactly one coinbase
// transaction plus an ordered list of regular transactions.
package block

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/txn"
)

// ErrMalformedCoinbase is returned by New when the coinbase does
// not satisfy "no inputs and exactly one output".
var ErrMalformedCoinbase = errors.New("block: coinbase must have no inputs and exactly one output")

// Block is (prevHash, coinbase, transactions, hash). PrevHash is the
// zero hash for genesis.
type Block struct {
	PrevHash     chainhash.Hash
	Coinbase     txn.Transaction
	Transactions []txn.Transaction

	hash      chainhash.Hash
	hashValid bool
}

// IsGenesis reports whether this block has no parent.
func (b *Block) IsGenesis() bool {
	return b.PrevHash.IsZero()
}

// New builds a Block, validating the coinbase shape described in the
// data model: no inputs, exactly one output.
func New(prevHash chainhash.Hash, coinbase txn.Transaction, transactions []txn.Transaction) (*Block, error) {
	if len(coinbase.Inputs) != 0 || len(coinbase.Outputs) != 1 {
		return nil, ErrMalformedCoinbase
	}

	return &Block{
		PrevHash:     prevHash,
		Coinbase:     coinbase,
		Transactions: transactions,
	}, nil
}

type rlpBlock struct {
	PrevHash     chainhash.Hash
	CoinbaseHash chainhash.Hash
	TxHashes     []chainhash.Hash
}

// Hash returns the block's content hash: a function of its parent
// hash and the hashes of its coinbase and transactions.
func (b *Block) Hash() chainhash.Hash {
	if b.hashValid {
		return b.hash
	}

	txHashes := make([]chainhash.Hash, len(b.Transactions))
	for i := range b.Transactions {
		txHashes[i] = b.Transactions[i].Hash()
	}

	enc, err := rlp.EncodeToBytes(rlpBlock{
		PrevHash:     b.PrevHash,
		CoinbaseHash: b.Coinbase.Hash(),
		TxHashes:     txHashes,
	})
	if err != nil {
		panic(err)
	}

	b.hash = chainhash.Sum256(enc)
	b.hashValid = true
	return b.hash
}

// CoinbaseUOR returns the UOR of the coinbase's sole output, the only
// output this block introduces that is spendable by descendants.
func (b *Block) CoinbaseUOR() txn.UOR {
	return txn.UOR{TxHash: b.Coinbase.Hash(), Index: 0}
}
