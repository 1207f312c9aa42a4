// Package txn defines the transaction data model: unspent-output
// references, outputs, inputs, and the transaction envelope that binds
// them together, plus the canonical RLP encoding used both for content
// hashing and for the per-input signing payload.
package txn

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/crypto"
)

// UOR is an Unspent Output Reference: the pair identifying one output
// of one transaction. Equality is structural, so a UOR is usable
// directly as a map key.
type UOR struct {
	TxHash chainhash.Hash
	Index  uint32
}

// Output is one transaction output: an amount (expressed in the
// ledger's smallest indivisible unit, matching how the retrieval
// pack's UTXO-style ledgers avoid floating point for money) and the
// public key that may spend it. The specification's "payeeAddress" is
// the payee's public key itself, not a hash of it: signature
// verification needs the actual key, not a digest.
type Output struct {
	Value uint64
	Payee crypto.PK
}

// Input claims the UOR named by (TxHash, Index) and carries the
// signature authorizing the claim.
type Input struct {
	TxHash chainhash.Hash
	Index  uint32
	Sig    crypto.Sig
}

// Transaction is an ordered list of inputs and outputs.
type Transaction struct {
	Inputs  []Input
	Outputs []Output

	hash      chainhash.Hash
	hashValid bool
}

// rlpInput/rlpOutput mirror Input/Output but drop the Sig field (or
// zero it), so that Hash and RawDataToSign encode a canonical payload
// that never includes signature bytes that themselves depend on the
// canonical payload.
type rlpInput struct {
	TxHash chainhash.Hash
	Index  uint32
}

type rlpOutput struct {
	Value uint64
	Payee crypto.PK
}

type rlpTx struct {
	Inputs  []rlpInput
	Outputs []rlpOutput
}

type rlpSigningPayload struct {
	Inputs    []rlpInput
	Outputs   []rlpOutput
	SignIndex uint32
}

func toRLPInputs(inputs []Input) []rlpInput {
	r := make([]rlpInput, len(inputs))
	for i, in := range inputs {
		r[i] = rlpInput{TxHash: in.TxHash, Index: in.Index}
	}
	return r
}

func toRLPOutputs(outputs []Output) []rlpOutput {
	r := make([]rlpOutput, len(outputs))
	for i, out := range outputs {
		r[i] = rlpOutput{Value: out.Value, Payee: out.Payee}
	}
	return r
}

// Hash returns the transaction's content hash: a function of its
// inputs sans-signatures and its outputs. It never depends on any
// input's signature, since a signature is itself computed over a
// payload that must not depend on the hash it helps produce.
func (t *Transaction) Hash() chainhash.Hash {
	if t.hashValid {
		return t.hash
	}

	b, err := rlp.EncodeToBytes(rlpTx{
		Inputs:  toRLPInputs(t.Inputs),
		Outputs: toRLPOutputs(t.Outputs),
	})
	if err != nil {
		// rlpTx contains no unsupported types; this cannot fail.
		panic(err)
	}

	t.hash = chainhash.Sum256(b)
	t.hashValid = true
	return t.hash
}

// RawDataToSign returns the canonical serialization that input i's
// signature must cover: every input's signature is omitted, and the
// signing input's position is committed to explicitly so a signature
// produced for one input cannot be replayed against another.
func (t *Transaction) RawDataToSign(i int) []byte {
	b, err := rlp.EncodeToBytes(rlpSigningPayload{
		Inputs:    toRLPInputs(t.Inputs),
		Outputs:   toRLPOutputs(t.Outputs),
		SignIndex: uint32(i),
	})
	if err != nil {
		panic(err)
	}
	return b
}

// UOR returns the UOR that input i claims.
func (in Input) UOR() UOR {
	return UOR{TxHash: in.TxHash, Index: in.Index}
}
