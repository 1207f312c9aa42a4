// Package crypto is the ledger's black-box cryptographic collaborator:
// it produces keys and signatures, and answers whether a signature is
// valid over a message under a given public key. Callers above this
// package never inspect the curve or the signature bytes directly.
package crypto

import (
	stdcrypto "crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto/secp256k1"

	"github.com/ledgercore/utxochain/pkg/chainhash"
)

// PK is a public key.
type PK []byte

// SK is a private key.
type SK []byte

// Sig is a signature over a message.
type Sig []byte

// GenerateKeyPair produces a new secp256k1 key pair.
func GenerateKeyPair() (PK, SK, error) {
	key, err := stdcrypto.GenerateKey(secp256k1.S256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	pk := elliptic.Marshal(secp256k1.S256(), key.X, key.Y)
	sk := math.PaddedBigBytes(key.D, 32)
	return PK(pk), SK(sk), nil
}

// Addr derives the payee address associated with a public key.
func (p PK) Addr() chainhash.Addr {
	return chainhash.Sum256(p).Addr()
}

// Sign signs msg with the private key, returning the raw signature.
func (s SK) Sign(msg []byte) (Sig, error) {
	digest := chainhash.Sum256(msg)
	sig, err := secp256k1.Sign(digest[:], s)
	if err != nil {
		return nil, err
	}

	return Sig(sig), nil
}

// Verify is the Crypto collaborator described in the specification: it
// returns false whenever pk is nil (no known payee, e.g. the UOR being
// spent does not exist), and otherwise checks sig against msg under pk.
//
// secp256k1.Sign appends a recovery byte; VerifySignature only wants
// the first 64 bytes (r || s).
func Verify(pk PK, msg []byte, sig Sig) bool {
	if pk == nil {
		return false
	}
	if len(sig) < 64 {
		return false
	}

	digest := chainhash.Sum256(msg)
	return secp256k1.VerifySignature(pk, digest[:], sig[:64])
}
