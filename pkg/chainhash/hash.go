// Package chainhash defines the content-hash and address types shared
// across the ledger core.
package chainhash

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	// HashSize is the number of bytes in a Hash.
	HashSize = 32

	// AddrSize is the number of bytes in an Addr.
	AddrSize = 20
)

// Hash is the content hash of a transaction or block.
type Hash [HashSize]byte

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash, used to mark "no parent"
// on the genesis block.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Addr is the address of a transaction output's payee.
type Addr [AddrSize]byte

// String returns the hex encoding of the address.
func (a Addr) String() string {
	return hex.EncodeToString(a[:])
}

func (a Addr) GoString() string {
	return fmt.Sprintf("Addr(%s)", a.String())
}

// Sum256 hashes the concatenation of the given byte slices with SHA3-256.
func Sum256(b ...[]byte) Hash {
	d := sha3.New256()
	for _, e := range b {
		if _, err := d.Write(e); err != nil {
			// hash.Hash.Write never returns an error.
			panic(err)
		}
	}

	var h Hash
	copy(h[:], d.Sum(nil))
	return h
}

// Addr derives an address from a hash by taking its low AddrSize bytes,
// mirroring how a public key's address is derived from its hash.
func (h Hash) Addr() Addr {
	var a Addr
	copy(a[:], h[HashSize-AddrSize:])
	return a
}
