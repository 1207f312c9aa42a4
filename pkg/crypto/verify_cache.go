package crypto

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/ledgercore/utxochain/pkg/chainhash"
)

// VerifyCache memoizes Verify results keyed by the hash of the
// (pubkey, message, signature) triple. Signature verification is the
// one CPU-heavy primitive the core calls synchronously, and the same
// input is re-checked whenever a transaction is validated again by a
// later HandleTxs or AddBlock call, so a small LRU pays for itself
// without changing verification semantics.
type VerifyCache struct {
	cache *lru.Cache
}

// NewVerifyCache creates a cache holding up to size entries.
func NewVerifyCache(size int) *VerifyCache {
	cache, err := lru.New(size)
	if err != nil {
		// only errors on a non-positive size.
		panic(err)
	}
	return &VerifyCache{cache: cache}
}

// Verify behaves like the package-level Verify, consulting and
// populating the cache.
func (c *VerifyCache) Verify(pk PK, msg []byte, sig Sig) bool {
	if pk == nil {
		return false
	}

	key := chainhash.Sum256(pk, msg, sig)
	if v, ok := c.cache.Get(key); ok {
		return v.(bool)
	}

	ok := Verify(pk, msg, sig)
	c.cache.Add(key, ok)
	return ok
}
