package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	pk, sk, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("hello ledger")
	sig, err := sk.Sign(msg)
	require.NoError(t, err)

	assert.True(t, Verify(pk, msg, sig))
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	pk, sk, err := GenerateKeyPair()
	require.NoError(t, err)

	sig, err := sk.Sign([]byte("hello ledger"))
	require.NoError(t, err)

	assert.False(t, Verify(pk, []byte("goodbye ledger"), sig))
}

func TestVerifyNilKeyIsFalse(t *testing.T) {
	assert.False(t, Verify(nil, []byte("msg"), []byte("sig")))
}

func TestVerifyCacheAgreesWithVerify(t *testing.T) {
	pk, sk, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("cache me")
	sig, err := sk.Sign(msg)
	require.NoError(t, err)

	cache := NewVerifyCache(8)
	assert.True(t, cache.Verify(pk, msg, sig))
	// second call exercises the cached path.
	assert.True(t, cache.Verify(pk, msg, sig))
	assert.False(t, cache.Verify(nil, msg, sig))
}
