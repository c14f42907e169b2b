package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/config"
)

func newTestHasher() *Hasher {
	return NewHasher(&config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  8 * 1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
			Pepper:            "test-pepper",
		},
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	h := newTestHasher()

	result, err := h.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Hash)
	assert.NotEmpty(t, result.Salt)
	assert.Equal(t, 1, result.PepperVersion)

	ok, err := h.VerifyPassword("correct-horse", result)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyPassword("wrong-password", result)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	h := newTestHasher()

	first, err := h.HashPassword("correct-horse")
	require.NoError(t, err)
	second, err := h.HashPassword("correct-horse")
	require.NoError(t, err)

	assert.NotEqual(t, first.Hash, second.Hash)
	assert.NotEqual(t, first.Salt, second.Salt)
}

func TestVerifyUnknownPepperVersion(t *testing.T) {
	h := newTestHasher()

	result, err := h.HashPassword("correct-horse")
	require.NoError(t, err)

	result.PepperVersion = 99
	_, err = h.VerifyPassword("correct-horse", result)
	assert.Error(t, err)
}

func TestVerifyCorruptedHash(t *testing.T) {
	h := newTestHasher()

	result, err := h.HashPassword("correct-horse")
	require.NoError(t, err)

	result.Salt = "!!!not-base64!!!"
	_, err = h.VerifyPassword("correct-horse", result)
	assert.ErrorIs(t, err, ErrInvalidHash)
}
