package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	require.Contains(t, hash, "m=19456", "memory parameter should be 19456 (19*1024)")

	t.Run("salting makes hashes unique", func(t *testing.T) {
		other, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
	})
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	t.Run("matching password verifies", func(t *testing.T) {
		require.NoError(t, VerifyPassword("hunter2", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		require.ErrorIs(t, VerifyPassword("hunter3", hash), ErrPasswordMismatch)
	})

	t.Run("mangled hash fails", func(t *testing.T) {
		require.Error(t, VerifyPassword("hunter2", "$argon2id$garbage"))
		require.Error(t, VerifyPassword("hunter2", ""))
	})
}
