package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := hashWithIterations("hunter2", 1000)
	require.NoError(t, err)
	assert.Contains(t, hash, "pbkdf2-sha256$1000$")

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	a, err := hashWithIterations("same", 1000)
	require.NoError(t, err)
	b, err := hashWithIterations("same", 1000)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "plain", "bcrypt$1$a$b", "pbkdf2-sha256$x$a$b", "pbkdf2-sha256$10$!!$b"} {
		_, err := VerifyPassword("pw", bad)
		assert.ErrorIs(t, err, ErrMalformedHash, bad)
	}
}
