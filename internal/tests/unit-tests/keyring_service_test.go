package unit_tests

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof/internal/services"
)

func TestKeyringService_StoreAndGet(t *testing.T) {
	secrets := services.NewKeyringService(keyring.NewArrayKeyring(nil))

	_, err := secrets.GetSecret("missing")
	assert.ErrorIs(t, err, services.ErrSecretNotFound)
	assert.Error(t, secrets.StoreSecret("k", nil))

	require.NoError(t, secrets.StoreSecret("k", []byte("v")))
	got, err := secrets.GetSecret("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestOpenFileKeyring_UsesPerInstallPassphrase(t *testing.T) {
	dir := t.TempDir()

	ring, err := services.OpenFileKeyring(dir)
	require.NoError(t, err)
	require.NoError(t, services.NewKeyringService(ring).StoreSecret("parent-lock-password", []byte("hash")))

	pass, err := os.ReadFile(filepath.Join(dir, "keyring.key"))
	require.NoError(t, err)
	assert.NotEmpty(t, pass)
	assert.NotEqual(t, "proof", string(pass))
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "keyring.key"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	reopened, err := services.OpenFileKeyring(dir)
	require.NoError(t, err)
	got, err := services.NewKeyringService(reopened).GetSecret("parent-lock-password")
	require.NoError(t, err)
	assert.Equal(t, "hash", got)

	other, err := services.OpenFileKeyring(t.TempDir())
	require.NoError(t, err)
	_, err = services.NewKeyringService(other).GetSecret("parent-lock-password")
	assert.ErrorIs(t, err, services.ErrSecretNotFound)
}
