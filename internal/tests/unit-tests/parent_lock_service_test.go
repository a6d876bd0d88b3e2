package unit_tests

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof/internal/apperrors"
	"proof/internal/logging"
	"proof/internal/models"
	"proof/internal/services"
	"proof/internal/tests/mocks"
)

func newParentLockService(repo *mocks.ParentLockRepositoryMock, perMinute float64, burst int) (services.ParentLockService, *services.KeyringService) {
	secrets := services.NewKeyringService(keyring.NewArrayKeyring(nil))
	return services.NewParentLockService(repo, secrets, perMinute, burst, logging.Nop()), secrets
}

func TestParentLockService_SetRequiresPassword(t *testing.T) {
	repo := &mocks.ParentLockRepositoryMock{}
	service, _ := newParentLockService(repo, 600, 10)
	ctx := context.Background()

	err := service.Set(ctx, models.SetParentLockArgs{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = service.Set(ctx, models.SetParentLockArgs{Password: "abc"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 0, repo.Saves)
}

func TestParentLockService_LockAndUnlock(t *testing.T) {
	repo := &mocks.ParentLockRepositoryMock{}
	service, secrets := newParentLockService(repo, 600, 10)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, models.SetParentLockArgs{Password: "hunter22", LockMessage: "Homework first"}))

	locked, err := service.Check(ctx)
	require.NoError(t, err)
	assert.True(t, locked)

	lock, err := service.Get(ctx)
	require.NoError(t, err)
	assert.True(t, lock.HasPassword)
	assert.Empty(t, lock.PasswordHash)
	assert.Equal(t, "Homework first", lock.LockMessage)

	hash, err := secrets.GetSecret("parent-lock-password")
	require.NoError(t, err)
	assert.NotContains(t, hash, "hunter22")

	ok, err := service.Unlock(ctx, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	locked, _ = service.Check(ctx)
	assert.True(t, locked)

	ok, err = service.Unlock(ctx, "hunter22")
	require.NoError(t, err)
	assert.True(t, ok)
	locked, _ = service.Check(ctx)
	assert.False(t, locked)
}

func TestParentLockService_RelockKeepsPassword(t *testing.T) {
	repo := &mocks.ParentLockRepositoryMock{}
	service, _ := newParentLockService(repo, 600, 10)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, models.SetParentLockArgs{Password: "hunter22"}))
	ok, err := service.Unlock(ctx, "hunter22")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, service.Set(ctx, models.SetParentLockArgs{}))
	lock, err := service.Get(ctx)
	require.NoError(t, err)
	assert.True(t, lock.IsLocked)
	assert.Equal(t, models.DefaultLockMessage, lock.LockMessage)

	ok, err = service.Verify(ctx, "hunter22")
	require.NoError(t, err)
	assert.True(t, ok)
	locked, _ := service.Check(ctx)
	assert.True(t, locked, "verify must not unlock")
}

func TestParentLockService_UnlockIsRateLimited(t *testing.T) {
	repo := &mocks.ParentLockRepositoryMock{}
	service, _ := newParentLockService(repo, 1, 2)
	ctx := context.Background()
	require.NoError(t, service.Set(ctx, models.SetParentLockArgs{Password: "hunter22"}))

	for i := 0; i < 2; i++ {
		ok, err := service.Unlock(ctx, "guess")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	_, err := service.Unlock(ctx, "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestParentLockService_SetWhileLockedIsDenied(t *testing.T) {
	repo := &mocks.ParentLockRepositoryMock{}
	service, _ := newParentLockService(repo, 600, 10)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, models.SetParentLockArgs{Password: "parent-secret"}))
	locked, err := service.Check(ctx)
	require.NoError(t, err)
	require.True(t, locked)

	err = service.Set(ctx, models.SetParentLockArgs{Password: "kidpass"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, 1, repo.Saves)

	ok, err := service.Unlock(ctx, "kidpass")
	require.NoError(t, err)
	assert.False(t, ok)
	locked, _ = service.Check(ctx)
	assert.True(t, locked)
}

func TestParentLockService_ChangingPasswordNeedsCurrentOne(t *testing.T) {
	repo := &mocks.ParentLockRepositoryMock{}
	service, _ := newParentLockService(repo, 600, 10)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, models.SetParentLockArgs{Password: "parent-secret"}))
	ok, err := service.Unlock(ctx, "parent-secret")
	require.NoError(t, err)
	require.True(t, ok)

	err = service.Set(ctx, models.SetParentLockArgs{Password: "kidpass"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	err = service.Set(ctx, models.SetParentLockArgs{Password: "kidpass", CurrentPassword: "guess"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	locked, _ := service.Check(ctx)
	assert.False(t, locked)

	ok, err = service.Verify(ctx, "parent-secret")
	require.NoError(t, err)
	assert.True(t, ok, "old password still in place")

	require.NoError(t, service.Set(ctx, models.SetParentLockArgs{Password: "newsecret", CurrentPassword: "parent-secret"}))
	ok, err = service.Unlock(ctx, "parent-secret")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = service.Unlock(ctx, "newsecret")
	require.NoError(t, err)
	assert.True(t, ok)
}
