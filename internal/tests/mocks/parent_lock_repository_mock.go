package mocks

import (
	"context"

	"proof/internal/models"
)

// ParentLockRepositoryMock keeps the saved lock in memory unless the Func
// fields override it.
type ParentLockRepositoryMock struct {
	GetFunc  func(ctx context.Context) (*models.ParentLock, error)
	SaveFunc func(ctx context.Context, lock *models.ParentLock) error

	Stored *models.ParentLock
	Saves  int
}

func (m *ParentLockRepositoryMock) Get(ctx context.Context) (*models.ParentLock, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	if m.Stored != nil {
		lock := *m.Stored
		return &lock, nil
	}
	defaults := models.DefaultParentLock()
	return &defaults, nil
}

func (m *ParentLockRepositoryMock) Save(ctx context.Context, lock *models.ParentLock) error {
	m.Saves++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, lock)
	}
	stored := *lock
	m.Stored = &stored
	return nil
}
