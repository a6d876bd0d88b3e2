package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"proof/internal/models"
)

type ParentLockRepository interface {
	Get(ctx context.Context) (*models.ParentLock, error)
	Save(ctx context.Context, lock *models.ParentLock) error
}

type parentLockRepository struct {
	db *gorm.DB
}

func NewParentLockRepository(db *gorm.DB) ParentLockRepository {
	return &parentLockRepository{db: db}
}

func (r *parentLockRepository) Get(ctx context.Context) (*models.ParentLock, error) {
	var lock models.ParentLock
	if err := r.db.WithContext(ctx).First(&lock, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultParentLock()
			return &defaults, nil
		}
		return nil, err
	}
	return &lock, nil
}

func (r *parentLockRepository) Save(ctx context.Context, lock *models.ParentLock) error {
	lock.ID = 1
	return r.db.WithContext(ctx).Save(lock).Error
}
