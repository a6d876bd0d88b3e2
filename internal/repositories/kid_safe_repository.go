package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"proof/internal/models"
)

type KidSafeRepository interface {
	Get(ctx context.Context) (*models.KidSafeSettings, error)
	Save(ctx context.Context, settings *models.KidSafeSettings) error
}

type kidSafeRepository struct {
	db *gorm.DB
}

func NewKidSafeRepository(db *gorm.DB) KidSafeRepository {
	return &kidSafeRepository{db: db}
}

func (r *kidSafeRepository) Get(ctx context.Context) (*models.KidSafeSettings, error) {
	var settings models.KidSafeSettings
	if err := r.db.WithContext(ctx).First(&settings, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultKidSafeSettings()
			return &defaults, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *kidSafeRepository) Save(ctx context.Context, settings *models.KidSafeSettings) error {
	settings.ID = 1
	return r.db.WithContext(ctx).Save(settings).Error
}
