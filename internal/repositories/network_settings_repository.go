package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"proof/internal/models"
)

type NetworkSettingsRepository interface {
	Get(ctx context.Context) (*models.NetworkSettings, error)
	Save(ctx context.Context, settings *models.NetworkSettings) error
}

type networkSettingsRepository struct {
	db *gorm.DB
}

func NewNetworkSettingsRepository(db *gorm.DB) NetworkSettingsRepository {
	return &networkSettingsRepository{db: db}
}

// Get always returns normalized settings, whatever is stored.
func (r *networkSettingsRepository) Get(ctx context.Context) (*models.NetworkSettings, error) {
	var settings models.NetworkSettings
	if err := r.db.WithContext(ctx).First(&settings, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultNetworkSettings()
			return &defaults, nil
		}
		return nil, err
	}
	normalized := settings.Normalized()
	return &normalized, nil
}

func (r *networkSettingsRepository) Save(ctx context.Context, settings *models.NetworkSettings) error {
	normalized := settings.Normalized()
	normalized.ID = 1
	if err := r.db.WithContext(ctx).Save(&normalized).Error; err != nil {
		return err
	}
	*settings = normalized
	return nil
}
