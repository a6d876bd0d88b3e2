package services

import (
	"context"

	"proof/internal/models"
	"proof/internal/repositories"
)

type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings models.Settings) error
	Startup(ctx context.Context)
}

type settingsService struct {
	settings repositories.SettingsRepository
	context  context.Context
}

func (s *settingsService) Startup(ctx context.Context) {
	s.context = ctx
}

func NewSettingsService(settings repositories.SettingsRepository) SettingsService {
	return &settingsService{settings: settings}
}

func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	return s.settings.Get(ctx)
}

// Save rejects out-of-range values; the stored row is left untouched then.
func (s *settingsService) Save(ctx context.Context, settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.settings.Save(ctx, &settings)
}
