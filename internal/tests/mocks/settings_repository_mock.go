package mocks

import (
	"context"

	"proof/internal/models"
)

type SettingsRepositoryMock struct {
	GetFunc  func(ctx context.Context) (*models.Settings, error)
	SaveFunc func(ctx context.Context, settings *models.Settings) error
}

func (m *SettingsRepositoryMock) Get(ctx context.Context) (*models.Settings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	defaults := models.DefaultSettings()
	return &defaults, nil
}

func (m *SettingsRepositoryMock) Save(ctx context.Context, settings *models.Settings) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, settings)
	}
	return nil
}
