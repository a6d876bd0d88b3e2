package mocks

import (
	"context"

	"proof/internal/models"
)

type NetworkSettingsRepositoryMock struct {
	GetFunc  func(ctx context.Context) (*models.NetworkSettings, error)
	SaveFunc func(ctx context.Context, settings *models.NetworkSettings) error
}

func (m *NetworkSettingsRepositoryMock) Get(ctx context.Context) (*models.NetworkSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	defaults := models.DefaultNetworkSettings()
	return &defaults, nil
}

func (m *NetworkSettingsRepositoryMock) Save(ctx context.Context, settings *models.NetworkSettings) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, settings)
	}
	return nil
}
