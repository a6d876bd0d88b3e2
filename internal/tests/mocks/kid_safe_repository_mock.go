package mocks

import (
	"context"

	"proof/internal/models"
)

type KidSafeRepositoryMock struct {
	GetFunc  func(ctx context.Context) (*models.KidSafeSettings, error)
	SaveFunc func(ctx context.Context, settings *models.KidSafeSettings) error
}

func (m *KidSafeRepositoryMock) Get(ctx context.Context) (*models.KidSafeSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	defaults := models.DefaultKidSafeSettings()
	return &defaults, nil
}

func (m *KidSafeRepositoryMock) Save(ctx context.Context, settings *models.KidSafeSettings) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, settings)
	}
	return nil
}
