package services

import (
	"context"

	"proof/internal/models"
	"proof/internal/repositories"
)

type NetworkService interface {
	Startup(ctx context.Context)
	Get(ctx context.Context) (*models.NetworkSettings, error)
	// Save stores settings with the master-flag cascade applied.
	Save(ctx context.Context, settings models.NetworkSettings) error
	CheckPermission(ctx context.Context, permissionType string) (bool, error)
}

type networkService struct {
	repo repositories.NetworkSettingsRepository
	ctx  context.Context
}

func NewNetworkService(repo repositories.NetworkSettingsRepository) NetworkService {
	return &networkService{repo: repo}
}

func (s *networkService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *networkService) Get(ctx context.Context) (*models.NetworkSettings, error) {
	return s.repo.Get(ctx)
}

func (s *networkService) Save(ctx context.Context, settings models.NetworkSettings) error {
	return s.repo.Save(ctx, &settings)
}

func (s *networkService) CheckPermission(ctx context.Context, permissionType string) (bool, error) {
	p, err := models.ParsePermissionType(permissionType)
	if err != nil {
		return false, err
	}
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	return settings.Allows(p), nil
}
