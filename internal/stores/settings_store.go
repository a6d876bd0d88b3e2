// Package stores reaches the persisted settings and chat sessions through the
// transport.
package stores

import (
	"context"

	"proof/internal/commands"
	"proof/internal/models"
	"proof/internal/transport"
)

type SettingsStore struct {
	t transport.Transport
}

func NewSettingsStore(t transport.Transport) *SettingsStore {
	return &SettingsStore{t: t}
}

// Get returns the stored settings, or the defaults when nothing was saved.
func (s *SettingsStore) Get(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	if err := s.t.Invoke(ctx, commands.GetSettings, nil, &settings); err != nil {
		return models.Settings{}, err
	}
	if settings.DefaultModel == "" && settings.ContextLength == 0 {
		return models.DefaultSettings(), nil
	}
	return settings, nil
}

// Save validates locally first; invalid settings never reach the backend.
func (s *SettingsStore) Save(ctx context.Context, settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	payload := models.SettingsPayload[models.SettingsInput]{Settings: models.InputFrom(settings)}
	return s.t.Invoke(ctx, commands.SaveSettings, payload, nil)
}
