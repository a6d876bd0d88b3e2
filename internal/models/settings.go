package models

import (
	"math"
	"strings"
	"time"

	"proof/internal/apperrors"
)

const (
	DefaultModel         = "llama3.2:1b"
	DefaultTemperature   = 0.7
	DefaultContextLength = 4096

	MinTemperature    = 0.0
	MaxTemperature    = 2.0
	MinContextLength  = 512
	MaxContextLength  = 8192
	ContextLengthStep = 512
)

// Settings are the generation defaults. Single-row table (ID=1).
type Settings struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	DefaultModel  string    `gorm:"size:255;not null" json:"default_model"`
	Temperature   float64   `gorm:"not null" json:"temperature"`
	ContextLength int       `gorm:"not null" json:"context_length"`
	System        string    `gorm:"type:text" json:"system"`
	UpdatedAt     time.Time `json:"-"`
}

func DefaultSettings() Settings {
	return Settings{
		ID:            1,
		DefaultModel:  DefaultModel,
		Temperature:   DefaultTemperature,
		ContextLength: DefaultContextLength,
	}
}

// Validate rejects values outside the documented ranges. Nothing is clamped.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.DefaultModel) == "" {
		return apperrors.Validation("default model is required")
	}
	if math.IsNaN(s.Temperature) || s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return apperrors.Validation("temperature must be between %.1f and %.1f", MinTemperature, MaxTemperature)
	}
	if s.ContextLength < MinContextLength || s.ContextLength > MaxContextLength {
		return apperrors.Validation("context length must be between %d and %d", MinContextLength, MaxContextLength)
	}
	if s.ContextLength%ContextLengthStep != 0 {
		return apperrors.Validation("context length must be a multiple of %d", ContextLengthStep)
	}
	return nil
}

// SettingsInput is the save_settings payload. A missing required field is an
// error rather than a silent reset to a default.
type SettingsInput struct {
	DefaultModel  *string  `json:"default_model"`
	Temperature   *float64 `json:"temperature"`
	ContextLength *int     `json:"context_length"`
	System        *string  `json:"system,omitempty"`
}

// InputFrom is the inverse of SettingsInput.Settings.
func InputFrom(s Settings) SettingsInput {
	model, temp, ctxLen, system := s.DefaultModel, s.Temperature, s.ContextLength, s.System
	return SettingsInput{DefaultModel: &model, Temperature: &temp, ContextLength: &ctxLen, System: &system}
}

func (in SettingsInput) Settings() (Settings, error) {
	switch {
	case in.DefaultModel == nil:
		return Settings{}, apperrors.Validation("default_model is required")
	case in.Temperature == nil:
		return Settings{}, apperrors.Validation("temperature is required")
	case in.ContextLength == nil:
		return Settings{}, apperrors.Validation("context_length is required")
	}
	s := Settings{
		ID:            1,
		DefaultModel:  strings.TrimSpace(*in.DefaultModel),
		Temperature:   *in.Temperature,
		ContextLength: *in.ContextLength,
	}
	if in.System != nil {
		s.System = *in.System
	}
	return s, s.Validate()
}
