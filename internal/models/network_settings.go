package models

import (
	"time"

	"proof/internal/apperrors"
)

type PermissionType string

const (
	PermissionOutbound       PermissionType = "outbound"
	PermissionOllama         PermissionType = "ollama"
	PermissionModelDownloads PermissionType = "model_downloads"
	PermissionUpdateChecks   PermissionType = "update_checks"
)

func ParsePermissionType(s string) (PermissionType, error) {
	switch p := PermissionType(s); p {
	case PermissionOutbound, PermissionOllama, PermissionModelDownloads, PermissionUpdateChecks:
		return p, nil
	}
	return "", apperrors.Validation("unknown permission type %q", s)
}

// NetworkSettings holds the master outbound switch and the three flags that
// depend on it. Use the With* transitions to change flags; they keep the
// dependency invariant.
type NetworkSettings struct {
	ID                         uint      `gorm:"primaryKey" json:"-"`
	OutboundConnectionsEnabled bool      `gorm:"not null" json:"outbound_connections_enabled"`
	OllamaConnectionsEnabled   bool      `gorm:"not null" json:"ollama_connections_enabled"`
	ModelDownloadsEnabled      bool      `gorm:"not null" json:"model_downloads_enabled"`
	UpdateChecksEnabled        bool      `gorm:"not null" json:"update_checks_enabled"`
	UpdatedAt                  time.Time `json:"-"`
}

func DefaultNetworkSettings() NetworkSettings {
	return NetworkSettings{
		ID:                         1,
		OutboundConnectionsEnabled: true,
		OllamaConnectionsEnabled:   true,
		ModelDownloadsEnabled:      true,
	}
}

// Normalized forces the dependent flags off while the master flag is off.
func (n NetworkSettings) Normalized() NetworkSettings {
	if !n.OutboundConnectionsEnabled {
		n.OllamaConnectionsEnabled = false
		n.ModelDownloadsEnabled = false
		n.UpdateChecksEnabled = false
	}
	return n
}

// WithOutbound toggles the master flag. Turning it back on leaves the
// dependents as they are.
func (n NetworkSettings) WithOutbound(enabled bool) NetworkSettings {
	n.OutboundConnectionsEnabled = enabled
	return n.Normalized()
}

func (n NetworkSettings) WithOllama(enabled bool) NetworkSettings {
	n.OllamaConnectionsEnabled = enabled
	return n.Normalized()
}

func (n NetworkSettings) WithModelDownloads(enabled bool) NetworkSettings {
	n.ModelDownloadsEnabled = enabled
	return n.Normalized()
}

func (n NetworkSettings) WithUpdateChecks(enabled bool) NetworkSettings {
	n.UpdateChecksEnabled = enabled
	return n.Normalized()
}

// Allows reports whether the given permission is granted. Dependent flags
// also require the master flag.
func (n NetworkSettings) Allows(p PermissionType) bool {
	if !n.OutboundConnectionsEnabled {
		return false
	}
	switch p {
	case PermissionOutbound:
		return true
	case PermissionOllama:
		return n.OllamaConnectionsEnabled
	case PermissionModelDownloads:
		return n.ModelDownloadsEnabled
	case PermissionUpdateChecks:
		return n.UpdateChecksEnabled
	}
	return false
}

// PermissionArgs is the payload of check_network_permission.
type PermissionArgs struct {
	PermissionType string `json:"permission_type"`
}
