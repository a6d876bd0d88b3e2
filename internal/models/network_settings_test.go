package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkSettings_MasterOffForcesDependentsOff(t *testing.T) {
	n := NetworkSettings{
		OutboundConnectionsEnabled: true,
		OllamaConnectionsEnabled:   true,
		ModelDownloadsEnabled:      true,
		UpdateChecksEnabled:        true,
	}

	off := n.WithOutbound(false)
	assert.False(t, off.OutboundConnectionsEnabled)
	assert.False(t, off.OllamaConnectionsEnabled)
	assert.False(t, off.ModelDownloadsEnabled)
	assert.False(t, off.UpdateChecksEnabled)

	// Back on: dependents keep their last value, which is off.
	on := off.WithOutbound(true)
	assert.True(t, on.OutboundConnectionsEnabled)
	assert.False(t, on.OllamaConnectionsEnabled)
	assert.False(t, on.ModelDownloadsEnabled)
	assert.False(t, on.UpdateChecksEnabled)
}

func TestNetworkSettings_DependentsCannotEnableWhileMasterOff(t *testing.T) {
	n := NetworkSettings{}.
		WithOllama(true).
		WithModelDownloads(true).
		WithUpdateChecks(true)

	assert.Equal(t, NetworkSettings{}, n)
}

func TestNetworkSettings_DependentTogglesAreIndependentUnderMaster(t *testing.T) {
	n := NetworkSettings{}.WithOutbound(true).WithOllama(true).WithUpdateChecks(true)
	assert.True(t, n.OllamaConnectionsEnabled)
	assert.False(t, n.ModelDownloadsEnabled)
	assert.True(t, n.UpdateChecksEnabled)

	n = n.WithOllama(false)
	assert.False(t, n.OllamaConnectionsEnabled)
	assert.True(t, n.UpdateChecksEnabled)
}

func TestNetworkSettings_Normalized(t *testing.T) {
	loaded := NetworkSettings{OllamaConnectionsEnabled: true, UpdateChecksEnabled: true}
	assert.Equal(t, NetworkSettings{}, loaded.Normalized())
}

func TestNetworkSettings_Allows(t *testing.T) {
	n := DefaultNetworkSettings()
	assert.True(t, n.Allows(PermissionOutbound))
	assert.True(t, n.Allows(PermissionOllama))
	assert.True(t, n.Allows(PermissionModelDownloads))
	assert.False(t, n.Allows(PermissionUpdateChecks))

	// A dependent flag left set on a stale record is still refused.
	stale := NetworkSettings{OllamaConnectionsEnabled: true}
	assert.False(t, stale.Allows(PermissionOllama))
	assert.False(t, n.Allows(PermissionType("telemetry")))
}

func TestParsePermissionType(t *testing.T) {
	p, err := ParsePermissionType("model_downloads")
	assert.NoError(t, err)
	assert.Equal(t, PermissionModelDownloads, p)

	_, err = ParsePermissionType("everything")
	assert.Error(t, err)
}
