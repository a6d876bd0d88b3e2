package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wailsapp/wails/v2/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("Warning")
	require.NoError(t, err)
	assert.Equal(t, logger.WARNING, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, logger.INFO, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLeveledDropsBelowThreshold(t *testing.T) {
	rec := &Recorder{}
	l := &leveled{next: rec, level: logger.WARNING}

	l.Debug("d")
	l.Info("i")
	l.Warning("w")
	l.Error("e")

	assert.Equal(t, []string{"WARN: w", "ERROR: e"}, rec.Lines)
}
