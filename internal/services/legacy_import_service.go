package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/yargevad/filepathx"

	"proof/internal/models"
	"proof/internal/utils"
)

const importedSuffix = ".imported"

// ImportReport counts what LegacyImportService moved into the database.
type ImportReport struct {
	Settings bool
	Sessions int
	Skipped  int
}

// LegacyImportService moves the JSON files written by earlier releases
// (settings.json and sessions/*.json in the app config directory) into the
// database. Imported files are renamed so a second run is a no-op.
type LegacyImportService struct {
	dir      string
	settings SettingsService
	sessions ChatSessionService
	log      logger.Logger
}

func NewLegacyImportService(dir string, settings SettingsService, sessions ChatSessionService, log logger.Logger) *LegacyImportService {
	return &LegacyImportService{dir: dir, settings: settings, sessions: sessions, log: log}
}

func (s *LegacyImportService) Import(ctx context.Context) (ImportReport, error) {
	var report ImportReport
	if s.dir == "" || !utils.DirectoryExists(s.dir) {
		return report, nil
	}

	ok, err := s.importSettings(ctx, filepath.Join(s.dir, "settings.json"))
	if err != nil {
		return report, err
	}
	report.Settings = ok

	matches, err := filepathx.Glob(filepath.Join(s.dir, "sessions", "**", "*.json"))
	if err != nil {
		return report, fmt.Errorf("glob sessions: %w", err)
	}
	for _, path := range matches {
		if err := s.importSession(ctx, path); err != nil {
			s.warn(fmt.Sprintf("legacy import: skipping %s: %v", path, err))
			report.Skipped++
			continue
		}
		report.Sessions++
	}
	if report.Settings || report.Sessions > 0 {
		s.info(fmt.Sprintf("legacy import: settings=%t sessions=%d skipped=%d", report.Settings, report.Sessions, report.Skipped))
	}
	return report, nil
}

func (s *LegacyImportService) importSettings(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	var in models.SettingsInput
	if err := json.Unmarshal(data, &in); err != nil {
		s.warn(fmt.Sprintf("legacy import: unreadable %s: %v", path, err))
		return false, nil
	}
	settings, err := in.Settings()
	if err != nil {
		s.warn(fmt.Sprintf("legacy import: invalid %s: %v", path, err))
		return false, nil
	}
	if err := s.settings.Save(ctx, settings); err != nil {
		return false, err
	}
	return true, markImported(path)
}

func (s *LegacyImportService) importSession(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var session models.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return err
	}
	return markImported(path)
}

func markImported(path string) error {
	return os.Rename(path, path+importedSuffix)
}

func (s *LegacyImportService) info(msg string) {
	if s.log != nil {
		s.log.Info(msg)
	}
}

func (s *LegacyImportService) warn(msg string) {
	if s.log != nil {
		s.log.Warning(msg)
	}
}
