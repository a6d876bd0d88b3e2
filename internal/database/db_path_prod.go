//go:build prod

package database

import (
	"log"
	"path/filepath"

	"proof/internal/config"
)

// GetDefaultDBPath returns the database path for production builds, inside
// the user's config directory.
func GetDefaultDBPath() string {
	dir, err := config.AppDir()
	if err != nil {
		log.Printf("Warning: no user config dir (%v), using working directory", err)
		return "proof.db"
	}
	return filepath.Join(dir, "proof.db")
}

func IsDevelopment() bool {
	return false
}
