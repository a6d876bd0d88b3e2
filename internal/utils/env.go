package utils

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// FindProjectRoot walks up from the working directory to the first go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if FileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// LoadEnv loads .env from the project root. Outside a source checkout, or
// without a .env file, it does nothing. Variables already set win.
func LoadEnv() error {
	root, err := FindProjectRoot()
	if err != nil {
		return nil
	}
	return LoadEnvFrom(root)
}

func LoadEnvFrom(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
