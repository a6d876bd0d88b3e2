package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "proof"

// ErrSecretNotFound is returned by GetSecret for unknown keys.
var ErrSecretNotFound = errors.New("secret not found")

// OpenKeyring opens the OS keyring. The encrypted file store under dir is
// used only when no OS backend can be opened.
func OpenKeyring(dir string) (keyring.Keyring, error) {
	var native []keyring.BackendType
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			native = append(native, b)
		}
	}
	if len(native) > 0 {
		cfg := keyringConfig()
		cfg.AllowedBackends = native
		if ring, err := keyring.Open(cfg); err == nil {
			return ring, nil
		}
	}
	return OpenFileKeyring(dir)
}

// OpenFileKeyring opens the file backend, encrypted with a random per-install
// passphrase kept next to it with owner-only permissions.
func OpenFileKeyring(dir string) (keyring.Keyring, error) {
	pass, err := filePassphrase(filepath.Join(dir, "keyring.key"))
	if err != nil {
		return nil, err
	}
	cfg := keyringConfig()
	cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	cfg.FileDir = filepath.Join(dir, "keyring")
	cfg.FilePasswordFunc = keyring.FixedStringPrompt(pass)
	return keyring.Open(cfg)
}

func keyringConfig() keyring.Config {
	return keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  serviceName,
		KWalletAppID:             serviceName,
		KWalletFolder:            serviceName,
		WinCredPrefix:            serviceName,
	}
}

func filePassphrase(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil && len(strings.TrimSpace(string(data))) > 0 {
		return strings.TrimSpace(string(data)), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read keyring passphrase: %w", err)
	}
	pass := rand.Text()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create keyring dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(pass), 0o600); err != nil {
		return "", fmt.Errorf("write keyring passphrase: %w", err)
	}
	return pass, nil
}

type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

func (s *KeyringService) StoreSecret(key string, value []byte) error {
	if len(value) == 0 {
		return errors.New("secret is empty")
	}
	if key == "" {
		return errors.New("key is required")
	}
	return s.ring.Set(keyring.Item{
		Key:         key,
		Data:        value,
		Label:       serviceName + " " + key,
		Description: "Used by " + serviceName,
	})
}

func (s *KeyringService) GetSecret(key string) (string, error) {
	if key == "" {
		return "", errors.New("key is required")
	}
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

// DeleteSecret removes key. Removing a missing key is not an error.
func (s *KeyringService) DeleteSecret(key string) error {
	if key == "" {
		return errors.New("key is required")
	}
	err := s.ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}
