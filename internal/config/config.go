// Package config loads the application configuration.
//
// Values come from, in order of precedence:
//   - environment variables (optionally loaded from a project .env)
//   - config.toml in the application config directory
//   - built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const AppName = "proof"

// Duration decodes TOML strings such as "5s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Ollama     OllamaConfig     `toml:"ollama"`
	Transport  TransportConfig  `toml:"transport"`
	Stream     StreamConfig     `toml:"stream"`
	Database   DatabaseConfig   `toml:"database"`
	Log        LogConfig        `toml:"log"`
	ParentLock ParentLockConfig `toml:"parent_lock"`
}

type OllamaConfig struct {
	BaseURL        string   `toml:"base_url"`
	Binary         string   `toml:"binary"`
	HealthTimeout  Duration `toml:"health_timeout"`
	StartupWait    Duration `toml:"startup_wait"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type TransportConfig struct {
	CallTimeout Duration `toml:"call_timeout"`
	PullTimeout Duration `toml:"pull_timeout"`
	MaxRetries  int      `toml:"max_retries"`
	RetryDelay  Duration `toml:"retry_delay"`
}

type StreamConfig struct {
	IdleTimeout Duration `toml:"idle_timeout"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type ParentLockConfig struct {
	// UnlockRate is the sustained number of unlock attempts allowed per minute.
	UnlockRate  float64 `toml:"unlock_rate"`
	UnlockBurst int     `toml:"unlock_burst"`
}

func Default() Config {
	return Config{
		Ollama: OllamaConfig{
			BaseURL:        "http://127.0.0.1:11434",
			Binary:         "ollama",
			HealthTimeout:  Duration{2 * time.Second},
			StartupWait:    Duration{5 * time.Second},
			RequestTimeout: Duration{2 * time.Minute},
		},
		Transport: TransportConfig{
			CallTimeout: Duration{30 * time.Second},
			PullTimeout: Duration{time.Hour},
			MaxRetries:  2,
			RetryDelay:  Duration{500 * time.Millisecond},
		},
		Stream: StreamConfig{
			IdleTimeout: Duration{2 * time.Minute},
		},
		Log: LogConfig{
			Level: "info",
		},
		ParentLock: ParentLockConfig{
			UnlockRate:  6,
			UnlockBurst: 5,
		},
	}
}

// Load reads path (missing file is fine), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text on top of the defaults.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.Ollama.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid ollama.base_url %q", c.Ollama.BaseURL)
	}
	if c.Transport.MaxRetries < 0 {
		return errors.New("transport.max_retries must not be negative")
	}
	if c.Transport.CallTimeout.Duration <= 0 || c.Transport.PullTimeout.Duration <= 0 {
		return errors.New("transport timeouts must be positive")
	}
	if c.Stream.IdleTimeout.Duration <= 0 {
		return errors.New("stream.idle_timeout must be positive")
	}
	if c.ParentLock.UnlockRate <= 0 || c.ParentLock.UnlockBurst <= 0 {
		return errors.New("parent_lock unlock rate and burst must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warning", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("OLLAMA_HOST")); v != "" {
		cfg.Ollama.BaseURL = normalizeOllamaHost(v)
	}
	if v := strings.TrimSpace(os.Getenv("PROOF_OLLAMA_URL")); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PROOF_DB_PATH")); v != "" {
		cfg.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("PROOF_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("PROOF_LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
	if v := strings.TrimSpace(os.Getenv("PROOF_STREAM_IDLE_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stream.IdleTimeout = Duration{d}
		}
	}
	if v := strings.TrimSpace(os.Getenv("PROOF_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Transport.MaxRetries = n
		}
	}
}

// normalizeOllamaHost accepts the forms ollama itself accepts for OLLAMA_HOST:
// "host", "host:port" or a full URL.
func normalizeOllamaHost(v string) string {
	if strings.Contains(v, "://") {
		return strings.TrimRight(v, "/")
	}
	if !strings.Contains(v, ":") {
		v += ":11434"
	}
	return "http://" + v
}

// AppDir returns the per-user directory for config, database and secrets.
func AppDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
