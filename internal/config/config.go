package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only configuration schema version accepted by Load.
const CurrentVersion = "1.0"

// Config is the venuestatus daemon configuration.
type Config struct {
	Version       string              `yaml:"version"`
	Engine        EngineConfig        `yaml:"engine"`
	Storage       StorageConfig       `yaml:"storage"`
	Persistence   PersistenceConfig   `yaml:"persistence"`
	Notifications NotificationsConfig `yaml:"notifications"`
	HTTP          HTTPConfig          `yaml:"http"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// EngineConfig holds the status lifecycle timings.
type EngineConfig struct {
	AutoTransitionDelay     Duration `yaml:"auto_transition_delay"`
	OpeningSoonWindow       Duration `yaml:"opening_soon_window"`
	ClosingSoonWindow       Duration `yaml:"closing_soon_window"`
	FastTickInterval        Duration `yaml:"fast_tick_interval"`
	SlowTickInterval        Duration `yaml:"slow_tick_interval"`
	NotificationDedupWindow Duration `yaml:"notification_dedup_window"` // defaults to fast_tick_interval
}

// StorageConfig locates the sqlite database holding venues and favorites.
type StorageConfig struct {
	Database string `yaml:"database"`
}

// PersistenceConfig controls asynchronous venue saves.
type PersistenceConfig struct {
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay Duration         `yaml:"retry_initial_delay"`
	RetryMaxDelay     Duration         `yaml:"retry_max_delay"`
	MaxRetries        int              `yaml:"max_retries"`
}

// NotificationsConfig selects the delivery transport.
type NotificationsConfig struct {
	Transport TransportKind `yaml:"transport"`
	QueueSize int           `yaml:"queue_size"`
	NATS      NATSConfig    `yaml:"nats"`
}

// NATSConfig configures the JetStream transport.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Stream  string `yaml:"stream"`
}

// HTTPConfig configures the owner API.
type HTTPConfig struct {
	Addr          string `yaml:"addr"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// TransportKind names a notification transport.
type TransportKind string

const (
	TransportLog  TransportKind = "log"
	TransportNATS TransportKind = "nats"
)

// Duration is a time.Duration read from strings like "10s" or "1h30m".
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load reads, normalizes, defaults and validates a configuration file.
// Environment variables from .env are loaded first and ${VAR} references
// in the file are expanded.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Note: .env file could not be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML content and runs normalization, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)
	}

	res := Normalize(&cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	ApplyDefaults(cfg)
	return cfg
}
