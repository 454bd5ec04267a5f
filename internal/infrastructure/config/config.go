package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// FileEnv names the optional overlay file.
const FileEnv = "DOCBRIDGE_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage" json:"storage"`
	Media     MediaConfig     `yaml:"media" toml:"media" json:"media"`
	Workers   WorkersConfig   `yaml:"workers" toml:"workers" json:"workers"`
	Picker    PickerConfig    `yaml:"picker" toml:"picker" json:"picker"`
	Logging   LogConfig       `yaml:"logging" toml:"logging" json:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" toml:"cors" json:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" yaml:"port" toml:"port" json:"port"`
	Host            string   `envconfig:"HOST" yaml:"host" toml:"host" json:"host"`
	ReadTimeout     Duration `envconfig:"READ_TIMEOUT" yaml:"read_timeout" toml:"read_timeout" json:"read_timeout"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// StorageConfig describes the document tree volumes.
type StorageConfig struct {
	Authority string `envconfig:"STORAGE_AUTHORITY" yaml:"authority" toml:"authority" json:"authority"`
	// Volumes maps volume name to host directory, "name:dir,name:dir" in the environment.
	Volumes    map[string]string `envconfig:"STORAGE_VOLUMES" yaml:"volumes" toml:"volumes" json:"volumes"`
	GrantsFile string            `envconfig:"GRANTS_FILE" yaml:"grants_file" toml:"grants_file" json:"grants_file"`
}

// MediaConfig describes the shared media index.
type MediaConfig struct {
	Root        string `envconfig:"MEDIA_ROOT" yaml:"root" toml:"root" json:"root"`
	CatalogFile string `envconfig:"MEDIA_CATALOG" yaml:"catalog_file" toml:"catalog_file" json:"catalog_file"`
	// DatabaseURL selects the PostgreSQL catalog instead of the snapshot file.
	DatabaseURL string `envconfig:"DATABASE_URL" yaml:"database_url" toml:"database_url" json:"database_url"`
	ScanOnStart bool   `envconfig:"MEDIA_SCAN" yaml:"scan_on_start" toml:"scan_on_start" json:"scan_on_start"`
}

// WorkersConfig sizes the bridge pool.
type WorkersConfig struct {
	Count          int   `envconfig:"WORKERS" yaml:"count" toml:"count" json:"count"`
	QueueSize      int   `envconfig:"QUEUE_SIZE" yaml:"queue_size" toml:"queue_size" json:"queue_size"`
	DeliveryBuffer int   `envconfig:"DELIVERY_BUFFER" yaml:"delivery_buffer" toml:"delivery_buffer" json:"delivery_buffer"`
	MaxReadBytes   int64 `envconfig:"MAX_READ_BYTES" yaml:"max_read_bytes" toml:"max_read_bytes" json:"max_read_bytes"`
}

// PickerConfig tunes the picker host connection.
type PickerConfig struct {
	// ExecuteTimeout bounds how long POST /services/execute waits for a delivered result.
	ExecuteTimeout  Duration `envconfig:"PICKER_EXECUTE_TIMEOUT" yaml:"execute_timeout" toml:"execute_timeout" json:"execute_timeout"`
	BreakerFailures uint32   `envconfig:"PICKER_BREAKER_FAILURES" yaml:"breaker_failures" toml:"breaker_failures" json:"breaker_failures"`
	BreakerTimeout  Duration `envconfig:"PICKER_BREAKER_TIMEOUT" yaml:"breaker_timeout" toml:"breaker_timeout" json:"breaker_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level" json:"level"`
	Format string `envconfig:"LOG_FORMAT" yaml:"format" toml:"format" json:"format"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second" json:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst" json:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled" json:"enabled"`
}

// CORSConfig holds allowed origins for the HTTP API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" yaml:"allowed_origins" toml:"allowed_origins" json:"allowed_origins"`
}

// Duration accepts Go duration strings in every source.
type Duration time.Duration

// UnmarshalText parses strings like "30s".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load builds configuration from defaults, then the overlay file named by
// DOCBRIDGE_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if file := os.Getenv(FileEnv); file != "" {
		if err := LoadFile(file, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	data := paths.DataDir()
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "127.0.0.1",
			ReadTimeout:     Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			Authority:  "docbridge.local",
			Volumes:    map[string]string{"primary": filepath.Join(data, paths.VolumesDir, "primary")},
			GrantsFile: filepath.Join(data, paths.GrantsFile),
		},
		Media: MediaConfig{
			Root:        filepath.Join(data, paths.MediaDir),
			CatalogFile: filepath.Join(data, paths.CatalogFile),
			ScanOnStart: true,
		},
		Workers: WorkersConfig{
			Count:          4,
			QueueSize:      256,
			DeliveryBuffer: 256,
			MaxReadBytes:   64 << 20,
		},
		Picker: PickerConfig{
			ExecuteTimeout:  Duration(5 * time.Minute),
			BreakerFailures: 3,
			BreakerTimeout:  Duration(10 * time.Second),
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if len(c.Storage.Volumes) == 0 {
		errs = append(errs, errors.New("at least one storage volume is required"))
	}
	for name, dir := range c.Storage.Volumes {
		if name == "" || strings.ContainsAny(name, "/:") {
			errs = append(errs, fmt.Errorf("invalid volume name %q", name))
		}
		if dir == "" {
			errs = append(errs, fmt.Errorf("volume %q has no directory", name))
		}
	}
	if c.Storage.Authority == "" {
		errs = append(errs, errors.New("storage authority is required"))
	}
	if c.Media.Root == "" {
		errs = append(errs, errors.New("media root is required"))
	}
	if c.Workers.Count <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers.Count))
	}
	if c.Workers.QueueSize < 0 || c.Workers.DeliveryBuffer < 0 {
		errs = append(errs, errors.New("queue sizes must not be negative"))
	}
	if c.Picker.BreakerFailures == 0 {
		errs = append(errs, errors.New("picker breaker failures must be positive"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit rps and burst must be positive when enabled"))
	}
	return errors.Join(errs...)
}
