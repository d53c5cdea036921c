// Package config provides configuration management for the ClipCraft agent.
// Configuration is loaded from environment variables (optionally seeded from a
// .env file) with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is prepended to every variable name, e.g. CLIPCRAFT_PORT.
	EnvPrefix = "CLIPCRAFT"

	// Default values
	DefaultPort           = 8788
	DefaultLogLevel       = "info"
	DefaultServiceURL     = "http://127.0.0.1:8001"
	DefaultPollInterval   = 2 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultBatchStagger   = time.Second

	// Environment variable names
	EnvPort           = EnvPrefix + "_PORT"
	EnvLogLevel       = EnvPrefix + "_LOG_LEVEL"
	EnvServiceURL     = EnvPrefix + "_SERVICE_URL"
	EnvPollInterval   = EnvPrefix + "_POLL_INTERVAL"
	EnvRequestTimeout = EnvPrefix + "_REQUEST_TIMEOUT"
	EnvBatchStagger   = EnvPrefix + "_BATCH_STAGGER"
	EnvAPIToken       = EnvPrefix + "_API_TOKEN"
	EnvHeadless       = EnvPrefix + "_HEADLESS"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	ServiceURL() string
	PollInterval() time.Duration
	RequestTimeout() time.Duration
	BatchStagger() time.Duration
	APIToken() string
	Headless() bool
}

type envSpec struct {
	Port           int           `envconfig:"PORT" default:"8788"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	ServiceURL     string        `envconfig:"SERVICE_URL" default:"http://127.0.0.1:8001"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	BatchStagger   time.Duration `envconfig:"BATCH_STAGGER" default:"1s"`
	APIToken       string        `envconfig:"API_TOKEN"`
	Headless       bool          `envconfig:"HEADLESS" default:"false"`
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	spec envSpec
}

// LoadDotEnv seeds the process environment from a .env file. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	var spec envSpec
	if err := envconfig.Process(EnvPrefix, &spec); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if spec.Port < 1 || spec.Port > 65535 {
		return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
	}

	u, err := url.Parse(spec.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid %s: must be an absolute http(s) URL", EnvServiceURL)
	}

	if spec.PollInterval <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive", EnvPollInterval)
	}
	if spec.RequestTimeout <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive", EnvRequestTimeout)
	}
	if spec.BatchStagger < 0 {
		return nil, fmt.Errorf("invalid %s: must not be negative", EnvBatchStagger)
	}

	return &EnvConfig{spec: spec}, nil
}

// Port returns the local API port
func (c *EnvConfig) Port() int {
	return c.spec.Port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.spec.LogLevel
}

// ServiceURL returns the base URL of the processing service
func (c *EnvConfig) ServiceURL() string {
	return c.spec.ServiceURL
}

func (c *EnvConfig) PollInterval() time.Duration {
	return c.spec.PollInterval
}

func (c *EnvConfig) RequestTimeout() time.Duration {
	return c.spec.RequestTimeout
}

func (c *EnvConfig) BatchStagger() time.Duration {
	return c.spec.BatchStagger
}

// APIToken returns the bearer token guarding the local API. Empty means the
// caller should generate one.
func (c *EnvConfig) APIToken() string {
	return c.spec.APIToken
}

// Headless disables opening links and touching the clipboard.
func (c *EnvConfig) Headless() bool {
	return c.spec.Headless
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
