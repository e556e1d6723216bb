// Package config provides application-wide configuration.
// Precedence, lowest first: defaults, YAML file, .env file, environment
// variables. CLI flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigMissing is fatal at start-up.
	ErrConfigMissing = errors.New("required configuration missing")
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	Host string `yaml:"host"` // STATSMCP_HOST
	Port int    `yaml:"port"` // STATSMCP_PORT

	DatasetPath  string `yaml:"dataset_path"`  // DATASET_PATH
	DatasetTable string `yaml:"dataset_table"` // DATASET_TABLE, SQLite sources only

	AlphaVantageAPIKey   string        `yaml:"alpha_vantage_api_key"`  // ALPHA_VANTAGE_API_KEY (required)
	AlphaVantageBaseURL  string        `yaml:"alpha_vantage_base_url"` // ALPHA_VANTAGE_BASE_URL
	AlphaVantageInterval string        `yaml:"alpha_vantage_interval"` // ALPHA_VANTAGE_INTERVAL
	QuoteTimeout         time.Duration `yaml:"quote_timeout"`          // QUOTE_TIMEOUT

	LogLevel        string        `yaml:"log_level"`        // LOG_LEVEL
	LogFormat       string        `yaml:"log_format"`       // LOG_FORMAT: text | json
	TracingEnabled  bool          `yaml:"tracing_enabled"`  // TRACING_ENABLED
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // SHUTDOWN_TIMEOUT
}

const (
	EnvKeyConfigFile           = "STATSMCP_CONFIG"
	envKeyHost                 = "STATSMCP_HOST"
	envKeyPort                 = "STATSMCP_PORT"
	envKeyDatasetPath          = "DATASET_PATH"
	envKeyDatasetTable         = "DATASET_TABLE"
	EnvKeyAlphaVantageAPIKey   = "ALPHA_VANTAGE_API_KEY"
	envKeyAlphaVantageBaseURL  = "ALPHA_VANTAGE_BASE_URL"
	envKeyAlphaVantageInterval = "ALPHA_VANTAGE_INTERVAL"
	envKeyQuoteTimeout         = "QUOTE_TIMEOUT"
	envKeyLogLevel             = "LOG_LEVEL"
	envKeyLogFormat            = "LOG_FORMAT"
	envKeyTracingEnabled       = "TRACING_ENABLED"
	envKeyShutdownTimeout      = "SHUTDOWN_TIMEOUT"
)

// Default returns the configuration used when nothing is set. Only the API
// key has no default.
func Default() Config {
	return Config{
		Host:                 "127.0.0.1",
		Port:                 8000,
		DatasetPath:          "data/sales_data.csv",
		DatasetTable:         "dataset",
		AlphaVantageBaseURL:  "https://www.alphavantage.co",
		AlphaVantageInterval: "5min",
		QuoteTimeout:         10 * time.Second,
		LogLevel:             "info",
		LogFormat:            "text",
		TracingEnabled:       false,
		ShutdownTimeout:      10 * time.Second,
	}
}

type LoadOptions struct {
	// ConfigFile is an optional YAML file; STATSMCP_CONFIG is used when empty.
	ConfigFile string
	// EnvFiles are loaded with godotenv when they exist. They never override
	// variables already present in the environment.
	EnvFiles []string
}

// Load builds the configuration. It does not validate it.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return cfg, err
	}

	path := opts.ConfigFile
	if path == "" {
		path = os.Getenv(EnvKeyConfigFile)
	}
	if path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("%w: env file: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) mergeYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Host = envOr(envKeyHost, c.Host)
	c.DatasetPath = envOr(envKeyDatasetPath, c.DatasetPath)
	c.DatasetTable = envOr(envKeyDatasetTable, c.DatasetTable)
	c.AlphaVantageAPIKey = envOr(EnvKeyAlphaVantageAPIKey, c.AlphaVantageAPIKey)
	c.AlphaVantageBaseURL = envOr(envKeyAlphaVantageBaseURL, c.AlphaVantageBaseURL)
	c.AlphaVantageInterval = envOr(envKeyAlphaVantageInterval, c.AlphaVantageInterval)
	c.LogLevel = envOr(envKeyLogLevel, c.LogLevel)
	c.LogFormat = envOr(envKeyLogFormat, c.LogFormat)

	var err error
	if c.Port, err = envInt(envKeyPort, c.Port); err != nil {
		return err
	}
	if c.QuoteTimeout, err = envDuration(envKeyQuoteTimeout, c.QuoteTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = envDuration(envKeyShutdownTimeout, c.ShutdownTimeout); err != nil {
		return err
	}
	if c.TracingEnabled, err = envBool(envKeyTracingEnabled, c.TracingEnabled); err != nil {
		return err
	}
	return nil
}

// Validate reports the first missing or malformed setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AlphaVantageAPIKey) == "" {
		return fmt.Errorf("%w: %s", ErrConfigMissing, EnvKeyAlphaVantageAPIKey)
	}
	if strings.TrimSpace(c.DatasetPath) == "" {
		return fmt.Errorf("%w: %s", ErrConfigMissing, envKeyDatasetPath)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	}
	if c.QuoteTimeout <= 0 {
		return fmt.Errorf("%w: quote timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Addr is the host:port the server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}
	return n, nil
}

// envDuration accepts Go durations ("10s") and bare seconds ("10").
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, v)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, v)
	}
	return b, nil
}
