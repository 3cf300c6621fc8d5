package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned by Validate when no Gemini credential is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// Config holds all techwriter configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Record store
	Database DatabaseConfig `yaml:"database"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:           DefaultModel,
			Temperature:     DefaultTemperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
			Timeout:         "10m",
		},

		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Host:    "localhost",
			Port:    5432,
			Name:    "postgres",
			User:    "kkbabe",
			SSLMode: "disable",
			Path:    "techwriter.db",
			PoolMin: 1,
			PoolMax: 10,
			Enabled: true,
			Timeout: "10s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file. Credentials are written as-is.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	c.LLM.APIKey = Get("GEMINI_API_KEY", c.LLM.APIKey)
	c.LLM.Model = Get("GEMINI_MODEL", c.LLM.Model)
	c.LLM.MaxOutputTokens = GetInt("GEMINI_MAX_OUTPUT_TOKENS", c.LLM.MaxOutputTokens)
	c.LLM.BaseURL = Get("GEMINI_BASE_URL", c.LLM.BaseURL)

	c.Database.Driver = Get("DB_DRIVER", c.Database.Driver)
	c.Database.Host = Get("DB_HOST", c.Database.Host)
	c.Database.Port = GetInt("DB_PORT", c.Database.Port)
	c.Database.Name = Get("DB_NAME", c.Database.Name)
	c.Database.User = Get("DB_USER", c.Database.User)
	c.Database.Password = Get("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = Get("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Path = Get("DB_PATH", c.Database.Path)
	c.Database.PoolMin = GetInt("DB_POOL_MIN", c.Database.PoolMin)
	c.Database.PoolMax = GetInt("DB_POOL_MAX", c.Database.PoolMax)

	c.Logging.Level = Get("TECHWRITER_LOG_LEVEL", c.Logging.Level)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	return c.Database.Validate()
}

// ValidateLLM checks only the LLM section, for runs that never touch the database.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("invalid max output tokens: %d", c.LLM.MaxOutputTokens)
	}
	return nil
}

// GetLLMTimeout returns the per-call LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetDatabaseTimeout returns the connect timeout for the record store.
func (c *Config) GetDatabaseTimeout() time.Duration {
	d, err := time.ParseDuration(c.Database.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
