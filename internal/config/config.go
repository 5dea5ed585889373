// Package config loads runtime settings from the environment and the source
// roster from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP settings
	Listen string

	// Storage settings. DatabaseURL selects Postgres; when empty the
	// JSON file store under DataDir is used instead.
	DatabaseURL string
	DataDir     string

	// Source roster
	SourcesConfigPath string

	// Google Sheets settings (announcements source)
	SheetsCredentialsFile string
	SheetsSpreadsheetID   string
	SheetsRange           string

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Listen:            ":8080",
		DataDir:           "data",
		SourcesConfigPath: "configs/sources.yaml",
		SheetsRange:       "Sheet1!A2:E",
		RequestTimeout:    30 * time.Second,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Second,
	}

	// Load from environment
	cfg.Listen = getEnvOrDefault("LISTEN_ADDR", cfg.Listen)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.DataDir = getEnvOrDefault("DATA_DIR", cfg.DataDir)
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)

	cfg.SheetsCredentialsFile = os.Getenv("SHEETS_CREDENTIALS_FILE")
	cfg.SheetsSpreadsheetID = os.Getenv("SHEETS_SPREADSHEET_ID")
	cfg.SheetsRange = getEnvOrDefault("SHEETS_RANGE", cfg.SheetsRange)

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	if v := os.Getenv("RETRY_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryDelay = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("LISTEN_ADDR must not be empty")
	}
	if c.DatabaseURL == "" && c.DataDir == "" {
		return fmt.Errorf("either DATABASE_URL or DATA_DIR is required")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// SourceConfig describes one scrape target from sources.yaml.
type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Cron     string `yaml:"cron"`
	Policy   string `yaml:"policy"`
	Disabled bool   `yaml:"disabled"`
}

// SourcesConfig is the YAML roster structure
// sources:
//   - name: announcements
//     cron: "0 * * * *"
//     policy: upsert
type SourcesConfig struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads the source roster from a YAML file and fills in the
// per-source defaults.
func LoadSources(path string) ([]SourceConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources config: %w", err)
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}

	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if s.Name == "" {
			return nil, fmt.Errorf("source %d: name is required", i)
		}
		if s.Cron == "" {
			s.Cron = "@hourly"
		}
		if s.Policy == "" {
			s.Policy = "upsert"
		}
	}
	return cfg.Sources, nil
}
