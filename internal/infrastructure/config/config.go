// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// The static lookup tables the costing engine depends on (per-product unit
// weights, P&L line classification) live here as configuration data.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Costing       CostingConfig       `yaml:"costing"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CostingConfig holds the allocation engine's lookup tables and defaults.
type CostingConfig struct {
	// UnitWeights maps product names to grams per piece, converting
	// count-unit quantities to weight for weight-basis costs.
	UnitWeights map[string]float64 `yaml:"unit_weights"`

	// PnL configures the profit & loss line classifier.
	PnL PnLConfig `yaml:"pnl"`
}

// PnLConfig holds the P&L classification tables. Classes maps line-item
// names to "I" (in-house only), "O" (outsourced only), or "B" (shared);
// unknown names are shared. Excluded lists revenue/trading-account lines
// that are dropped before classification. Categories optionally tags lines
// with a reporting category.
type PnLConfig struct {
	Classes    map[string]string `yaml:"classes"`
	Excluded   []string          `yaml:"excluded"`
	Categories map[string]string `yaml:"categories"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${PRODUCE_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PRODUCE_API_PORT", 8080),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("PRODUCE_DB_PATH", "produce_costs.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment
// variables.
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables.
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills in anything the file or environment left unset.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "produce_costs.db"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
	if c.Costing.UnitWeights == nil {
		c.Costing.UnitWeights = DefaultUnitWeights()
	}
	if c.Costing.PnL.Classes == nil {
		c.Costing.PnL.Classes = DefaultPnLClasses()
	}
	if c.Costing.PnL.Excluded == nil {
		c.Costing.PnL.Excluded = DefaultPnLExcluded()
	}
}

// DefaultUnitWeights is the built-in grams-per-piece table for common
// count-unit produce. Products not listed here fall back to a value basis
// for weight-proportioned costs.
func DefaultUnitWeights() map[string]float64 {
	return map[string]float64{
		"pineapple":   1200,
		"watermelon":  3000,
		"muskmelon":   1000,
		"coconut":     650,
		"cabbage":     900,
		"cauliflower": 800,
		"jackfruit":   5500,
		"pumpkin":     4000,
	}
}

// DefaultPnLClasses is the built-in P&L line classification.
func DefaultPnLClasses() map[string]string {
	return map[string]string{
		"labour wages":     "I",
		"farm wages":       "I",
		"seeds":            "I",
		"fertilizer":       "I",
		"pesticides":       "I",
		"irrigation":       "I",
		"farm electricity": "I",
		"carriage inward":  "O",
		"freight inward":   "O",
		"loading charges":  "O",
		"commission paid":  "O",
		"rent":             "B",
		"electricity":      "B",
		"telephone":        "B",
		"salaries":         "B",
		"insurance":        "B",
		"repairs":          "B",
		"depreciation":     "B",
		"miscellaneous":    "B",
		"printing":         "B",
		"bank charges":     "B",
	}
}

// DefaultPnLExcluded is the built-in set of revenue/trading-account lines
// dropped before classification: these are not costs.
func DefaultPnLExcluded() []string {
	return []string{
		"sales",
		"purchases",
		"opening stock",
		"closing stock",
		"gross profit",
		"gross loss",
		"net profit",
		"net loss",
		"total",
	}
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback
// default.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
