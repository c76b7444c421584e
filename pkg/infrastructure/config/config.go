// Package config loads run settings from a config file, a .env file and
// CLEM_ environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// SimulationConfig controls the clock and arbitration of a run. Dates in a
// scenario file take precedence over these.
type SimulationConfig struct {
	// Start and End are YYYY-MM-DD; empty means use the scenario's dates
	Start string `mapstructure:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `mapstructure:"end" validate:"omitempty,datetime=2006-01-02"`

	// Arbitration policy: first-come or proportional
	Arbitration string `mapstructure:"arbitration" validate:"required,oneof=first-come proportional"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Log format: json, text
	Format string `mapstructure:"format" validate:"required,oneof=json text"`

	// Output destination: stdout, stderr
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr"`
}

// StorageConfig holds the outcome store settings
type StorageConfig struct {
	// SQLite file path; empty disables persistence
	Path string `mapstructure:"path"`
}

// MetricsConfig holds prometheus settings
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace" validate:"required_if=Enabled true"`
	// File receives the gathered metrics in text exposition format after a run
	File string `mapstructure:"file"`
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (clem.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("clem")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("CLEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	SetDefaults(cfg)
	return cfg
}

// bindEnv registers every key so AutomaticEnv applies during Unmarshal even
// without a config file
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"simulation.start", "simulation.end", "simulation.arbitration",
		"logging.level", "logging.format", "logging.output",
		"storage.path",
		"metrics.enabled", "metrics.namespace", "metrics.file",
	} {
		_ = v.BindEnv(key)
	}
}
