package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"healthtrack/internal/logger"
)

type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ProviderConfig selects the remote model provider and its credentials.
// Provider must be one of the supported names; everything else makes the
// orchestrator skip entries rather than fail them.
type ProviderConfig struct {
	Name                string `mapstructure:"name"`     // "openai" or "openai_compatible"
	APIKey              string `mapstructure:"api_key"`  // falls back to HEALTHTRACK_API_KEY env
	BaseURL             string `mapstructure:"base_url"` // API base URL, supports OpenAI-compatible endpoints
	Model               string `mapstructure:"model"`    // Model for single-entry analysis
	SummaryModel        string `mapstructure:"summary_model"`
	MaxCompletionTokens int    `mapstructure:"max_completion_tokens"`

	AnalysisPrompt string `mapstructure:"analysis_prompt"` // Override for the single-entry analysis prompt
	SummaryPrompt  string `mapstructure:"summary_prompt"`  // Override for the daily summary prompt
}

type StorageConfig struct {
	DBPath        string    `mapstructure:"db_path"`
	AssetsPath    string    `mapstructure:"assets_path"`
	RetentionDays int       `mapstructure:"retention_days"`
	LogPath       string    `mapstructure:"log_path"`
	Log           LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`         // "debug", "info", "warn", "error"
	RotationTime string `mapstructure:"rotation_time"` // Time-based rotation interval (e.g., "1h", "24h")
	MaxSize      int    `mapstructure:"max_size"`      // Maximum size in megabytes before rotation
	MaxBackups   int    `mapstructure:"max_backups"`   // Maximum number of old log files to retain
	MaxAge       int    `mapstructure:"max_age"`       // Maximum number of days to retain old log files
	Compress     bool   `mapstructure:"compress"`      // Whether to compress rotated log files
}

type PipelineConfig struct {
	Timezone         string `mapstructure:"timezone"`           // Default timezone for new entries and sweeps
	DailySummaryCron string `mapstructure:"daily_summary_cron"` // Cron spec for regenerating today's summary
	CleanupCron      string `mapstructure:"cleanup_cron"`       // Cron spec for the retention cleanup task
}

var globalConfig *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")

		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			viper.AddConfigPath(filepath.Join(execDir, "config"))
			viper.AddConfigPath(execDir)
		}

		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")

		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".healthtrack"))
		}
	}

	viper.SetDefault("provider.name", "openai")
	viper.SetDefault("provider.base_url", "https://api.openai.com/v1")
	viper.SetDefault("provider.model", "gpt-4o")
	viper.SetDefault("provider.summary_model", "gpt-4o-mini")
	viper.SetDefault("provider.max_completion_tokens", 1500)

	viper.SetDefault("storage.db_path", "./data/db/healthtrack.db")
	viper.SetDefault("storage.assets_path", "./data/assets")
	viper.SetDefault("storage.retention_days", 0) // 0 disables retention cleanup
	viper.SetDefault("storage.log_path", "")
	viper.SetDefault("storage.log.level", "info")
	viper.SetDefault("storage.log.rotation_time", "24h")
	viper.SetDefault("storage.log.max_size", 100)
	viper.SetDefault("storage.log.max_backups", 3)
	viper.SetDefault("storage.log.max_age", 28)
	viper.SetDefault("storage.log.compress", true)

	viper.SetDefault("pipeline.timezone", "")
	viper.SetDefault("pipeline.daily_summary_cron", "0 30 21 * * *") // 21:30 local, with seconds field
	viper.SetDefault("pipeline.cleanup_cron", "0 0 4 * * *")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("HEALTHTRACK_API_KEY")
	}
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := normalizePaths(&cfg); err != nil {
		return nil, fmt.Errorf("failed to normalize paths: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get returns the loaded global configuration, loading defaults when Load has
// not run yet.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			logger.GetLogger().Warnf("Failed to load config: %v, using defaults", err)
			globalConfig = &Config{}
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// normalizePaths makes relative storage paths absolute and ensures their
// parent directories exist.
func normalizePaths(cfg *Config) error {
	for _, p := range []*string{&cfg.Storage.DBPath, &cfg.Storage.AssetsPath} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", *p, err)
		}
		*p = abs
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", abs, err)
		}
	}
	return nil
}

// InitLogger wires the storage log settings into the global logger.
func (c *Config) InitLogger() error {
	return logger.Init(logger.Config{
		Level:        c.Storage.Log.Level,
		FilePath:     c.Storage.LogPath,
		RotationTime: c.Storage.Log.RotationTime,
		MaxSize:      c.Storage.Log.MaxSize,
		MaxBackups:   c.Storage.Log.MaxBackups,
		MaxAge:       c.Storage.Log.MaxAge,
		Compress:     c.Storage.Log.Compress,
	})
}

// Location resolves the pipeline's default timezone, falling back to the
// process-local zone.
func (c *Config) Location() *time.Location {
	if c.Pipeline.Timezone != "" {
		if loc, err := time.LoadLocation(c.Pipeline.Timezone); err == nil {
			return loc
		}
		logger.GetLogger().Warnf("Unknown timezone %q, falling back to local", c.Pipeline.Timezone)
	}
	return time.Local
}
