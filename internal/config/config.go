// Package config holds the application configuration, loaded from a yaml file
// and THREATLENS_* environment variables via viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Engine      EngineConfig      `mapstructure:"engine" yaml:"engine"`
	Recognition RecognitionConfig `mapstructure:"recognition" yaml:"recognition"`
	Publisher   PublisherConfig   `mapstructure:"publisher" yaml:"publisher"`
	Store       StoreConfig       `mapstructure:"store" yaml:"store"`
}

// LoggerConfig controls the zap logger and optional rotating file sink.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig carries the default generation options.
type EngineConfig struct {
	Dedup    bool `mapstructure:"dedup" yaml:"dedup"`
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`
}

// RecognitionConfig configures the diagram-recognition collaborator.
type RecognitionConfig struct {
	Model string `mapstructure:"model" yaml:"model"`
	// APIKey is normally supplied via THREATLENS_RECOGNITION_API_KEY.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// RateLimit is the maximum recognition requests per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// PublisherConfig configures the source-control publishing collaborator.
type PublisherConfig struct {
	Owner  string `mapstructure:"owner" yaml:"owner"`
	Repo   string `mapstructure:"repo" yaml:"repo"`
	Branch string `mapstructure:"branch" yaml:"branch"`
	// Token is normally supplied via THREATLENS_PUBLISHER_TOKEN.
	Token string `mapstructure:"token" yaml:"token"`
}

// StoreConfig configures the optional Postgres archive of generated models.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// SetDefaults initializes default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "threatlens-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("engine.dedup", false)
	v.SetDefault("engine.parallel", false)

	v.SetDefault("recognition.model", "gemini-2.0-flash")
	v.SetDefault("recognition.rate_limit", 1.0)

	v.SetDefault("publisher.branch", "main")

	v.SetDefault("store.enabled", false)
}

// NewDefaultConfig returns a Config populated purely from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, _ := NewConfigFromViper(v)
	return cfg
}

// NewConfigFromViper unmarshals the viper state into a Config.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
