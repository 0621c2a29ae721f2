package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/geo"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Join      JoinConfig      `yaml:"join" mapstructure:"join"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input datasets and the output table. File names
// are resolved against Dir unless absolute or URLs.
type DataConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	CrimeFile      string `yaml:"crime_file" mapstructure:"crime_file"`
	TractFile      string `yaml:"tract_file" mapstructure:"tract_file"`
	RentalFile     string `yaml:"rental_file" mapstructure:"rental_file"`
	TractShapefile string `yaml:"tract_shapefile" mapstructure:"tract_shapefile"`
	GEOIDField     string `yaml:"geoid_field" mapstructure:"geoid_field"`
	OutputFile     string `yaml:"output_file" mapstructure:"output_file"`
	TempDir        string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// Path resolves name against Dir. Empty names stay empty.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "://") {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// JoinConfig tunes the nearest-tract join.
type JoinConfig struct {
	Metric      string `yaml:"metric" mapstructure:"metric"`
	LeafSize    int    `yaml:"leaf_size" mapstructure:"leaf_size"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds the summary model settings.
type AnthropicConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoffMs int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := geo.ParseMetric(c.Join.Metric); err != nil {
		return eris.Wrap(err, "config: join.metric")
	}
	if c.Join.LeafSize < 1 {
		return eris.Errorf("config: join.leaf_size must be positive, got %d", c.Join.LeafSize)
	}
	if c.Join.Concurrency < 1 {
		return eris.Errorf("config: join.concurrency must be positive, got %d", c.Join.Concurrency)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "none" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required")
	}
	if c.Data.CrimeFile == "" || c.Data.TractFile == "" {
		return eris.New("config: data.crime_file and data.tract_file are required")
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CIVIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "Datasets")
	v.SetDefault("data.crime_file", "crime_2024.csv")
	v.SetDefault("data.tract_file", "kinder_poverty.csv")
	v.SetDefault("data.rental_file", "rental_registry.csv")
	v.SetDefault("data.tract_shapefile", "")
	v.SetDefault("data.geoid_field", "GEOID")
	v.SetDefault("data.output_file", "processed_analysis.csv")
	v.SetDefault("data.temp_dir", "/tmp/civic-cli")
	v.SetDefault("join.metric", "haversine")
	v.SetDefault("join.leaf_size", geo.DefaultLeafSize)
	v.SetDefault("join.concurrency", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "civic.db")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.3)
	v.SetDefault("anthropic.max_retries", 3)
	v.SetDefault("anthropic.retry_backoff_ms", 500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
