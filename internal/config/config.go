package config

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

// Config holds ambient settings, populated from environment variables.
// Per-run options (data path, analysis selection, output directory) are CLI
// flags and do not live here.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Engine resource settings. Zero/empty leaves DuckDB defaults alone.
	DuckDBThreads     int    `envconfig:"DUCKDB_THREADS" default:"0"`
	DuckDBMemoryLimit string `envconfig:"DUCKDB_MEMORY_LIMIT" default:""`

	// SampleRows bounds quick-inspection sampling.
	SampleRows int `envconfig:"SAMPLE_ROWS" default:"10000"`

	// TopWeatherLimit caps the per-state weather leaderboard.
	TopWeatherLimit int `envconfig:"TOP_WEATHER_LIMIT" default:"5"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, errors.New("LOG_FORMAT must be json or text")
	}
	if cfg.DuckDBThreads < 0 {
		return nil, errors.New("DUCKDB_THREADS must not be negative")
	}
	if cfg.SampleRows <= 0 {
		return nil, errors.New("SAMPLE_ROWS must be positive")
	}
	if cfg.TopWeatherLimit <= 0 {
		return nil, errors.New("TOP_WEATHER_LIMIT must be positive")
	}
	return &cfg, nil
}
