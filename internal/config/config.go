// Package config loads server configuration from an optional YAML file
// with environment variable overrides. With no database URL configured
// the server runs on the in-memory store and skips endpoint
// verification (no job queue without Postgres).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr            string   `yaml:"addr"`
	DatabaseURL     string   `yaml:"database_url"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	VerifyEndpoints bool     `yaml:"verify_endpoints"`
}

func defaults() *Config {
	return &Config{
		Addr:            "0.0.0.0:8080",
		AllowedOrigins:  []string{"*"},
		VerifyEndpoints: true,
	}
}

// Load reads path if non-empty (the file must then exist), applies
// defaults for unset fields, and lets DATABASE_URL and PORT env vars
// override the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		if cfg.Addr == "" {
			cfg.Addr = defaults().Addr
		}
		if len(cfg.AllowedOrigins) == 0 {
			cfg.AllowedOrigins = defaults().AllowedOrigins
		}
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = "0.0.0.0:" + port
	}
	return cfg, nil
}
