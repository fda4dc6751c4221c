// Package config loads runtime configuration for the dashboard.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a scandash session. Values are
// populated from .scandash.yaml, SCANDASH_* env vars, and CLI flags.
type Config struct {
	ServerURL      string        `mapstructure:"server_url"`
	Token          string        `mapstructure:"token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Group          string        `mapstructure:"group"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("server_url", "http://localhost:8080/api")
	viper.SetDefault("token", "")
	viper.SetDefault("request_timeout", 30*time.Second)
	viper.SetDefault("group", "")

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
