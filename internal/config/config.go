// Package config loads client configuration from an optional config file and
// COURTSIDE_-prefixed environment variables, with env taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transport strategy names.
const (
	TransportPoll = "poll"
	TransportPush = "push"
)

// Config holds all tunable client settings.
type Config struct {
	ServerURL      string        `mapstructure:"server_url"`      // REST base URL
	WSURL          string        `mapstructure:"ws_url"`          // push channel base URL
	Transport      string        `mapstructure:"transport"`       // poll | push
	PollInterval   time.Duration `mapstructure:"poll_interval"`   // base poll interval
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`     // poll/reconnect backoff cap
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // per-request HTTP timeout
	LogLevel       string        `mapstructure:"log_level"`       // debug | info | warn | error
	MetricsAddr    string        `mapstructure:"metrics_addr"`    // empty disables the metrics endpoint
}

// Load reads configuration from the given file path (optional; empty means
// file discovery in the working directory) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("ws_url", "ws://localhost:8080")
	v.SetDefault("transport", TransportPoll)
	v.SetDefault("poll_interval", time.Second)
	v.SetDefault("max_backoff", 30*time.Second)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("courtside")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("courtside")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A config file found by discovery is optional; everything has a
		// default or an env override. Anything else is a real error.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse: %w", err)
	}

	if cfg.Transport != TransportPoll && cfg.Transport != TransportPush {
		return nil, fmt.Errorf("config: unknown transport %q (want %q or %q)",
			cfg.Transport, TransportPoll, TransportPush)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("config: poll_interval must be positive")
	}

	return &cfg, nil
}
