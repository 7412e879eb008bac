// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package httprpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by LoadConfig,
// e.g. RPC_URL and RPC_TIMEOUT.
const EnvPrefix = "RPC"

// Config describes a client in a form that can be loaded from a file or
// the environment.
type Config struct {
	// URL is the base URL the router is mounted at. Required.
	URL string `yaml:"url" mapstructure:"url"`

	// Transport names a registered transport. Defaults to "http".
	Transport string `yaml:"transport" mapstructure:"transport"`

	// Endpoint is the upstream of a bridge transport.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Timeout bounds each call. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	DisableKeepAlives bool `yaml:"disable_keep_alives" mapstructure:"disable_keep_alives"`

	// Headers are sent with every call.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Transport == "" {
		c.Transport = DefaultTransport
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("httprpc: timeout must be positive")
	}
	if !HasTransport(c.Transport) {
		return fmt.Errorf("%w: %q (available: %s)", ErrUnknownTransport, c.Transport,
			strings.Join(AvailableTransports(), ", "))
	}
	return nil
}

// TransportConfig returns the part of c used to build the transport.
func (c *Config) TransportConfig() TransportConfig {
	return TransportConfig{
		Endpoint:          c.Endpoint,
		Timeout:           c.Timeout,
		DisableKeepAlives: c.DisableKeepAlives,
	}
}

// NewFromConfig builds the configured transport and a client on top of it.
// opts are applied after the configured headers, so WithHeaders in opts
// replaces them. A logger passed with WithLogger is shared with the
// transport.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	tc := cfg.TransportConfig()
	tc.Logger = o.logger

	transport, err := NewTransport(cfg.Transport, tc)
	if err != nil {
		return nil, err
	}

	all := make([]Option, 0, len(opts)+1)
	if len(cfg.Headers) > 0 {
		all = append(all, WithStaticHeaders(cfg.Headers))
	}
	all = append(all, opts...)
	return New(cfg.URL, transport, all...)
}

// LoaderConfig holds optional file overrides for LoadConfig.
type LoaderConfig struct {
	ConfigFile string // YAML config file (optional)
	EnvFile    string // .env file loaded into the environment first (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig reads a Config from an optional YAML file, overridden by
// RPC_* environment variables. Defaults are applied but the result is not
// validated; NewFromConfig does that.
func LoadConfig(opts ...LoaderOption) (Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", lc.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"url", "transport", "endpoint", "timeout", "disable_keep_alives"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", lc.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
