// Package config loads the folio CLI configuration from a YAML file and the
// environment and converts it into a folio.Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oraraka-deko/folio/folio"
	"github.com/oraraka-deko/folio/internal/logger"
)

// ProviderConfig is one backend. APIKey is normally left empty in the file
// and supplied through the environment.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Google    ProviderConfig `yaml:"google"`
}

type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialBackoff string  `yaml:"initial_backoff"`
	MaxBackoff     string  `yaml:"max_backoff"`
	Multiplier     float64 `yaml:"multiplier"`
}

type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheConfig selects the response cache. Type is none, memory or redis.
type CacheConfig struct {
	Type    string      `yaml:"type"`
	TTL     string      `yaml:"ttl"`
	MaxSize int         `yaml:"max_size"`
	Redis   RedisConfig `yaml:"redis"`
}

type Config struct {
	Providers          ProvidersConfig `yaml:"providers"`
	Timeout            string          `yaml:"timeout"`
	Retry              RetryConfig     `yaml:"retry"`
	RequestsPerMinute  int             `yaml:"requests_per_minute"`
	FallbackOnError    bool            `yaml:"fallback_on_error"`
	EnhanceConcurrency int             `yaml:"enhance_concurrency"`
	MaxOutputTokens    int             `yaml:"max_output_tokens"`
	Temperature        *float32        `yaml:"temperature"`
	Cache              CacheConfig     `yaml:"cache"`
	Logger             logger.Config   `yaml:"logger"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Providers: ProvidersConfig{
			OpenAI:    ProviderConfig{Model: folio.DefaultModelOpenAI},
			Anthropic: ProviderConfig{Model: folio.DefaultModelAnthropic},
			Google:    ProviderConfig{Model: folio.DefaultModelGoogle},
		},
		Timeout: folio.DefaultTimeout.String(),
		Retry: RetryConfig{
			MaxAttempts:    folio.DefaultRetryConfig.MaxAttempts,
			InitialBackoff: folio.DefaultRetryConfig.InitialBackoff.String(),
			MaxBackoff:     folio.DefaultRetryConfig.MaxBackoff.String(),
			Multiplier:     folio.DefaultRetryConfig.BackoffMultiplier,
		},
		EnhanceConcurrency: 4,
		MaxOutputTokens:    4096,
		Cache: CacheConfig{
			Type:    "none",
			TTL:     "1h",
			MaxSize: 256,
		},
		Logger: logger.Config{Level: "info", Format: "pretty"},
	}
}

// Load reads path over the defaults (an empty path skips the file), then
// lets the environment override provider keys.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv(folio.CredentialsFromEnv())
	return cfg, nil
}

func (c *Config) applyEnv(env folio.CredentialSet) {
	if env.OpenAI != "" {
		c.Providers.OpenAI.APIKey = env.OpenAI
	}
	if env.Anthropic != "" {
		c.Providers.Anthropic.APIKey = env.Anthropic
	}
	if env.Google != "" {
		c.Providers.Google.APIKey = env.Google
	}
}

// Validate reports every out-of-range value at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(name, v string) {
		if v == "" {
			return
		}
		if d, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		} else if d < 0 && name != "timeout" {
			errs = append(errs, fmt.Errorf("%s: must not be negative", name))
		}
	}
	check("timeout", c.Timeout)
	check("retry.initial_backoff", c.Retry.InitialBackoff)
	check("retry.max_backoff", c.Retry.MaxBackoff)
	check("cache.ttl", c.Cache.TTL)

	if c.Retry.MaxAttempts < 0 || c.Retry.MaxAttempts > 10 {
		errs = append(errs, fmt.Errorf("retry.max_attempts: must be between 0 and 10, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.Multiplier != 0 && c.Retry.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("retry.multiplier: must be at least 1, got %g", c.Retry.Multiplier))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests_per_minute: must not be negative"))
	}
	if c.EnhanceConcurrency < 0 || c.EnhanceConcurrency > 32 {
		errs = append(errs, fmt.Errorf("enhance_concurrency: must be between 0 and 32, got %d", c.EnhanceConcurrency))
	}
	if c.MaxOutputTokens < 0 {
		errs = append(errs, errors.New("max_output_tokens: must not be negative"))
	}
	if t := c.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("temperature: must be between 0 and 2, got %g", *t))
	}
	switch c.Cache.Type {
	case "", "none", "memory":
	case "redis":
		if c.Cache.Redis.Address == "" {
			errs = append(errs, errors.New("cache.redis.address: required when cache.type is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.type: unknown cache %q", c.Cache.Type))
	}
	return errors.Join(errs...)
}

// Credentials returns the configured keys.
func (c *Config) Credentials() folio.CredentialSet {
	return folio.CredentialSet{
		OpenAI:    c.Providers.OpenAI.APIKey,
		Anthropic: c.Providers.Anthropic.APIKey,
		Google:    c.Providers.Google.APIKey,
	}
}

// CacheTTL parses Cache.TTL, defaulting to one hour.
func (c *Config) CacheTTL() time.Duration {
	return duration(c.Cache.TTL, time.Hour)
}

// Folio converts the file configuration into a folio.Config. The caller sets
// Logger and Cache.
func (c *Config) Folio() (folio.Config, error) {
	if err := c.Validate(); err != nil {
		return folio.Config{}, err
	}
	fc := folio.DefaultConfig(c.Credentials())
	fc.Models = folio.ModelSet{
		OpenAI:    c.Providers.OpenAI.Model,
		Anthropic: c.Providers.Anthropic.Model,
		Google:    c.Providers.Google.Model,
	}
	fc.BaseURLs = folio.ModelSet{
		OpenAI:    c.Providers.OpenAI.BaseURL,
		Anthropic: c.Providers.Anthropic.BaseURL,
		Google:    c.Providers.Google.BaseURL,
	}
	fc.Timeout = duration(c.Timeout, folio.DefaultTimeout)
	fc.Retry = folio.RetryConfig{
		MaxAttempts:       c.Retry.MaxAttempts,
		InitialBackoff:    duration(c.Retry.InitialBackoff, folio.DefaultRetryConfig.InitialBackoff),
		MaxBackoff:        duration(c.Retry.MaxBackoff, folio.DefaultRetryConfig.MaxBackoff),
		BackoffMultiplier: c.Retry.Multiplier,
	}
	fc.RequestsPerMinute = c.RequestsPerMinute
	fc.FallbackOnError = c.FallbackOnError
	fc.EnhanceConcurrency = c.EnhanceConcurrency
	fc.MaxOutputTokens = c.MaxOutputTokens
	fc.Temperature = c.Temperature
	return fc, nil
}

func duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
