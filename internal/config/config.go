// Package config loads taishitsu settings from flags, TAISHITSU_* environment
// variables, an optional YAML file and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/taishitsu/internal/advice"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/llm"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "TAISHITSU"

// Config is the resolved application configuration.
type Config struct {
	// DB is the SQLite database path. Empty means the XDG default.
	DB string `mapstructure:"db" yaml:"db"`
	// Catalog is an optional catalog file replacing the embedded one.
	Catalog string `mapstructure:"catalog" yaml:"catalog"`
	// CSV is the file every completed diagnosis is appended to. Empty disables it.
	CSV string `mapstructure:"csv" yaml:"csv"`

	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
	Serve  ServeConfig  `mapstructure:"serve" yaml:"serve"`
	Advice AdviceConfig `mapstructure:"advice" yaml:"advice"`
	Batch  BatchConfig  `mapstructure:"batch" yaml:"batch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type EngineConfig struct {
	// Jitter is the magnitude of the symmetric confidence perturbation.
	Jitter float64 `mapstructure:"jitter" yaml:"jitter"`
	// Seed makes jitter reproducible when non-zero.
	Seed            uint64  `mapstructure:"seed" yaml:"seed"`
	ConfidenceLower float64 `mapstructure:"confidence_lower" yaml:"confidence_lower"`
	ConfidenceUpper float64 `mapstructure:"confidence_upper" yaml:"confidence_upper"`
}

type ServeConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type AdviceConfig struct {
	// LLM enables personalised advice when a provider is configured.
	LLM      bool          `mapstructure:"llm" yaml:"llm"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Rate     float64       `mapstructure:"rate" yaml:"rate"`
	Burst    int           `mapstructure:"burst" yaml:"burst"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// RedisURL points narration caching at a shared Redis instead of memory.
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`

	// Provider is anthropic, openai, gemini, openrouter or mock. Empty means
	// the first vendor whose *_API_KEY variable is set.
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	// APIKey is normally left to TAISHITSU_ADVICE_API_KEY or the vendor's
	// own variable, and is never written back out.
	APIKey   string `mapstructure:"api_key" yaml:"-"`
	Attempts int    `mapstructure:"attempts" yaml:"attempts"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	ad := advice.DefaultConfig()
	defaults := map[string]any{
		"db":                      "",
		"catalog":                 "",
		"csv":                     "",
		"log.level":               "info",
		"log.format":              "text",
		"engine.jitter":           engine.DefaultJitterSize,
		"engine.seed":             0,
		"engine.confidence_lower": engine.DefaultLower,
		"engine.confidence_upper": engine.DefaultUpper,
		"serve.addr":              "127.0.0.1:8080",
		"serve.read_timeout":      10 * time.Second,
		"serve.write_timeout":     30 * time.Second,
		"advice.llm":              true,
		"advice.cache_ttl":        ad.CacheTTL,
		"advice.rate":             ad.RatePerSecond,
		"advice.burst":            ad.Burst,
		"advice.timeout":          ad.Timeout,
		"advice.redis_url":        "",
		"advice.provider":         "",
		"advice.model":            "",
		"advice.base_url":         "",
		"advice.api_key":          "",
		"advice.attempts":         llm.DefaultBackoff().Attempts,
		"batch.workers":           4,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// DefaultPath returns $XDG_CONFIG_HOME/taishitsu/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "taishitsu", "config.yaml"), nil
}

// Load reads the config file into v and decodes the result. An explicit
// file must exist; the default location is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else if p, err := DefaultPath(); err == nil {
		v.SetConfigFile(p)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", p, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	e := c.Engine
	if e.Jitter < 0 {
		return fmt.Errorf("engine.jitter must not be negative, got %v", e.Jitter)
	}
	if e.ConfidenceLower > e.ConfidenceUpper {
		return fmt.Errorf("engine.confidence_lower %v exceeds confidence_upper %v", e.ConfidenceLower, e.ConfidenceUpper)
	}
	if c.Advice.Attempts < 1 {
		return fmt.Errorf("advice.attempts must be at least 1, got %d", c.Advice.Attempts)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return nil
}

// EngineOptions translates the engine section into engine options.
func (c *Config) EngineOptions() []engine.Option {
	e := c.Engine
	j := engine.UniformJitter(e.Jitter)
	switch {
	case e.Jitter == 0:
		j = engine.NoJitter
	case e.Seed != 0:
		j = engine.NewSeededJitter(e.Seed, e.Jitter)
	}
	return []engine.Option{
		engine.WithJitter(j),
		engine.WithConfidenceBounds(e.ConfidenceLower, e.ConfidenceUpper),
	}
}

// NarratorConfig translates the advice section into narrator settings.
func (c *Config) NarratorConfig() advice.Config {
	cfg := advice.DefaultConfig()
	cfg.CacheTTL = c.Advice.CacheTTL
	cfg.RatePerSecond = c.Advice.Rate
	cfg.Burst = c.Advice.Burst
	cfg.Timeout = c.Advice.Timeout
	return cfg
}

// ProviderConfig translates the advice section into an LLM provider
// selection, before vendor key discovery.
func (c *Config) ProviderConfig() llm.Config {
	retry := llm.DefaultBackoff()
	retry.Attempts = c.Advice.Attempts
	return llm.Config{
		Provider: c.Advice.Provider,
		Model:    c.Advice.Model,
		BaseURL:  c.Advice.BaseURL,
		APIKey:   c.Advice.APIKey,
		Retry:    retry,
	}
}
