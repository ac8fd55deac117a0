package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/taishitsu/internal/store"
)

// Vendors accepted in Config.Provider.
const (
	VendorAnthropic  = "anthropic"
	VendorOpenAI     = "openai"
	VendorGemini     = "gemini"
	VendorOpenRouter = "openrouter"
	VendorMock       = "mock"
)

// ErrNotConfigured means no provider was selected and no vendor API key
// was found in the environment.
var ErrNotConfigured = errors.New("no LLM provider configured")

// defaultModels are small, cheap models; narration is a few sentences.
var defaultModels = map[string]string{
	VendorAnthropic:  "claude-haiku-4-5",
	VendorOpenAI:     "gpt-4o-mini",
	VendorGemini:     "gemini-2.0-flash",
	VendorOpenRouter: "google/gemini-2.0-flash-001",
	VendorMock:       "mock",
}

// vendorKeyEnv is the conventional API key variable of each vendor, tried
// in this order when no provider is selected.
var vendorKeyEnv = []struct{ vendor, env string }{
	{VendorAnthropic, "ANTHROPIC_API_KEY"},
	{VendorOpenAI, "OPENAI_API_KEY"},
	{VendorGemini, "GEMINI_API_KEY"},
	{VendorOpenRouter, "OPENROUTER_API_KEY"},
}

// Config selects and configures one provider.
type Config struct {
	Provider string
	Model    string
	// BaseURL overrides the vendor endpoint, e.g. for a proxy.
	BaseURL string
	APIKey  string
	Retry   Backoff
}

// Resolve fills gaps in cfg from the vendor key variables read through
// getenv. An unset provider becomes the first vendor whose key is present.
// An unset model becomes the vendor default.
func Resolve(cfg Config, getenv func(string) string) (Config, error) {
	if cfg.Provider == "" {
		for _, v := range vendorKeyEnv {
			if key := getenv(v.env); key != "" {
				cfg.Provider = v.vendor
				if cfg.APIKey == "" {
					cfg.APIKey = key
				}
				break
			}
		}
		if cfg.Provider == "" {
			return cfg, ErrNotConfigured
		}
	}

	if _, ok := defaultModels[cfg.Provider]; !ok {
		return cfg, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if cfg.APIKey == "" && cfg.Provider != VendorMock {
		for _, v := range vendorKeyEnv {
			if v.vendor == cfg.Provider {
				cfg.APIKey = getenv(v.env)
			}
		}
		if cfg.APIKey == "" {
			return cfg, fmt.Errorf("%s provider selected but no API key set", cfg.Provider)
		}
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = DefaultBackoff()
	}
	return cfg, nil
}

// New builds the provider cfg names, wrapped so every request is recorded
// in events (when non-nil) and transient failures are retried.
func New(ctx context.Context, cfg Config, events store.EventRepo) (Provider, error) {
	var p Provider
	switch cfg.Provider {
	case VendorAnthropic:
		p = newAnthropic(cfg)
	case VendorOpenAI, VendorOpenRouter:
		p = newOpenAI(cfg)
	case VendorGemini:
		g, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p = g
	case VendorMock:
		p = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	// Recording sits under retry so each attempt is its own event.
	if events != nil {
		p = WithRecorder(p, events)
	}
	return WithRetry(p, cfg.Retry), nil
}

// DefaultBackoff suits an interactive caller: three attempts within a few
// seconds.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Base: 500 * time.Millisecond, Cap: 4 * time.Second}
}
