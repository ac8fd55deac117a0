package advice

import "time"

// Config holds narration settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// CacheTTL is how long a narration is reused for the same category and
	// concern. Zero disables expiry.
	CacheTTL time.Duration

	// RatePerSecond and Burst throttle calls to the provider.
	RatePerSecond float64
	Burst         int

	// Timeout bounds a single narration, retries included.
	Timeout time.Duration

	// Cache overrides the in-memory narration cache, e.g. with a shared
	// Redis cache.
	Cache Cache
}

// DefaultConfig returns sensible defaults for advice narration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     400,
		Temperature:   0.4,
		CacheTTL:      30 * time.Minute,
		RatePerSecond: 0.5,
		Burst:         2,
		Timeout:       30 * time.Second,
	}
}
