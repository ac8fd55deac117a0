package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/llm"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, engine.DefaultJitterSize, cfg.Engine.Jitter)
	assert.Equal(t, engine.DefaultLower, cfg.Engine.ConfidenceLower)
	assert.Equal(t, engine.DefaultUpper, cfg.Engine.ConfidenceUpper)
	assert.Equal(t, "127.0.0.1:8080", cfg.Serve.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Advice.CacheTTL)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.True(t, cfg.Advice.LLM)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /tmp/from-file.db
engine:
  jitter: 0
  confidence_lower: 60
serve:
  addr: ":9000"
advice:
  cache_ttl: 5m
`), 0o644))

	t.Setenv("TAISHITSU_SERVE_ADDR", ":9100")
	t.Setenv("TAISHITSU_ENGINE_SEED", "42")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DB)
	assert.Equal(t, 0.0, cfg.Engine.Jitter)
	assert.Equal(t, 60.0, cfg.Engine.ConfidenceLower)
	assert.Equal(t, uint64(42), cfg.Engine.Seed)
	assert.Equal(t, ":9100", cfg.Serve.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Advice.CacheTTL)
}

func TestLoadDefaultLocation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "taishitsu"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taishitsu", "config.yaml"), []byte("csv: results.csv\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "results.csv", cfg.CSV)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"negative jitter", map[string]string{"TAISHITSU_ENGINE_JITTER": "-1"}},
		{"inverted bounds", map[string]string{"TAISHITSU_ENGINE_CONFIDENCE_LOWER": "90", "TAISHITSU_ENGINE_CONFIDENCE_UPPER": "70"}},
		{"no workers", map[string]string{"TAISHITSU_BATCH_WORKERS": "0"}},
		{"no attempts", map[string]string{"TAISHITSU_ADVICE_ATTEMPTS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(New(), "")
			assert.Error(t, err)
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{Jitter: 0, ConfidenceLower: 60, ConfidenceUpper: 70}}
	e := engine.New(catalog.Default(), cfg.EngineOptions()...)

	lower, upper := e.Bounds()
	assert.Equal(t, 60.0, lower)
	assert.Equal(t, 70.0, upper)
	assert.Equal(t, 70.0, e.DiagnoseMap(nil).Confidence)

	seeded := &Config{Engine: EngineConfig{Jitter: 3, Seed: 9, ConfidenceLower: 0, ConfidenceUpper: 100}}
	a := engine.New(catalog.Default(), seeded.EngineOptions()...).DiagnoseMap(nil)
	b := engine.New(catalog.Default(), seeded.EngineOptions()...).DiagnoseMap(nil)
	assert.Equal(t, a.Confidence, b.Confidence)
}

func TestNarratorConfig(t *testing.T) {
	cfg := &Config{Advice: AdviceConfig{CacheTTL: time.Minute, Rate: 2, Burst: 3, Timeout: time.Second}}
	nc := cfg.NarratorConfig()
	assert.Equal(t, time.Minute, nc.CacheTTL)
	assert.Equal(t, 2.0, nc.RatePerSecond)
	assert.Equal(t, 3, nc.Burst)
	assert.Equal(t, time.Second, nc.Timeout)
}

func TestProviderConfig(t *testing.T) {
	isolate(t)
	t.Setenv("TAISHITSU_ADVICE_API_KEY", "from-env")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	pc := cfg.ProviderConfig()
	assert.Equal(t, "", pc.Provider)
	assert.Equal(t, "from-env", pc.APIKey)
	assert.Equal(t, llm.DefaultBackoff(), pc.Retry)

	cfg.Advice.Provider = llm.VendorMock
	cfg.Advice.Model = "scripted"
	cfg.Advice.Attempts = 1
	pc = cfg.ProviderConfig()
	assert.Equal(t, llm.VendorMock, pc.Provider)
	assert.Equal(t, "scripted", pc.Model)
	assert.Equal(t, 1, pc.Retry.Attempts)
	assert.Equal(t, llm.DefaultBackoff().Cap, pc.Retry.Cap)

	cfg.Advice.Attempts = 0
	assert.ErrorContains(t, cfg.Validate(), "advice.attempts")
}
