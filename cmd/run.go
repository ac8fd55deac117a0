package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/advice"
	"github.com/abhisek/taishitsu/internal/app"
	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/llm"
	"github.com/abhisek/taishitsu/internal/store"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	eng, err := newEngine()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	return app.Run(app.Options{
		Engine:  eng,
		Records: st.RecordRepo(),
		Advice:  newAdvice(ctx, eng.Catalog(), st.EventRepo()),
		CSVPath: cfg.CSV,
	})
}

// loadCatalog returns the configured catalog file, or the built-in one.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}

func newEngine() (*engine.Engine, error) {
	c, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	return engine.New(c, cfg.EngineOptions()...), nil
}

func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newAdvice builds the advice service. Without a configured LLM provider it
// serves the static catalog copy.
func newAdvice(ctx context.Context, cat *catalog.Catalog, events store.EventRepo) *advice.Service {
	nc := narratorConfig()
	if !cfg.Advice.LLM {
		return advice.NewService(cat, nil, nc)
	}
	pc, err := llm.Resolve(cfg.ProviderConfig(), os.Getenv)
	if err != nil {
		slog.Info("LLM provider not configured, advice will not be personalised", "reason", err)
		return advice.NewService(cat, nil, nc)
	}
	provider, err := llm.New(ctx, pc, events)
	if err != nil {
		slog.Warn("LLM provider failed to start, advice will not be personalised", "provider", pc.Provider, "error", err)
		return advice.NewService(cat, nil, nc)
	}
	slog.Debug("LLM advice enabled", "provider", provider.Vendor(), "model", provider.Model())
	return advice.NewService(cat, provider, nc)
}

// narratorConfig applies the configured narration cache. A Redis URL that
// does not parse falls back to the in-memory cache.
func narratorConfig() advice.Config {
	nc := cfg.NarratorConfig()
	if cfg.Advice.RedisURL == "" {
		return nc
	}
	opt, err := redis.ParseURL(cfg.Advice.RedisURL)
	if err != nil {
		slog.Warn("ignoring advice.redis_url", "error", err)
		return nc
	}
	nc.Cache = advice.NewRedisCache(redis.NewClient(opt), nc.CacheTTL)
	return nc
}
