// Package advice turns a diagnosis into guidance text: the static catalog
// copy, optionally personalised by an LLM.
package advice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/llm"
)

// Purpose labels narration requests in the LLM event log.
const Purpose = "advice"

// Source labels where a narration came from.
const (
	SourceStatic = "static"
	SourceLLM    = "llm"
	SourceCache  = "cache"
)

// Input is what the narrator knows about one diagnosis.
type Input struct {
	Category   catalog.Category
	Name       string
	Score      float64
	Confidence float64
	Age        string
	Gender     string
	Concern    string
	Static     catalog.Advice
}

// Narration is the advice text shown alongside a result.
type Narration struct {
	Summary string   `json:"summary"`
	Tips    []string `json:"tips"`
	Source  string   `json:"source"`
}

// Service renders advice. Without a provider it only serves static copy.
type Service struct {
	cat      *catalog.Catalog
	provider llm.Provider
	cfg      Config
	cache    Cache
	limiter  *rate.Limiter
}

// NewService creates an advice service. provider may be nil.
func NewService(cat *catalog.Catalog, provider llm.Provider, cfg Config) *Service {
	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryCache(cfg.CacheTTL)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Service{
		cat:      cat,
		provider: provider,
		cfg:      cfg,
		cache:    cache,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Personalised reports whether an LLM provider is configured.
func (s *Service) Personalised() bool { return s.provider != nil }

// Input assembles the narrator input for res.
func (s *Service) Input(res *engine.Result, age, gender, concern string) Input {
	static, _ := s.cat.Advice(res.Category)
	return Input{
		Category:   res.Category,
		Name:       s.cat.Name(res.Category),
		Score:      res.Score,
		Confidence: res.Confidence,
		Age:        age,
		Gender:     gender,
		Concern:    strings.TrimSpace(concern),
		Static:     static,
	}
}

// Static returns the catalog advice as a narration.
func (s *Service) Static(in Input) *Narration {
	return &Narration{
		Summary: in.Static.Description,
		Tips:    append([]string(nil), in.Static.DailyTips...),
		Source:  SourceStatic,
	}
}

// Narrate returns personalised advice for in. Any provider failure, including
// throttling and timeouts, degrades to the static copy; the error is logged,
// never returned.
func (s *Service) Narrate(ctx context.Context, in Input) *Narration {
	if s.provider == nil {
		return s.Static(in)
	}

	key := cacheKey(in)
	if n, ok := s.cache.Get(ctx, key); ok {
		n.Source = SourceCache
		return n
	}

	n, err := s.generate(ctx, in)
	if err != nil {
		slog.WarnContext(ctx, "advice narration failed, using static advice",
			"category", in.Category, "error", err)
		return s.Static(in)
	}
	s.cache.Set(ctx, key, n)
	return n
}

// Reset drops every cached narration.
func (s *Service) Reset(ctx context.Context) error { return s.cache.Flush(ctx) }

func (s *Service) generate(ctx context.Context, in Input) (*Narration, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req := llm.Request{
		Purpose:     Purpose,
		System:      narrationSystemPrompt,
		Prompt:      buildNarrationMessage(in),
		Schema:      NarrationSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("advice generation: %w", err)
	}

	var out Narration
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse advice response: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("advice response has an empty summary")
	}
	out.Source = SourceLLM
	return &out, nil
}

// cacheKey identifies narrations that would be generated from the same
// prompt. Confidence is left out so jitter does not defeat the cache.
func cacheKey(in Input) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%.0f",
		in.Category, in.Age, in.Gender, strings.ToLower(in.Concern), in.Score)
	return hex.EncodeToString(h.Sum(nil))
}
