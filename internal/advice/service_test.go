package advice

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/llm"
)

func testResult(cat catalog.Category) *engine.Result {
	return &engine.Result{Category: cat, Score: 82, Confidence: 77}
}

func TestStaticWithoutProvider(t *testing.T) {
	s := NewService(catalog.Default(), nil, DefaultConfig())
	assert.False(t, s.Personalised())

	in := s.Input(testResult("qi-stagnation"), "30-39", "female", "  work stress ")
	assert.Equal(t, "Qi stagnation", in.Name)
	assert.Equal(t, "work stress", in.Concern)

	n := s.Narrate(context.Background(), in)
	assert.Equal(t, SourceStatic, n.Source)
	assert.Equal(t, in.Static.Description, n.Summary)
	assert.Equal(t, in.Static.DailyTips, n.Tips)
}

func TestNarrateUsesProviderAndCaches(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"summary":"Ease the tension.","tips":["Walk after lunch","Breathe slowly"]}`),
	})
	s := NewService(catalog.Default(), mock, DefaultConfig())
	in := s.Input(testResult("qi-stagnation"), "", "", "stress at work")

	first := s.Narrate(context.Background(), in)
	assert.Equal(t, SourceLLM, first.Source)
	assert.Equal(t, "Ease the tension.", first.Summary)
	assert.Len(t, first.Tips, 2)

	second := s.Narrate(context.Background(), in)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, SourceLLM, first.Source, "cached copy must not alias the first result")

	req := mock.Requests()[0]
	assert.Same(t, NarrationSchema, req.Schema)
	assert.Equal(t, Purpose, req.Purpose)
	assert.Contains(t, req.Prompt, "Qi stagnation")
	assert.Contains(t, req.Prompt, `"stress at work"`)
}

func TestNarrateFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"provider error", llm.MockResponse{Err: &llm.Error{Kind: llm.KindUnavailable, Vendor: "mock"}}},
		{"refused", llm.MockResponse{Err: &llm.Error{Kind: llm.KindRejected, Vendor: "mock"}}},
		{"bad json", llm.MockResponse{Content: json.RawMessage(`not json`)}},
		{"empty summary", llm.MockResponse{Content: json.RawMessage(`{"summary":" ","tips":[]}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(catalog.Default(), llm.NewMockProvider(tt.resp), DefaultConfig())
			in := s.Input(testResult("blood-stasis"), "", "", "")

			n := s.Narrate(context.Background(), in)
			assert.Equal(t, SourceStatic, n.Source)
			assert.Equal(t, in.Static.Description, n.Summary)
		})
	}
}

func TestNarrateFailureIsNotCached(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.Error{Kind: llm.KindRateLimited, Vendor: "mock"}},
		llm.MockResponse{Content: json.RawMessage(`{"summary":"Now it works.","tips":["a"]}`)},
	)
	s := NewService(catalog.Default(), mock, DefaultConfig())
	in := s.Input(testResult("balanced"), "", "", "")

	assert.Equal(t, SourceStatic, s.Narrate(context.Background(), in).Source)
	assert.Equal(t, SourceLLM, s.Narrate(context.Background(), in).Source)
}

func TestNarrateRespectsCancelledContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RatePerSecond = 0.001
	cfg.Burst = 1
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"summary":"one","tips":["a"]}`)},
		llm.MockResponse{Content: json.RawMessage(`{"summary":"two","tips":["b"]}`)},
	)
	s := NewService(catalog.Default(), mock, cfg)

	first := s.Input(testResult("qi-deficiency"), "", "", "tired")
	require.Equal(t, SourceLLM, s.Narrate(context.Background(), first).Source)

	// The burst is spent, so the limiter cannot admit a second call before
	// the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	second := s.Input(testResult("qi-deficiency"), "", "", "exhausted")
	assert.Equal(t, SourceStatic, s.Narrate(ctx, second).Source)
	assert.Equal(t, 1, mock.CallCount())
}

func TestCacheKeyIgnoresConfidence(t *testing.T) {
	a := Input{Category: "qi-deficiency", Score: 80, Confidence: 70, Concern: "Tired"}
	b := a
	b.Confidence = 72
	b.Concern = "tired"
	assert.Equal(t, cacheKey(a), cacheKey(b))

	b.Category = "balanced"
	assert.NotEqual(t, cacheKey(a), cacheKey(b))
}

func TestBuildNarrationMessage(t *testing.T) {
	s := NewService(catalog.Default(), nil, DefaultConfig())
	msg := buildNarrationMessage(s.Input(testResult("fluid-retention"), "40-49", "male", ""))
	assert.Contains(t, msg, "Constitution type: Fluid retention")
	assert.Contains(t, msg, "Age band: 40-49")
	assert.Contains(t, msg, "None given")
	assert.True(t, strings.HasSuffix(msg, "No markdown."))
}
