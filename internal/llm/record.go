package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/taishitsu/internal/store"
)

type recorder struct {
	Provider
	events store.EventRepo
}

// WithRecorder appends one store event per Generate call, successful or
// not. A failing event store never fails the request.
func WithRecorder(p Provider, events store.EventRepo) Provider {
	return &recorder{Provider: p, events: events}
}

func (r *recorder) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.Provider.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    r.Vendor(),
		Model:       r.Model(),
		Purpose:     req.Purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if ev.Purpose == "" {
		ev.Purpose = "unknown"
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	if rerr := r.events.AppendLLMRequest(ctx, ev); rerr != nil {
		slog.WarnContext(ctx, "record LLM request", "purpose", ev.Purpose, "error", rerr)
	}
	return resp, err
}

// transcript renders the request for `taishitsu llm view`.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString("[system]\n" + req.System + "\n\n")
	}
	b.WriteString("[prompt]\n" + req.Prompt + "\n")
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			b.WriteString("\n[schema " + req.Schema.Name + "]\n" + string(def) + "\n")
		}
	}
	return b.String()
}
