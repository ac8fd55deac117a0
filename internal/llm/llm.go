// Package llm sends single-turn, schema-constrained prompts to a hosted
// model and returns the validated JSON. Advice narration is its caller.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured completion per call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Vendor names the backing API, e.g. "anthropic".
	Vendor() string

	// Model is the model requests are sent to.
	Model() string
}

// Request is a single-turn prompt.
type Request struct {
	// Purpose labels the request in the event log, e.g. "advice".
	Purpose string

	System string
	Prompt string

	// Schema constrains the output. When nil, Content is the raw text.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Response is the model output.
type Response struct {
	// Content is the JSON output, already checked against the request schema.
	Content json.RawMessage
	Usage   Usage
	// Model is the model that served the request, which may be a dated
	// snapshot of the requested one.
	Model string
}

// Usage is token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// finish checks content against the request schema and assembles the
// response. Every vendor funnels its output through here.
func finish(vendor string, req Request, content []byte, usage Usage, model string, truncated bool) (*Response, error) {
	if truncated {
		return nil, &Error{Kind: KindTruncated, Vendor: vendor, Content: content}
	}
	if err := req.Schema.check(vendor, content); err != nil {
		return nil, err
	}
	return &Response{Content: json.RawMessage(content), Usage: usage, Model: model}, nil
}
