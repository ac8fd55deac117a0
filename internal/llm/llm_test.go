package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adviceSchema = MustSchema("test-advice", "advice", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{"type": "string"},
		"tips":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
	},
	"required":             []any{"summary", "tips"},
	"additionalProperties": false,
})

const goodAdvice = `{"summary":"Rest more.","tips":["Sleep early"]}`

func adviceRequest() Request {
	return Request{
		Purpose:   "advice",
		System:    "You write short wellbeing advice.",
		Prompt:    "Constitution: qi-deficiency.",
		Schema:    adviceSchema,
		MaxTokens: 256,
	}
}

// vendorServer answers every request with status and body, and keeps the
// last request body for inspection.
func vendorServer(t *testing.T, status int, header http.Header, body any) (url string, seen func() []byte) {
	t.Helper()
	var (
		mu   sync.Mutex
		last []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		last = data
		mu.Unlock()
		for k, vs := range header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL, func() []byte {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func TestAnthropicGenerate(t *testing.T) {
	url, seen := vendorServer(t, http.StatusOK, nil, anthropicMessage(goodAdvice, "end_turn"))
	p := newAnthropic(Config{APIKey: "k", Model: "claude-haiku-4-5", BaseURL: url})

	resp, err := p.Generate(context.Background(), adviceRequest())
	require.NoError(t, err)
	assert.JSONEq(t, goodAdvice, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30}, resp.Usage)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(seen(), &sent))
	assert.Equal(t, "claude-haiku-4-5", sent["model"])
	assert.Contains(t, sent, "output_config")
}

func TestAnthropicErrors(t *testing.T) {
	errBody := map[string]any{"type": "error", "error": map[string]any{"type": "x", "message": "nope"}}
	tests := []struct {
		name   string
		status int
		header http.Header
		body   any
		kind   Kind
		after  time.Duration
	}{
		{"rate limited", http.StatusTooManyRequests, http.Header{"Retry-After": {"7"}}, errBody, KindRateLimited, 7 * time.Second},
		{"server error", http.StatusInternalServerError, nil, errBody, KindUnavailable, 0},
		{"bad key", http.StatusUnauthorized, nil, errBody, KindRejected, 0},
		{"truncated", http.StatusOK, nil, anthropicMessage(`{"summary":"Rest`, "max_tokens"), KindTruncated, 0},
		{"off schema", http.StatusOK, nil, anthropicMessage(`{"summary":"Rest"}`, "end_turn"), KindInvalidOutput, 0},
		{"not json", http.StatusOK, nil, anthropicMessage("Rest more.", "end_turn"), KindInvalidOutput, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, _ := vendorServer(t, tt.status, tt.header, tt.body)
			p := newAnthropic(Config{APIKey: "k", Model: "claude-haiku-4-5", BaseURL: url})

			_, err := p.Generate(context.Background(), adviceRequest())
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, VendorAnthropic, e.Vendor)
			assert.Equal(t, tt.after, e.RetryAfter)
		})
	}
}

func openaiCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIGenerate(t *testing.T) {
	url, seen := vendorServer(t, http.StatusOK, nil, openaiCompletion(goodAdvice, "stop"))
	p := newOpenAI(Config{Provider: VendorOpenAI, APIKey: "k", Model: "gpt-4o-mini", BaseURL: url})

	resp, err := p.Generate(context.Background(), adviceRequest())
	require.NoError(t, err)
	assert.Equal(t, 65, resp.Usage.Total())
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)

	var sent struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name string `json:"name"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	require.NoError(t, json.Unmarshal(seen(), &sent))
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, "system", sent.Messages[0].Role)
	assert.Equal(t, "Constitution: qi-deficiency.", sent.Messages[1].Content)
	assert.Equal(t, "json_schema", sent.ResponseFormat.Type)
	assert.Equal(t, "test-advice", sent.ResponseFormat.JSONSchema.Name)
}

func TestOpenAIErrors(t *testing.T) {
	errBody := map[string]any{"error": map[string]any{"message": "nope", "type": "x"}}

	url, _ := vendorServer(t, http.StatusTooManyRequests, nil, errBody)
	_, err := newOpenAI(Config{Provider: VendorOpenRouter, APIKey: "k", Model: "m", BaseURL: url}).
		Generate(context.Background(), adviceRequest())
	assert.True(t, IsKind(err, KindRateLimited), "%v", err)
	assert.True(t, strings.HasPrefix(err.Error(), "openrouter: "), err.Error())

	url, _ = vendorServer(t, http.StatusBadRequest, nil, errBody)
	_, err = newOpenAI(Config{Provider: VendorOpenAI, APIKey: "k", Model: "m", BaseURL: url}).
		Generate(context.Background(), adviceRequest())
	assert.True(t, IsKind(err, KindRejected), "%v", err)

	url, _ = vendorServer(t, http.StatusOK, nil, openaiCompletion(`{"summary":`, "length"))
	_, err = newOpenAI(Config{Provider: VendorOpenAI, APIKey: "k", Model: "m", BaseURL: url}).
		Generate(context.Background(), adviceRequest())
	assert.True(t, IsKind(err, KindTruncated), "%v", err)
}

func TestOpenRouterSharesOpenAIClient(t *testing.T) {
	p := newOpenAI(Config{Provider: VendorOpenRouter, APIKey: "k", Model: "m"})
	assert.Equal(t, VendorOpenRouter, p.Vendor())
	assert.Equal(t, "m", p.Model())
}

func TestGeminiGenerate(t *testing.T) {
	url, _ := vendorServer(t, http.StatusOK, nil, map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": goodAdvice}}},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 11, "candidatesTokenCount": 7, "totalTokenCount": 18},
		"modelVersion":  "gemini-2.0-flash-001",
	})
	p, err := newGemini(context.Background(), Config{APIKey: "k", Model: "gemini-2.0-flash", BaseURL: url})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), adviceRequest())
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 11, OutputTokens: 7}, resp.Usage)
	assert.Equal(t, "gemini-2.0-flash-001", resp.Model)
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(adviceSchema.Definition)
	require.Contains(t, s.Properties, "tips")
	assert.Equal(t, []string{"summary", "tips"}, s.Required)
	assert.NotNil(t, s.Properties["tips"].Items)
	assert.Equal(t, geminiTypes["array"], s.Properties["tips"].Type)

	s = geminiSchema(map[string]any{"type": "string", "enum": []string{"a", "b"}})
	assert.Equal(t, []string{"a", "b"}, s.Enum)
}

func TestNewSchemaRejectsBadDefinition(t *testing.T) {
	_, err := NewSchema("bad", "", map[string]any{"type": 12})
	assert.Error(t, err)

	unbuilt := &Schema{Name: "raw"}
	assert.True(t, IsKind(unbuilt.check("x", []byte(`{}`)), KindInvalidOutput))

	var none *Schema
	assert.NoError(t, none.check("x", []byte("plain text")))
}

func TestErrorTemporary(t *testing.T) {
	for kind, want := range map[Kind]bool{
		KindUnavailable:   true,
		KindRateLimited:   true,
		KindInvalidOutput: true,
		KindRejected:      false,
		KindTruncated:     false,
	} {
		e := &Error{Kind: kind, Vendor: "v", Err: errors.New("boom")}
		assert.Equal(t, want, e.Temporary(), kind.String())
		assert.Equal(t, "v: "+kind.String()+": boom", e.Error())
	}
}
