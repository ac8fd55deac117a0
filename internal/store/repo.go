package store

import (
	"context"
	"time"
)

// QueryOpts configures history queries with filtering and pagination.
type QueryOpts struct {
	Limit    int       // max results (0 = unlimited)
	Category string    // exact category match, empty for all
	From     time.Time // timestamp >= From
	To       time.Time // timestamp <= To
}

// Profile is the optional respondent metadata stored next to a result.
type Profile struct {
	Age    string `json:"age"`
	Gender string `json:"gender"`
}

// Record is one persisted diagnosis.
type Record struct {
	ID              string             `json:"id"`
	Sequence        int64              `json:"sequence"`
	CreatedAt       time.Time          `json:"created_at"`
	Profile         Profile            `json:"profile"`
	Category        string             `json:"category"`
	Score           float64            `json:"score"`
	Confidence      float64            `json:"confidence"`
	Fallback        bool               `json:"fallback"`
	CatalogVersion  string             `json:"catalog_version"`
	Responses       map[string]string  `json:"responses"`
	FreeTextConcern string             `json:"free_text_concern,omitempty"`
	AllScores       map[string]float64 `json:"all_scores"`
}

// Count is one bucket of a grouped count.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Stats summarises stored records.
type Stats struct {
	Total      int     `json:"total"`
	ByCategory []Count `json:"by_category"`
	ByAge      []Count `json:"by_age"`
	ByGender   []Count `json:"by_gender"`
}

// RecordRepo persists diagnosis records.
type RecordRepo interface {
	// Save stores rec. Sequence is assigned on save.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// History returns records newest first.
	History(ctx context.Context, opts QueryOpts) ([]*Record, error)

	// Stats counts records overall and grouped by category, age and gender.
	Stats(ctx context.Context) (*Stats, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]*LLMEvent, error)

	// GetLLMEvent returns one event, or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates usage grouped by model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
