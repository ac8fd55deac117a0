package engine

import (
	"time"

	"github.com/abhisek/taishitsu/internal/catalog"
)

// CategoryScore is the evidence-normalized score of one category.
// MaxScore only counts indicators that were actually evaluated.
type CategoryScore struct {
	Category   catalog.Category `json:"category"`
	RawScore   int              `json:"raw_score"`
	MaxScore   int              `json:"max_score"`
	Normalized float64          `json:"normalized_score"`
}

// ScoreLine is a CategoryScore with the free-text bonus applied.
type ScoreLine struct {
	CategoryScore
	Bonus float64 `json:"bonus"`
	Final float64 `json:"final_score"`
}

// Result is the outcome of one diagnosis.
type Result struct {
	ID         string           `json:"id"`
	Category   catalog.Category `json:"category"`
	Score      float64          `json:"score"`
	Confidence float64          `json:"confidence"`

	// AllScores holds the final score of every catalog category. Free-text
	// bonuses are added after normalization, so values may exceed 100.
	AllScores map[catalog.Category]float64 `json:"all_scores"`

	// Breakdown lists every category in catalog order.
	Breakdown []ScoreLine `json:"breakdown"`

	// Fallback is set when there was no evidence and the catalog default
	// category was reported.
	Fallback       bool      `json:"fallback"`
	CatalogVersion string    `json:"catalog_version"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ranked returns the breakdown ordered by final score, highest first. Equal
// scores keep catalog order.
func (r *Result) Ranked() []ScoreLine {
	out := make([]ScoreLine, len(r.Breakdown))
	copy(out, r.Breakdown)
	sortLines(out)
	return out
}

// Line returns the breakdown entry for cat.
func (r *Result) Line(cat catalog.Category) (ScoreLine, bool) {
	for _, l := range r.Breakdown {
		if l.Category == cat {
			return l, true
		}
	}
	return ScoreLine{}, false
}
