package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/response"
)

// Confidence parameters.
const (
	BaseConfidence    = 60.0
	SeparationFactor  = 0.5
	FlatConfidence    = 75.0
	DefaultLower      = 65.0
	DefaultUpper      = 95.0
	DefaultJitterSize = 3.0
)

// Engine classifies response sets against one catalog. It keeps no state
// between calls and is safe for concurrent use.
type Engine struct {
	cat    *catalog.Catalog
	jitter Jitter
	lower  float64
	upper  float64
	now    func() time.Time
	newID  func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithJitter sets the confidence perturbation source.
func WithJitter(j Jitter) Option {
	return func(e *Engine) {
		if j != nil {
			e.jitter = j
		}
	}
}

// WithConfidenceBounds sets the clamp range for confidence. Invalid ranges
// are ignored.
func WithConfidenceBounds(lower, upper float64) Option {
	return func(e *Engine) {
		if lower <= upper {
			e.lower, e.upper = lower, upper
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides result id generation.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New returns an Engine for cat. Without options it perturbs confidence by
// up to ±3 and clamps to [65, 95].
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		cat:    cat,
		jitter: UniformJitter(DefaultJitterSize),
		lower:  DefaultLower,
		upper:  DefaultUpper,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the engine scores against.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Bounds returns the confidence clamp range.
func (e *Engine) Bounds() (lower, upper float64) { return e.lower, e.upper }

// Parse interprets a raw response map with this catalog's sentinel values.
func (e *Engine) Parse(raw map[string]string) *response.Set {
	return response.Parse(raw, e.cat.NoneSelected())
}

// DiagnoseMap parses raw and diagnoses it.
func (e *Engine) DiagnoseMap(raw map[string]string) *Result {
	return e.Diagnose(e.Parse(raw))
}

// Diagnose scores every category, applies the free-text bonus, picks the
// best category and derives a confidence value.
//
// Ties go to the category declared first in the catalog. When the catalog
// is empty or the responses carry no evidence at all, the catalog default
// category is reported with the default score and a flat confidence.
func (e *Engine) Diagnose(set *response.Set) *Result {
	cats := e.cat.Categories()
	res := &Result{
		ID:             e.newID(),
		AllScores:      make(map[catalog.Category]float64, len(cats)),
		Breakdown:      make([]ScoreLine, 0, len(cats)),
		CatalogVersion: e.cat.Version(),
		CreatedAt:      e.now().UTC(),
	}

	freeText := ""
	if set != nil {
		freeText = set.FreeText(e.cat.FreeTextQuestion())
	}
	bonus := e.AnalyzeFreeText(freeText)

	evidence := false
	for _, cat := range cats {
		cs := e.ScoreCategory(cat, set)
		line := ScoreLine{
			CategoryScore: cs,
			Bonus:         bonus[cat],
			Final:         cs.Normalized + bonus[cat],
		}
		if cs.MaxScore > 0 || line.Bonus > 0 {
			evidence = true
		}
		res.Breakdown = append(res.Breakdown, line)
		res.AllScores[cat] = line.Final
	}

	if !evidence {
		res.Category = e.cat.DefaultCategory()
		res.Score = e.cat.DefaultScore()
		res.Fallback = true
		res.Confidence = e.perturb(FlatConfidence)
		return res
	}

	best := res.Breakdown[0]
	for _, l := range res.Breakdown[1:] {
		if l.Final > best.Final {
			best = l
		}
	}
	res.Category = best.Category
	res.Score = best.Final
	res.Confidence = e.perturb(e.separation(res.Breakdown))
	return res
}

// separation converts the gap between the two best scores into confidence.
func (e *Engine) separation(lines []ScoreLine) float64 {
	scores := make([]float64, len(lines))
	for i, l := range lines {
		scores[i] = l.Final
	}
	slices.SortFunc(scores, func(a, b float64) int { return cmp.Compare(b, a) })

	if len(scores) < 2 || scores[0] <= 0 {
		return FlatConfidence
	}
	diff := scores[0] - scores[1]
	return e.clamp(BaseConfidence + diff*SeparationFactor)
}

func (e *Engine) perturb(conf float64) float64 {
	return e.clamp(conf + e.jitter.Offset())
}

func (e *Engine) clamp(v float64) float64 {
	return max(e.lower, min(e.upper, v))
}

func sortLines(lines []ScoreLine) {
	slices.SortStableFunc(lines, func(a, b ScoreLine) int {
		return cmp.Compare(b.Final, a.Final)
	})
}
