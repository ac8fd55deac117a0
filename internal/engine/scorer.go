package engine

import (
	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/response"
)

// ScoreCategory computes the raw and maximum score of cat.
//
// A primary indicator counts towards MaxScore only when its question was
// answered, and towards RawScore when the answer is the positive sentinel.
// Every selected follow-up label known to cat adds its weight to both.
// Unknown categories score zero.
func (e *Engine) ScoreCategory(cat catalog.Category, set *response.Set) CategoryScore {
	cs := CategoryScore{Category: cat}
	if !e.cat.Has(cat) || set == nil {
		return cs
	}

	positive := e.cat.PositiveAnswer()
	ids, weights := e.cat.PrimaryWeights(cat)
	for i, id := range ids {
		answer, ok := set.PrimaryAnswer(id)
		if !ok {
			continue
		}
		cs.MaxScore += weights[i]
		if answer == positive {
			cs.RawScore += weights[i]
		}
	}

	for _, fu := range set.FollowUpSelections() {
		for _, label := range fu.Labels {
			if w, ok := e.cat.SymptomWeight(cat, label); ok {
				cs.RawScore += w
				cs.MaxScore += w
			}
		}
	}

	if cs.MaxScore > 0 {
		cs.Normalized = float64(cs.RawScore) / float64(cs.MaxScore) * 100
	}
	return cs
}
