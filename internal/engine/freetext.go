package engine

import (
	"strings"

	"github.com/abhisek/taishitsu/internal/catalog"
)

// Free-text bonus parameters.
const (
	KeywordBonus    = 2.0
	MaxKeywordBonus = 10.0
)

// AnalyzeFreeText counts, per category, the keywords that occur in the
// lower-cased text and converts the count into a capped bonus. Every catalog
// category is present in the result.
func (e *Engine) AnalyzeFreeText(text string) map[catalog.Category]float64 {
	cats := e.cat.Categories()
	bonus := make(map[catalog.Category]float64, len(cats))
	lower := strings.ToLower(text)

	for _, cat := range cats {
		if lower == "" {
			bonus[cat] = 0
			continue
		}
		matches := 0
		for _, kw := range e.cat.Keywords(cat) {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matches++
			}
		}
		bonus[cat] = min(float64(matches)*KeywordBonus, MaxKeywordBonus)
	}
	return bonus
}
