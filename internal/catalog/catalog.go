package catalog

import "slices"

// Category identifies one constitution type, e.g. "qi-deficiency".
type Category string

// QuestionKind distinguishes single-choice items from the free-text item.
type QuestionKind string

const (
	KindSingleChoice QuestionKind = "single-choice"
	KindFreeText     QuestionKind = "free-text"
)

// FollowUpGroup is a set of symptom options offered after a positive answer.
type FollowUpGroup struct {
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Options     []string `yaml:"options" json:"options"`
	MultiSelect bool     `yaml:"multi_select" json:"multi_select"`
}

// Question is one questionnaire item. IDs are the ordinal used in response keys.
type Question struct {
	ID          int             `yaml:"id" json:"id"`
	Text        string          `yaml:"text" json:"text"`
	Kind        QuestionKind    `yaml:"kind" json:"kind"`
	Options     []string        `yaml:"options,omitempty" json:"options,omitempty"`
	FollowUps   []FollowUpGroup `yaml:"follow_ups,omitempty" json:"follow_ups,omitempty"`
	Placeholder string          `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// RuleSet holds the indicator weights for one category.
type RuleSet struct {
	// Primary maps a question ID to the weight earned by a positive answer.
	Primary map[int]int
	// Symptoms maps a follow-up option label to its weight.
	Symptoms map[string]int
	// Keywords are matched as lower-case substrings of the free-text answer.
	Keywords []string
}

// Advice is the static guidance copy shown for a category.
type Advice struct {
	Description      string   `yaml:"description" json:"description"`
	DailyTips        []string `yaml:"daily_tips" json:"daily_tips"`
	RecommendedFoods []string `yaml:"recommended_foods" json:"recommended_foods"`
	FoodsToAvoid     []string `yaml:"foods_to_avoid" json:"foods_to_avoid"`
	LifestyleTips    []string `yaml:"lifestyle_tips" json:"lifestyle_tips"`
}

// Catalog is the immutable rule catalog. It is built once by Load and only
// exposes read accessors, so it is safe to share between goroutines.
type Catalog struct {
	version          string
	positiveAnswer   string
	noneSelected     string
	freeTextQuestion int
	defaultCategory  Category
	defaultScore     float64

	categories []Category
	names      map[Category]string
	rules      map[Category]RuleSet
	advice     map[Category]Advice
	questions  []Question
	byID       map[int]int
}

// Version returns the catalog's semantic version ("v1.2.0").
func (c *Catalog) Version() string { return c.version }

// PositiveAnswer is the option string that means "Yes".
func (c *Catalog) PositiveAnswer() string { return c.positiveAnswer }

// NoneSelected is the follow-up sentinel meaning no option was picked.
func (c *Catalog) NoneSelected() string { return c.noneSelected }

// FreeTextQuestion returns the ID of the designated free-text question.
func (c *Catalog) FreeTextQuestion() int { return c.freeTextQuestion }

// DefaultCategory is reported when a diagnosis has no evidence to work with.
func (c *Catalog) DefaultCategory() Category { return c.defaultCategory }

// DefaultScore accompanies DefaultCategory in the no-evidence fallback.
func (c *Catalog) DefaultScore() float64 { return c.defaultScore }

// Categories returns the categories in catalog order. This order decides
// ties between equal scores: the earlier category wins.
func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

// Has reports whether cat is declared in the catalog.
func (c *Catalog) Has(cat Category) bool {
	_, ok := c.rules[cat]
	return ok
}

// Name returns the human-readable name of cat, or its id when unnamed.
func (c *Catalog) Name(cat Category) string {
	if n, ok := c.names[cat]; ok && n != "" {
		return n
	}
	return string(cat)
}

// Rules returns a copy of the rule set for cat.
func (c *Catalog) Rules(cat Category) (RuleSet, bool) {
	rs, ok := c.rules[cat]
	if !ok {
		return RuleSet{}, false
	}
	out := RuleSet{
		Primary:  make(map[int]int, len(rs.Primary)),
		Symptoms: make(map[string]int, len(rs.Symptoms)),
		Keywords: slices.Clone(rs.Keywords),
	}
	for k, v := range rs.Primary {
		out.Primary[k] = v
	}
	for k, v := range rs.Symptoms {
		out.Symptoms[k] = v
	}
	return out, true
}

// PrimaryWeights returns the question IDs with primary weights for cat in
// ascending ID order alongside their weights.
func (c *Catalog) PrimaryWeights(cat Category) ([]int, []int) {
	rs, ok := c.rules[cat]
	if !ok {
		return nil, nil
	}
	ids := make([]int, 0, len(rs.Primary))
	for id := range rs.Primary {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	weights := make([]int, len(ids))
	for i, id := range ids {
		weights[i] = rs.Primary[id]
	}
	return ids, weights
}

// SymptomWeight returns the weight of a follow-up label for cat.
func (c *Catalog) SymptomWeight(cat Category, label string) (int, bool) {
	rs, ok := c.rules[cat]
	if !ok {
		return 0, false
	}
	w, ok := rs.Symptoms[label]
	return w, ok
}

// Keywords returns the free-text keywords for cat.
func (c *Catalog) Keywords(cat Category) []string {
	return slices.Clone(c.rules[cat].Keywords)
}

// Questions returns all questions in the order the catalog declares them,
// which is the order they are asked in. IDs need not be sequential.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	for i, q := range c.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

// Question looks up a question by ID.
func (c *Catalog) Question(id int) (Question, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return cloneQuestion(c.questions[idx]), true
}

func cloneQuestion(q Question) Question {
	q.Options = slices.Clone(q.Options)
	if q.FollowUps != nil {
		groups := make([]FollowUpGroup, len(q.FollowUps))
		for i, g := range q.FollowUps {
			g.Options = slices.Clone(g.Options)
			groups[i] = g
		}
		q.FollowUps = groups
	}
	return q
}

// Advice returns the static advice for cat.
func (c *Catalog) Advice(cat Category) (Advice, bool) {
	a, ok := c.advice[cat]
	if !ok {
		return Advice{}, false
	}
	a.DailyTips = slices.Clone(a.DailyTips)
	a.RecommendedFoods = slices.Clone(a.RecommendedFoods)
	a.FoodsToAvoid = slices.Clone(a.FoodsToAvoid)
	a.LifestyleTips = slices.Clone(a.LifestyleTips)
	return a, true
}
