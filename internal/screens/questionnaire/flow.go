package questionnaire

import (
	"slices"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/response"
)

// StepKind tells the screen which widget to show.
type StepKind int

const (
	StepChoice StepKind = iota + 1
	StepFollowUp
	StepFreeText
)

// Step is one prompt in the questionnaire. Group is the follow-up group index
// for StepFollowUp.
type Step struct {
	Kind     StepKind
	Question catalog.Question
	Group    int
}

type groupKey struct{ question, group int }

// Flow walks a catalog's questions, inserting follow-up steps after a
// positive answer. It holds no UI state.
type Flow struct {
	cat       *catalog.Catalog
	questions []catalog.Question
	answers   map[int]string
	followUps map[groupKey][]string
	pos       int
}

// NewFlow starts a questionnaire over every catalog question.
func NewFlow(cat *catalog.Catalog) *Flow {
	return &Flow{
		cat:       cat,
		questions: cat.Questions(),
		answers:   make(map[int]string),
		followUps: make(map[groupKey][]string),
	}
}

// steps is recomputed on every call because answers change which follow-ups
// are visible.
func (f *Flow) steps() []Step {
	var out []Step
	for _, q := range f.questions {
		switch q.Kind {
		case catalog.KindFreeText:
			out = append(out, Step{Kind: StepFreeText, Question: q})
		default:
			out = append(out, Step{Kind: StepChoice, Question: q})
			if f.answers[q.ID] == f.cat.PositiveAnswer() {
				for j := range q.FollowUps {
					out = append(out, Step{Kind: StepFollowUp, Question: q, Group: j})
				}
			}
		}
	}
	return out
}

// Current returns the step awaiting an answer. ok is false once done.
func (f *Flow) Current() (Step, bool) {
	s := f.steps()
	if f.pos >= len(s) {
		return Step{}, false
	}
	return s[f.pos], true
}

// Done reports whether every step has been answered.
func (f *Flow) Done() bool {
	return f.pos >= len(f.steps())
}

// Progress returns the 1-based position of the current step and the number
// of steps known so far.
func (f *Flow) Progress() (int, int) {
	total := len(f.steps())
	return min(f.pos+1, total), total
}

// Choose answers the current choice step and advances.
func (f *Flow) Choose(option string) {
	s, ok := f.Current()
	if !ok || s.Kind != StepChoice {
		return
	}
	f.answers[s.Question.ID] = option
	if option != f.cat.PositiveAnswer() {
		for j := range s.Question.FollowUps {
			delete(f.followUps, groupKey{s.Question.ID, j})
		}
	}
	f.pos++
}

// Select answers the current follow-up step and advances. An empty
// selection means none of the options apply.
func (f *Flow) Select(labels []string) {
	s, ok := f.Current()
	if !ok || s.Kind != StepFollowUp {
		return
	}
	f.followUps[groupKey{s.Question.ID, s.Group}] = slices.Clone(labels)
	f.pos++
}

// Write answers the current free-text step and advances.
func (f *Flow) Write(text string) {
	s, ok := f.Current()
	if !ok || s.Kind != StepFreeText {
		return
	}
	f.answers[s.Question.ID] = text
	f.pos++
}

// Back returns to the previous step. It reports false at the first step.
func (f *Flow) Back() bool {
	if f.pos == 0 {
		return false
	}
	f.pos--
	return true
}

// Answer returns the recorded answer for question id.
func (f *Flow) Answer(id int) (string, bool) {
	v, ok := f.answers[id]
	return v, ok
}

// Selection returns the recorded labels for a follow-up group.
func (f *Flow) Selection(id, group int) []string {
	return slices.Clone(f.followUps[groupKey{id, group}])
}

// Responses assembles the response map for the engine. Follow-ups are only
// included for questions whose current answer is positive.
func (f *Flow) Responses() map[string]string {
	b := response.NewBuilder(f.cat.NoneSelected())
	for _, q := range f.questions {
		answer, ok := f.answers[q.ID]
		if !ok {
			continue
		}
		b.Answer(q.ID, q.Text, answer)
		if q.Kind != catalog.KindSingleChoice || answer != f.cat.PositiveAnswer() {
			continue
		}
		for j := range q.FollowUps {
			if labels, ok := f.followUps[groupKey{q.ID, j}]; ok {
				b.FollowUp(q.ID, j, labels)
			}
		}
	}
	return b.Map()
}
