// Package response interprets the raw answer map produced by a questionnaire
// collector. Keys follow a fixed naming contract:
//
//	question_{i}                 answer to question i
//	question_{i}_question        text of question i, as shown to the respondent
//	question_{i}_follow_up_{j}   selection(s) for follow-up group j of question i
//
// Anything that does not parse is ignored; missing or malformed entries are
// treated as absent evidence, never as errors.
package response

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Separator joins multiple follow-up selections in a single value.
const Separator = ","

// FollowUp is one follow-up entry with its value split into labels.
type FollowUp struct {
	Key      string
	Question int
	Group    int
	Labels   []string
}

// Set is a parsed response map. It is read-only once built.
type Set struct {
	raw       map[string]string
	answers   map[int]string
	texts     map[int]string
	followUps []FollowUp
}

// AnswerKey returns the response key for question id.
func AnswerKey(id int) string { return fmt.Sprintf("question_%d", id) }

// QuestionKey returns the key carrying the text of question id.
func QuestionKey(id int) string { return fmt.Sprintf("question_%d_question", id) }

// FollowUpKey returns the key for follow-up group j of question id.
func FollowUpKey(id, j int) string { return fmt.Sprintf("question_%d_follow_up_%d", id, j) }

// Parse builds the lookup views for raw. noneSelected is the sentinel value
// that means no follow-up option was chosen.
func Parse(raw map[string]string, noneSelected string) *Set {
	s := &Set{
		raw:     make(map[string]string, len(raw)),
		answers: make(map[int]string),
		texts:   make(map[int]string),
	}

	for key, value := range raw {
		s.raw[key] = value

		k, ok := parseKey(key)
		if !ok {
			continue
		}
		switch k.kind {
		case keyAnswer:
			if v := strings.TrimSpace(value); v != "" {
				s.answers[k.question] = v
			}
		case keyQuestionText:
			s.texts[k.question] = value
		case keyFollowUp:
			s.followUps = append(s.followUps, FollowUp{
				Key:      key,
				Question: k.question,
				Group:    k.group,
				Labels:   splitLabels(value, noneSelected),
			})
		}
	}

	slices.SortFunc(s.followUps, func(a, b FollowUp) int {
		if c := cmp.Compare(a.Question, b.Question); c != 0 {
			return c
		}
		return cmp.Compare(a.Group, b.Group)
	})
	return s
}

// PrimaryAnswer returns the answer to question id. Empty answers are absent.
func (s *Set) PrimaryAnswer(id int) (string, bool) {
	v, ok := s.answers[id]
	return v, ok
}

// QuestionText returns the question text recorded alongside the answer.
func (s *Set) QuestionText(id int) (string, bool) {
	v, ok := s.texts[id]
	return v, ok
}

// FollowUpSelections returns every follow-up entry ordered by question and
// group. Entries with no selected symptoms carry an empty Labels slice.
func (s *Set) FollowUpSelections() []FollowUp {
	out := make([]FollowUp, len(s.followUps))
	for i, f := range s.followUps {
		f.Labels = slices.Clone(f.Labels)
		out[i] = f
	}
	return out
}

// FreeText returns the trimmed answer to the designated free-text question.
func (s *Set) FreeText(id int) string {
	return s.answers[id]
}

// Len reports how many raw entries the set was built from.
func (s *Set) Len() int { return len(s.raw) }

// Raw returns a copy of the original response map.
func (s *Set) Raw() map[string]string {
	out := make(map[string]string, len(s.raw))
	for k, v := range s.raw {
		out[k] = v
	}
	return out
}

func splitLabels(value, noneSelected string) []string {
	value = strings.TrimSpace(value)
	if value == "" || value == noneSelected {
		return []string{}
	}
	parts := strings.Split(value, Separator)
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == noneSelected {
			continue
		}
		labels = append(labels, p)
	}
	return labels
}

type keyKind int

const (
	keyAnswer keyKind = iota + 1
	keyQuestionText
	keyFollowUp
)

type parsedKey struct {
	kind     keyKind
	question int
	group    int
}

// parseKey decodes the naming contract. Unknown shapes report ok=false.
func parseKey(key string) (parsedKey, bool) {
	rest, ok := strings.CutPrefix(key, "question_")
	if !ok {
		return parsedKey{}, false
	}

	idPart, suffix, hasSuffix := strings.Cut(rest, "_")
	id, ok := parseIndex(idPart)
	if !ok {
		return parsedKey{}, false
	}
	if !hasSuffix {
		return parsedKey{kind: keyAnswer, question: id}, true
	}
	if suffix == "question" {
		return parsedKey{kind: keyQuestionText, question: id}, true
	}
	groupPart, ok := strings.CutPrefix(suffix, "follow_up_")
	if !ok {
		return parsedKey{}, false
	}
	group, ok := parseIndex(groupPart)
	if !ok {
		return parsedKey{}, false
	}
	return parsedKey{kind: keyFollowUp, question: id, group: group}, true
}

// parseIndex accepts only the canonical decimal form, so "00" or "+1" never
// alias another key.
func parseIndex(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}
