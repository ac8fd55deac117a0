package response

import "strings"

// Builder assembles a response map following the key contract. Collectors
// (the terminal questionnaire, HTTP clients) use it so the keys stay in one place.
type Builder struct {
	noneSelected string
	m            map[string]string
}

// NewBuilder returns an empty Builder using noneSelected for empty follow-ups.
func NewBuilder(noneSelected string) *Builder {
	return &Builder{noneSelected: noneSelected, m: make(map[string]string)}
}

// Answer records the answer to question id together with its text.
func (b *Builder) Answer(id int, text, answer string) *Builder {
	b.m[AnswerKey(id)] = answer
	b.m[QuestionKey(id)] = text
	return b
}

// FollowUp records the labels chosen for group j of question id. An empty
// selection is stored as the none-selected sentinel.
func (b *Builder) FollowUp(id, j int, labels []string) *Builder {
	if len(labels) == 0 {
		b.m[FollowUpKey(id, j)] = b.noneSelected
		return b
	}
	b.m[FollowUpKey(id, j)] = strings.Join(labels, Separator+" ")
	return b
}

// Map returns a copy of the assembled response map.
func (b *Builder) Map() map[string]string {
	out := make(map[string]string, len(b.m))
	for k, v := range b.m {
		out[k] = v
	}
	return out
}

// Set stores a raw key/value pair, for callers that already hold keys.
func (b *Builder) Set(key, value string) *Builder {
	b.m[key] = value
	return b
}
