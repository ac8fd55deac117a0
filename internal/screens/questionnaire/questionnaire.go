// Package questionnaire is the screen that collects answers one step at a
// time.
package questionnaire

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/screen"
	"github.com/abhisek/taishitsu/internal/store"
	"github.com/abhisek/taishitsu/internal/ui/components"
	"github.com/abhisek/taishitsu/internal/ui/layout"
	"github.com/abhisek/taishitsu/internal/ui/theme"
)

const freeTextLimit = 500

// SubmitFunc is called once with the finished answers.
type SubmitFunc func(p store.Profile, responses map[string]string) tea.Cmd

// QuestionnaireScreen asks every catalog question in order.
type QuestionnaireScreen struct {
	cat     *catalog.Catalog
	profile store.Profile
	flow    *Flow
	submit  SubmitFunc

	choice    components.Choice
	checklist components.Checklist
	input     components.TextInput
	submitted bool
}

var _ screen.Screen = (*QuestionnaireScreen)(nil)
var _ screen.KeyHintProvider = (*QuestionnaireScreen)(nil)

// New creates the screen for a respondent profile.
func New(cat *catalog.Catalog, p store.Profile, submit SubmitFunc) *QuestionnaireScreen {
	s := &QuestionnaireScreen{
		cat:     cat,
		profile: p,
		flow:    NewFlow(cat),
		submit:  submit,
	}
	s.syncWidget()
	return s
}

func (s *QuestionnaireScreen) Init() tea.Cmd {
	if st, ok := s.flow.Current(); ok && st.Kind == StepFreeText {
		return s.input.Init()
	}
	return nil
}

func (s *QuestionnaireScreen) Title() string { return "Questionnaire" }

func (s *QuestionnaireScreen) KeyHints() []layout.KeyHint {
	st, _ := s.flow.Current()
	hints := []layout.KeyHint{{Key: "Enter", Description: "Next"}}
	switch st.Kind {
	case StepFollowUp:
		if st.Question.FollowUps[st.Group].MultiSelect {
			hints = append(hints, layout.KeyHint{Key: "Space", Description: "Toggle"})
		}
		hints = append(hints, layout.KeyHint{Key: "↑↓", Description: "Move"})
	case StepChoice:
		hints = append(hints, layout.KeyHint{Key: "↑↓", Description: "Move"})
	}
	return append(hints,
		layout.KeyHint{Key: "Shift+Tab", Description: "Previous"},
		layout.KeyHint{Key: "Esc", Description: "Cancel"},
	)
}

// Flow exposes the underlying answer state.
func (s *QuestionnaireScreen) Flow() *Flow { return s.flow }

// syncWidget rebuilds the input widget for the current step, restoring any
// earlier answer.
func (s *QuestionnaireScreen) syncWidget() {
	st, ok := s.flow.Current()
	if !ok {
		return
	}
	switch st.Kind {
	case StepChoice:
		prev, _ := s.flow.Answer(st.Question.ID)
		s.choice = components.NewChoice(st.Question.Options, prev)
	case StepFollowUp:
		g := st.Question.FollowUps[st.Group]
		sel := s.flow.Selection(st.Question.ID, st.Group)
		if g.MultiSelect {
			s.checklist = components.NewChecklist(g.Options, sel)
		} else {
			prev := ""
			if len(sel) > 0 {
				prev = sel[0]
			}
			s.choice = components.NewChoice(g.Options, prev)
		}
	case StepFreeText:
		prev, _ := s.flow.Answer(st.Question.ID)
		s.input = components.NewTextInput(st.Question.Placeholder, prev, freeTextLimit)
	}
}

func (s *QuestionnaireScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if s.submitted {
		return s, nil
	}
	st, ok := s.flow.Current()
	if !ok {
		return s, nil
	}

	if kmsg, isKey := msg.(tea.KeyMsg); isKey && kmsg.String() == "shift+tab" {
		if s.flow.Back() {
			s.syncWidget()
			return s, s.Init()
		}
		return s, nil
	}

	var cmd tea.Cmd
	switch st.Kind {
	case StepChoice:
		s.choice, cmd = s.choice.Update(msg)
		if s.choice.Confirmed {
			s.flow.Choose(s.choice.Value())
			return s, s.advance()
		}
	case StepFollowUp:
		if st.Question.FollowUps[st.Group].MultiSelect {
			s.checklist, cmd = s.checklist.Update(msg)
			if s.checklist.Confirmed {
				s.flow.Select(s.checklist.Values())
				return s, s.advance()
			}
		} else {
			s.choice, cmd = s.choice.Update(msg)
			if s.choice.Confirmed {
				s.flow.Select([]string{s.choice.Value()})
				return s, s.advance()
			}
		}
	case StepFreeText:
		if kmsg, isKey := msg.(tea.KeyMsg); isKey && kmsg.String() == "enter" {
			s.flow.Write(strings.TrimSpace(s.input.Value()))
			return s, s.advance()
		}
		s.input, cmd = s.input.Update(msg)
	}
	return s, cmd
}

func (s *QuestionnaireScreen) advance() tea.Cmd {
	if s.flow.Done() {
		s.submitted = true
		if s.submit == nil {
			return nil
		}
		return s.submit(s.profile, s.flow.Responses())
	}
	s.syncWidget()
	return s.Init()
}

func (s *QuestionnaireScreen) View(width, height int) string {
	cw := layout.ContentWidth(width)
	if s.submitted {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Hint.Render("Scoring your answers..."))
	}
	st, ok := s.flow.Current()
	if !ok {
		return ""
	}

	n, total := s.flow.Progress()
	var b strings.Builder
	b.WriteString(components.Step(n, total, cw))
	b.WriteString("\n\n")

	q := st.Question
	switch st.Kind {
	case StepChoice:
		b.WriteString(theme.Heading.Render(fmt.Sprintf("Question %d", q.ID+1)))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(q.Text))
		b.WriteString("\n\n")
		b.WriteString(s.choice.View())
	case StepFollowUp:
		g := q.FollowUps[st.Group]
		b.WriteString(theme.Hint.Render(q.Text))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(g.Prompt))
		b.WriteString("\n\n")
		if g.MultiSelect {
			b.WriteString(s.checklist.View())
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("Leave everything unticked if none apply."))
		} else {
			b.WriteString(s.choice.View())
		}
	case StepFreeText:
		b.WriteString(theme.Heading.Render(fmt.Sprintf("Question %d", q.ID+1)))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(q.Text))
		b.WriteString("\n\n")
		b.WriteString(s.input.View())
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Optional. Press Enter to finish."))
	}

	card := theme.Card.Width(cw).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
