// Package profile asks for the respondent's age band and gender before the
// questionnaire starts.
package profile

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/screen"
	"github.com/abhisek/taishitsu/internal/store"
	"github.com/abhisek/taishitsu/internal/ui/components"
	"github.com/abhisek/taishitsu/internal/ui/layout"
	"github.com/abhisek/taishitsu/internal/ui/theme"
)

// Option lists offered on the profile screen.
var (
	AgeBands = []string{"Under 20", "20-29", "30-39", "40-49", "50-59", "60 or older"}
	Genders  = []string{"Male", "Female", "Other"}
)

// NextFunc builds the screen shown once the profile is complete.
type NextFunc func(p store.Profile) tea.Cmd

// ProfileScreen collects age and gender.
type ProfileScreen struct {
	fields []field
	pos    int
	next   NextFunc
}

type field struct {
	label  string
	choice components.Choice
}

var _ screen.Screen = (*ProfileScreen)(nil)

// New creates a profile screen that calls next with the result.
func New(next NextFunc) *ProfileScreen {
	return &ProfileScreen{
		fields: []field{
			{label: "Age", choice: components.NewChoice(AgeBands, "")},
			{label: "Gender", choice: components.NewChoice(Genders, "")},
		},
		next: next,
	}
}

func (s *ProfileScreen) Init() tea.Cmd  { return nil }
func (s *ProfileScreen) Title() string { return "About you" }

// Profile returns the values chosen so far.
func (s *ProfileScreen) Profile() store.Profile {
	return store.Profile{
		Age:    s.fields[0].choice.Value(),
		Gender: s.fields[1].choice.Value(),
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if s.pos >= len(s.fields) {
		return s, nil
	}
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "shift+tab" {
		if s.pos > 0 {
			s.pos--
			s.fields[s.pos].choice.Confirmed = false
		}
		return s, nil
	}

	f := &s.fields[s.pos]
	var cmd tea.Cmd
	f.choice, cmd = f.choice.Update(msg)
	if f.choice.Confirmed {
		s.pos++
		if s.pos == len(s.fields) && s.next != nil {
			return s, s.next(s.Profile())
		}
	}
	return s, cmd
}

func (s *ProfileScreen) View(width, height int) string {
	cw := layout.ContentWidth(width)
	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 4).Render("Basic information"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw - 4).Render("Used only to group your results in the statistics."))
	b.WriteString("\n\n")

	for i, f := range s.fields {
		switch {
		case i < s.pos:
			b.WriteString(theme.Heading.Render(f.label+": ") + theme.Body.Render(f.choice.Value()))
			b.WriteString("\n")
		case i == s.pos:
			b.WriteString(theme.Heading.Render(f.label))
			b.WriteString("\n")
			b.WriteString(f.choice.View())
		}
	}

	card := theme.Card.Width(cw).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
