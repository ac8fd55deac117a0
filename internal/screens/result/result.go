// Package result shows a diagnosis, its score breakdown and advice.
package result

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/advice"
	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/screen"
	"github.com/abhisek/taishitsu/internal/ui/components"
	"github.com/abhisek/taishitsu/internal/ui/layout"
	"github.com/abhisek/taishitsu/internal/ui/theme"
)

// NarrationMsg delivers personalised advice for result ID.
type NarrationMsg struct {
	ID        string
	Narration *advice.Narration
}

// Params is everything the screen displays.
type Params struct {
	Catalog   *catalog.Catalog
	Result    *engine.Result
	Narration *advice.Narration
	// Narrate fetches personalised advice in the background. Optional.
	Narrate tea.Cmd
	// Warnings are non-fatal problems, e.g. the result could not be saved.
	Warnings []string
	// Retake starts a new questionnaire. Optional.
	Retake func() tea.Cmd
}

// ResultScreen renders one diagnosis.
type ResultScreen struct {
	p       Params
	pending bool
	offset  int
	lines   int
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

// New creates a result screen.
func New(p Params) *ResultScreen {
	return &ResultScreen{p: p, pending: p.Narrate != nil}
}

func (s *ResultScreen) Init() tea.Cmd  { return s.p.Narrate }
func (s *ResultScreen) Title() string { return "Your result" }

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "↑↓", Description: "Scroll"}}
	if s.p.Retake != nil {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Retake"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Home"})
}

// Narration returns the advice currently shown.
func (s *ResultScreen) Narration() *advice.Narration { return s.p.Narration }

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case NarrationMsg:
		if msg.ID == s.p.Result.ID && msg.Narration != nil {
			s.p.Narration = msg.Narration
			s.pending = false
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			if s.offset < s.lines-1 {
				s.offset++
			}
		case "r":
			if s.p.Retake != nil {
				return s, s.p.Retake()
			}
		}
	}
	return s, nil
}

func (s *ResultScreen) body(cw int) string {
	cat := s.p.Catalog
	res := s.p.Result
	wrap := lipgloss.NewStyle().Width(cw)

	var b strings.Builder
	b.WriteString(theme.Highlight.Render("Your constitution type: " + cat.Name(res.Category)))
	b.WriteString("\n")
	b.WriteString(theme.Body.Render(fmt.Sprintf("Score %.1f    Confidence %.1f%%", res.Score, res.Confidence)))
	b.WriteString("\n")
	if res.Fallback {
		b.WriteString(theme.Hint.Render("Not enough answers to tell types apart; showing the default type."))
		b.WriteString("\n")
	}
	for _, w := range s.p.Warnings {
		b.WriteString(theme.Warn.Render("! " + w))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Heading.Render("Scores"))
	b.WriteString("\n")
	labelWidth := 0
	for _, l := range res.Breakdown {
		labelWidth = max(labelWidth, lipgloss.Width(cat.Name(l.Category)))
	}
	for _, l := range res.Ranked() {
		bar := components.NewProgressBar(cat.Name(l.Category), l.Final/100, fmt.Sprintf("%5.1f", l.Final), cw)
		bar.LabelWidth = labelWidth
		b.WriteString(bar.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Heading.Render("About your constitution"))
	if s.pending {
		b.WriteString(theme.Hint.Render("  (personalising...)"))
	}
	b.WriteString("\n")
	if n := s.p.Narration; n != nil {
		b.WriteString(wrap.Render(n.Summary))
		b.WriteString("\n\n")
		b.WriteString(theme.Heading.Render("Today's tips"))
		b.WriteString("\n")
		for _, tip := range n.Tips {
			b.WriteString(wrap.Render("• " + tip))
			b.WriteString("\n")
		}
	}

	if a, ok := cat.Advice(res.Category); ok {
		if len(a.RecommendedFoods) > 0 || len(a.FoodsToAvoid) > 0 {
			b.WriteString("\n")
			b.WriteString(theme.Heading.Render("Food"))
			b.WriteString("\n")
			b.WriteString(wrap.Render("Recommended: " + strings.Join(a.RecommendedFoods, ", ")))
			b.WriteString("\n")
			b.WriteString(wrap.Render("Go easy on: " + strings.Join(a.FoodsToAvoid, ", ")))
			b.WriteString("\n")
		}
		if len(a.LifestyleTips) > 0 {
			b.WriteString("\n")
			b.WriteString(theme.Heading.Render("Lifestyle"))
			b.WriteString("\n")
			for _, tip := range a.LifestyleTips {
				b.WriteString(wrap.Render("• " + tip))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("This is general wellbeing guidance, not a medical diagnosis."))
	return b.String()
}

func (s *ResultScreen) View(width, height int) string {
	cw := layout.ContentWidth(width)
	lines := strings.Split(s.body(cw), "\n")
	s.lines = len(lines)

	start := min(s.offset, max(len(lines)-1, 0))
	end := len(lines)
	if height > 0 {
		end = min(start+height, len(lines))
	}
	content := strings.Join(lines[start:end], "\n")
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(cw).Render(content))
}
