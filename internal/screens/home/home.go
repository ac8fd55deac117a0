// Package home is the landing screen with the main menu.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/router"
	"github.com/abhisek/taishitsu/internal/screen"
	"github.com/abhisek/taishitsu/internal/ui/components"
	"github.com/abhisek/taishitsu/internal/ui/layout"
	"github.com/abhisek/taishitsu/internal/ui/theme"
)

// Factories build the screens reachable from the menu. A nil History
// disables the history entry.
type Factories struct {
	Start   func() screen.Screen
	History func() screen.Screen
}

// HomeScreen shows the introduction and main menu.
type HomeScreen struct {
	cat  *catalog.Catalog
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

func push(f func() screen.Screen) func() tea.Cmd {
	return func() tea.Cmd {
		s := f()
		return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
	}
}

// New creates the home screen.
func New(cat *catalog.Catalog, f Factories) *HomeScreen {
	items := []components.MenuItem{
		{Label: "Start diagnosis", Action: push(f.Start)},
		{Label: "History", Disabled: f.History == nil},
		{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	}
	if f.History != nil {
		items[1].Action = push(f.History)
	}
	return &HomeScreen{cat: cat, menu: components.NewMenu(items)}
}

func (h *HomeScreen) Init() tea.Cmd  { return nil }
func (h *HomeScreen) Title() string { return "Home" }

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := layout.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 4).Render("Constitution questionnaire"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(cw - 4).Foreground(theme.Text).Render(
		"Answer a short set of questions about how you feel day to day. " +
			"Your answers are scored against the constitution types below and " +
			"you receive advice for the one that fits best."))
	b.WriteString("\n\n")
	for _, c := range h.cat.Categories() {
		if c == h.cat.DefaultCategory() {
			continue
		}
		b.WriteString(theme.Hint.Render("  • " + h.cat.Name(c)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(h.menu.View())

	card := theme.Card.Width(cw).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
