// Package history lists saved diagnoses with summary statistics.
package history

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/router"
	"github.com/abhisek/taishitsu/internal/screen"
	"github.com/abhisek/taishitsu/internal/store"
	"github.com/abhisek/taishitsu/internal/ui/layout"
	"github.com/abhisek/taishitsu/internal/ui/theme"
)

// Limit is the number of records loaded.
const Limit = 50

type historyLoadedMsg struct {
	Records []*store.Record
	Stats   *store.Stats
	Err     error
}

// HistoryScreen displays past results.
type HistoryScreen struct {
	cat      *catalog.Catalog
	repo     store.RecordRepo
	records  []*store.Record
	stats    *store.Stats
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(cat *catalog.Catalog, repo store.RecordRepo) *HistoryScreen {
	return &HistoryScreen{
		cat:      cat,
		repo:     repo,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		recs, err := s.repo.History(ctx, store.QueryOpts{Limit: Limit})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		stats, err := s.repo.Stats(ctx)
		if err != nil {
			return historyLoadedMsg{Records: recs}
		}
		return historyLoadedMsg{Records: recs, Stats: stats}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.records = msg.Records
			s.stats = msg.Stats
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.records)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	cw := layout.ContentWidth(width)
	center := func(content string) string {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}

	if s.errMsg != "" {
		return center(theme.Err.Render("Could not load history: " + s.errMsg))
	}
	if !s.loaded {
		return center(theme.Hint.Render("Loading..."))
	}
	if len(s.records) == 0 {
		return center(theme.Hint.Render("No results yet. Take the questionnaire first."))
	}

	var b strings.Builder
	if s.stats != nil {
		b.WriteString(theme.Heading.Render(fmt.Sprintf("%d results", s.stats.Total)))
		b.WriteString("\n")
		var parts []string
		for _, c := range s.stats.ByCategory {
			parts = append(parts, fmt.Sprintf("%s %d", s.cat.Name(catalog.Category(c.Key)), c.Count))
		}
		b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.TextDim).Render(strings.Join(parts, " · ")))
		b.WriteString("\n\n")
	}

	for i, rec := range s.records {
		line := fmt.Sprintf("%s  %-18s %6.1f  %5.1f%%  %s %s",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.cat.Name(catalog.Category(rec.Category)),
			rec.Score, rec.Confidence, rec.Profile.Age, rec.Profile.Gender)
		if i == s.selected {
			b.WriteString(theme.Selected.Render("▸ " + line))
		} else {
			b.WriteString(theme.Unselected.Render("  " + line))
		}
		b.WriteString("\n")
		if s.expanded[i] {
			b.WriteString(s.details(rec, cw))
		}
	}

	lines := strings.Split(b.String(), "\n")
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(cw).Render(strings.Join(lines, "\n")))
}

func (s *HistoryScreen) details(rec *store.Record, cw int) string {
	type kv struct {
		cat   string
		score float64
	}
	scores := make([]kv, 0, len(rec.AllScores))
	for c, v := range rec.AllScores {
		scores = append(scores, kv{c, v})
	}
	slices.SortFunc(scores, func(a, b kv) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.cat, b.cat)
	})

	var b strings.Builder
	for _, sc := range scores {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("      %-18s %6.1f", s.cat.Name(catalog.Category(sc.cat)), sc.score)))
		b.WriteString("\n")
	}
	if rec.FreeTextConcern != "" {
		b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.TextDim).Render("      Concern: " + rec.FreeTextConcern))
		b.WriteString("\n")
	}
	return b.String()
}
