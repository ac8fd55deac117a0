// Package app is the root terminal UI model.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/advice"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/router"
	"github.com/abhisek/taishitsu/internal/screen"
	"github.com/abhisek/taishitsu/internal/screens/history"
	"github.com/abhisek/taishitsu/internal/screens/home"
	"github.com/abhisek/taishitsu/internal/screens/profile"
	"github.com/abhisek/taishitsu/internal/screens/questionnaire"
	"github.com/abhisek/taishitsu/internal/screens/result"
	"github.com/abhisek/taishitsu/internal/store"
	"github.com/abhisek/taishitsu/internal/ui/layout"
)

// Options holds the services the UI drives. Records, Advice and CSVPath are
// optional.
type Options struct {
	Engine  *engine.Engine
	Records store.RecordRepo
	Advice  *advice.Service
	CSVPath string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(opts Options) AppModel {
	m := AppModel{opts: opts}
	f := home.Factories{Start: m.profileScreen}
	if opts.Records != nil {
		f.History = func() screen.Screen {
			return history.New(opts.Engine.Catalog(), opts.Records)
		}
	}
	m.router = router.New(home.New(opts.Engine.Catalog(), f))
	return m
}

func (m AppModel) profileScreen() screen.Screen {
	return profile.New(func(p store.Profile) tea.Cmd {
		q := questionnaire.New(m.opts.Engine.Catalog(), p, m.submit)
		return func() tea.Msg { return router.ReplaceScreenMsg{Screen: q} }
	})
}

// submit scores the answers and swaps the questionnaire for the result.
func (m AppModel) submit(p store.Profile, raw map[string]string) tea.Cmd {
	out := Submit(context.Background(), m.opts, p, raw)

	params := result.Params{
		Catalog:  m.opts.Engine.Catalog(),
		Result:   out.Result,
		Warnings: out.Warnings,
		Retake: func() tea.Cmd {
			next := m.profileScreen()
			return func() tea.Msg { return router.PopToRootMsg{Then: next} }
		},
	}
	if svc := m.opts.Advice; svc != nil {
		in := svc.Input(out.Result, p.Age, p.Gender, out.Record.FreeTextConcern)
		params.Narration = svc.Static(in)
		if svc.Personalised() {
			id := out.Result.ID
			params.Narrate = func() tea.Msg {
				return result.NarrationMsg{ID: id, Narration: svc.Narrate(context.Background(), in)}
			}
		}
	}

	s := result.New(params)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: s} }
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopToRootMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, "catalog "+m.opts.Engine.Catalog().Version(), m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(hp.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
