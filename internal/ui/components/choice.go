package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/ui/theme"
)

// Choice is a single-select option list. Enter confirms the highlighted
// option.
type Choice struct {
	Options   []string
	Cursor    int
	Confirmed bool
}

// NewChoice creates a choice list with the cursor on preselected when it is
// one of options.
func NewChoice(options []string, preselected string) Choice {
	c := Choice{Options: options}
	for i, o := range options {
		if o == preselected {
			c.Cursor = i
			break
		}
	}
	return c
}

// Update handles keyboard navigation and confirmation.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.Options) == 0 {
		return c, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "enter":
		c.Confirmed = true
	}
	return c, nil
}

// Value returns the highlighted option.
func (c Choice) Value() string {
	if c.Cursor < 0 || c.Cursor >= len(c.Options) {
		return ""
	}
	return c.Options[c.Cursor]
}

// View renders the option list.
func (c Choice) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		if i == c.Cursor {
			b.WriteString(theme.Selected.Render("  ▸ " + opt))
		} else {
			b.WriteString(theme.Unselected.Render("    " + opt))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Checklist is a multi-select option list. Space toggles, enter confirms.
type Checklist struct {
	Options   []string
	Cursor    int
	Checked   map[int]bool
	Confirmed bool
}

// NewChecklist creates a checklist with the given labels already ticked.
func NewChecklist(options []string, checked []string) Checklist {
	c := Checklist{Options: options, Checked: make(map[int]bool)}
	for i, o := range options {
		for _, sel := range checked {
			if o == sel {
				c.Checked[i] = true
			}
		}
	}
	return c
}

// Update handles navigation, toggling and confirmation.
func (c Checklist) Update(msg tea.Msg) (Checklist, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.Options) == 0 {
		return c, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "space", "x":
		c.Checked[c.Cursor] = !c.Checked[c.Cursor]
	case "enter":
		c.Confirmed = true
	}
	return c, nil
}

// Values returns the ticked labels in option order.
func (c Checklist) Values() []string {
	var out []string
	for i, o := range c.Options {
		if c.Checked[i] {
			out = append(out, o)
		}
	}
	return out
}

// View renders the checklist.
func (c Checklist) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		box := "[ ]"
		if c.Checked[i] {
			box = lipgloss.NewStyle().Foreground(theme.Success).Render("[x]")
		}
		prefix := "    "
		style := theme.Unselected
		if i == c.Cursor {
			prefix = "  ▸ "
			style = theme.Selected
		}
		b.WriteString(style.Render(prefix) + box + " " + style.Render(opt) + "\n")
	}
	return b.String()
}
