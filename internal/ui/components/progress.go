package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/taishitsu/internal/ui/theme"
)

// ProgressBar displays a horizontal bar. Percent is a fraction in [0, 1];
// values outside are clamped for drawing only.
type ProgressBar struct {
	Label      string
	Percent    float64
	Caption    string
	Width      int
	LabelWidth int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, caption string, width int) ProgressBar {
	return ProgressBar{
		Label:   label,
		Percent: percent,
		Caption: caption,
		Width:   width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		label := p.Label
		if pad := p.LabelWidth - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	captionWidth := 0
	if p.Caption != "" {
		captionWidth = lipgloss.Width(p.Caption) + 2
	}

	barWidth := max(p.Width-labelWidth-captionWidth, 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	result += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))

	if p.Caption != "" {
		result += lipgloss.NewStyle().Foreground(theme.TextDim).Render("  " + p.Caption)
	}
	return result
}

// Step renders "label n/total" progress for multi-step flows.
func Step(n, total, width int) string {
	pct := 0.0
	if total > 0 {
		pct = float64(n) / float64(total)
	}
	return NewProgressBar("", pct, fmt.Sprintf("%d/%d", n, total), width).View()
}
