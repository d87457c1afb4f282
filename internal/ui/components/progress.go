package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/missionhq/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
	Theme       theme.Theme
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(th theme.Theme, label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
		Theme:       th,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += p.Theme.Body().Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // " 100%"
	}

	barWidth := p.Width - labelWidth - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	filled = max(0, min(filled, barWidth))
	empty := barWidth - filled

	result += p.Theme.ProgressFilled().Render(strings.Repeat(" ", filled)) +
		p.Theme.ProgressEmpty().Render(strings.Repeat(" ", empty))

	if p.ShowPercent {
		result += p.Theme.Hint().Italic(false).Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}
	return result
}
