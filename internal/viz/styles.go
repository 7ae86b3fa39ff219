package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	panel   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
	engaged lipgloss.Style
	manual  lipgloss.Style
	paused  lipgloss.Style
	barFill lipgloss.Style
	barHot  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(0, 1),
		header:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		graph:   lipgloss.NewStyle().Foreground(t.Primary),
		help:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		engaged: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		manual:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		paused:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		barFill: lipgloss.NewStyle().Foreground(t.Success),
		barHot:  lipgloss.NewStyle().Foreground(t.Error),
	}
}

// bar renders value/limit as a horizontal gauge; above 80% it turns hot.
func (s styles) bar(value, limit float64, width int) string {
	ratio := 0.0
	if limit > 0 {
		ratio = value / limit
	}
	filled := max(0, min(width, int(ratio*float64(width))))

	gauge := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if ratio > 0.8 {
		return s.barHot.Render(gauge)
	}
	return s.barFill.Render(gauge)
}

// centeredBar renders a signed value around a center mark, for steering.
func (s styles) centeredBar(value, limit float64, width int) string {
	half := width / 2
	n := 0
	if limit > 0 {
		n = int(value / limit * float64(half))
	}
	n = max(-half, min(half, n))

	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	if n < 0 {
		left = strings.Repeat("░", half+n) + strings.Repeat("█", -n)
	} else if n > 0 {
		right = strings.Repeat("█", n) + strings.Repeat("░", half-n)
	}
	return s.barFill.Render(left) + "│" + s.barFill.Render(right)
}
