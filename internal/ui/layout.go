package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show secondary columns.
	LayoutWideWidth = 130
)

// Log display limits.
const (
	// LogTailLines is how many lines of the log file the Logs view reads.
	LogTailLines = 400
)

// Timing constants.
const (
	// LogRefreshInterval is how often the Logs view re-reads while following.
	LogRefreshInterval = 2 * time.Second

	// FlashDuration is how long a status message stays visible.
	FlashDuration = 4 * time.Second
)

// chromeHeight is the header plus command bar plus status line.
const chromeHeight = 3

// renderBox draws a rounded border with a title around content.
func renderBox(theme Theme, title, content string, width, height int, focused bool) string {
	border := theme.Border
	if focused {
		border = theme.BorderFocus
	}
	if width < 4 {
		width = 4
	}
	if height < 3 {
		height = 3
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(width-2).
		Height(height-2).
		Padding(0, 1)

	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true).
		Render(title)
	return box.Render(header + "\n" + content)
}

// fitLines keeps at most n lines of s.
func fitLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}

// scrollWindow returns the [start, end) slice of a list of length total so
// that selected stays visible in height rows.
func scrollWindow(total, selected, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := selected - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return start, start + height
}
