package ui

import (
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	logoOnce sync.Once
	logoText string
)

// logoBanner returns the padb banner, using figlet when it is installed.
// The figlet output is computed once per process.
func logoBanner() string {
	logoOnce.Do(func() {
		// Try to use figlet for ASCII art
		cmd := exec.Command("figlet", "-f", "slant", "padb")
		output, err := cmd.Output()
		if err == nil && len(output) > 0 {
			logoText = strings.TrimRight(string(output), "\n ")
			return
		}
		// Fallback: plain text
		logoText = "PADB"
	})
	return logoText
}

// renderLogo colors each banner line with the logo style.
func renderLogo(style lipgloss.Style) string {
	lines := strings.Split(logoBanner(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, style.Render(line))
	}
	return strings.Join(out, "\n")
}
