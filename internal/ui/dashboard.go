package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/viewstate"
)

type dashboardScreen struct {
	base
	stats viewstate.Fetch[aidb.DashboardStats]
}

type dashboardMsg struct {
	ticket viewstate.Ticket
	stats  aidb.DashboardStats
	err    error
}

func newDashboardScreen(b base) *dashboardScreen {
	return &dashboardScreen{base: b}
}

func (s *dashboardScreen) route() Route    { return RouteDashboard }
func (s *dashboardScreen) capturing() bool { return false }
func (s *dashboardScreen) init() tea.Cmd   { return s.load() }

func (s *dashboardScreen) hints() []keyHint {
	return []keyHint{{"r", "Refresh"}, {"2", "Contacts"}, {"3", "Events"}, {"4", "Audio"}, {"5", "Search"}}
}

func (s *dashboardScreen) load() tea.Cmd {
	ticket := s.stats.Begin()
	client := s.env.client
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		stats, err := client.DashboardStats(ctx)
		return dashboardMsg{ticket: ticket, stats: stats, err: err}, err
	})
}

func (s *dashboardScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		s.stats.Resolve(msg.ticket, msg.stats, msg.err)
	case tea.KeyMsg:
		if key.Matches(msg, s.env.keys.Refresh) {
			return s, s.load()
		}
	}
	return s, nil
}

func (s *dashboardScreen) view(f frame) string {
	snap := s.stats.Snapshot()
	if out, ok := stateView(f, snap, "dashboard", ""); ok {
		return out
	}
	st := snap.Value

	card := func(label string, value int) string {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(f.theme.Border)).
			Padding(0, 2).
			Render(f.styles.MutedText.Render(label) + "\n" + f.styles.Text.Bold(true).Render(fmt.Sprintf("%d", value)))
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Contacts", st.TotalContacts),
		card("Events", st.TotalEvents),
		card("Recordings", st.TotalRecordings),
		card("Transcribed", st.Transcribed),
		card("Planned", len(st.PlannedEvents)),
	)

	var recent strings.Builder
	recent.WriteString(f.styles.AccentText.Bold(true).Render("Recent contacts"))
	recent.WriteString("\n")
	if len(st.RecentContacts) == 0 {
		recent.WriteString(f.styles.MutedText.Render("No contacts yet"))
		recent.WriteString("\n")
	}
	for _, c := range st.RecentContacts {
		recent.WriteString(f.styles.Text.Render(truncate(c.FullName(), 28)))
		recent.WriteString("  ")
		recent.WriteString(f.styles.FaintText.Render(formatDate(c.ParsedCreatedAt())))
		recent.WriteString("\n")
	}

	var planned strings.Builder
	planned.WriteString(f.styles.AccentText.Bold(true).Render("Planned events"))
	planned.WriteString("\n")
	if len(st.PlannedEvents) == 0 {
		planned.WriteString(f.styles.MutedText.Render("Nothing planned"))
		planned.WriteString("\n")
	}
	for _, e := range st.PlannedEvents {
		planned.WriteString(f.styles.Text.Render(truncate(e.Name, 28)))
		planned.WriteString("  ")
		planned.WriteString(f.styles.FaintText.Render(formatDate(e.ParsedEventDate())))
		planned.WriteString("\n")
	}

	var tops strings.Builder
	tops.WriteString(f.styles.AccentText.Bold(true).Render("Top locations"))
	tops.WriteString("\n")
	for _, l := range st.TopLocations {
		fmt.Fprintf(&tops, "%s %s\n", f.styles.Text.Render(truncate(l.Location, 22)), f.styles.FaintText.Render(fmt.Sprintf("(%d)", l.Count)))
	}
	tops.WriteString("\n")
	tops.WriteString(f.styles.AccentText.Bold(true).Render("Top companies"))
	tops.WriteString("\n")
	for _, c := range st.TopCompanies {
		fmt.Fprintf(&tops, "%s %s\n", f.styles.Text.Render(truncate(c.Company, 22)), f.styles.FaintText.Render(fmt.Sprintf("(%d)", c.Count)))
	}

	colWidth := f.width / 3
	col := lipgloss.NewStyle().Width(colWidth).PaddingRight(2)
	var body string
	if f.width < LayoutCompactWidth {
		body = lipgloss.JoinVertical(lipgloss.Left, recent.String(), planned.String(), tops.String())
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			col.Render(recent.String()), col.Render(planned.String()), col.Render(tops.String()))
	}
	return cards + "\n\n" + body
}
