package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/padbhq/padb/internal/logtail"
)

// logLevels is the cycle order of the level filter.
var logLevels = []zerolog.Level{
	zerolog.DebugLevel,
	zerolog.InfoLevel,
	zerolog.WarnLevel,
	zerolog.ErrorLevel,
}

// logsScreen tails the console's own log file.
type logsScreen struct {
	base
	entries     []logtail.Entry
	err         error
	loaded      bool
	lastRefresh time.Time
	follow      bool
	level       zerolog.Level
	filter      string
	search      textinput.Model
	searching   bool
	viewport    viewport.Model

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
	renderedTheme  string
}

type logLinesMsg struct {
	entries []logtail.Entry
	err     error
}

func newLogsScreen(b base) *logsScreen {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "Filter logs..."
	ti.CharLimit = 100
	return &logsScreen{
		base:   b,
		follow: true,
		level:  zerolog.DebugLevel,
		search: ti,
	}
}

func (s *logsScreen) route() Route    { return RouteLogs }
func (s *logsScreen) capturing() bool { return s.searching }

func (s *logsScreen) init() tea.Cmd {
	return tea.Batch(s.read(), s.tick(LogRefreshInterval))
}

func (s *logsScreen) hints() []keyHint {
	if s.searching {
		return []keyHint{{"enter", "Apply"}, {"esc", "Cancel"}}
	}
	follow := "Follow"
	if s.follow {
		follow = "Pause"
	}
	return []keyHint{{"space", follow}, {"f", "Level " + logtail.LevelTag(s.level)}, {"/", "Filter"}, {"g/G", "Top/Bottom"}}
}

func (s *logsScreen) read() tea.Cmd {
	path := s.env.logFile
	return s.call(func(context.Context) (tea.Msg, error) {
		lines, err := logtail.Read(path, LogTailLines)
		return logLinesMsg{entries: logtail.ParseLines(lines), err: err}, nil
	})
}

func (s *logsScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case logLinesMsg:
		s.loaded = true
		s.err = msg.err
		s.lastRefresh = time.Now()
		if msg.err == nil {
			s.entries = msg.entries
		}
		s.refresh()
		return s, nil
	case tickMsg:
		next := s.tick(LogRefreshInterval)
		if !s.follow {
			return s, next
		}
		return s, tea.Batch(s.read(), next)
	case tea.KeyMsg:
		if s.searching {
			return s, s.updateSearch(msg)
		}
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *logsScreen) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.searching = false
		s.search.Blur()
		s.filter = strings.TrimSpace(s.search.Value())
		s.refresh()
		return nil
	case "esc":
		s.searching = false
		s.search.Blur()
		s.search.SetValue(s.filter)
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	return cmd
}

func (s *logsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	switch {
	case key.Matches(msg, keys.ToggleFollow):
		s.follow = !s.follow
		if s.follow {
			s.viewport.GotoBottom()
			return s.read()
		}
	case key.Matches(msg, keys.CycleLevel):
		s.level = nextLogLevel(s.level)
		s.refresh()
	case key.Matches(msg, keys.Search):
		s.searching = true
		s.search.SetValue(s.filter)
		return s.search.Focus()
	case key.Matches(msg, keys.Back):
		if s.filter != "" {
			s.filter = ""
			s.search.SetValue("")
			s.refresh()
		}
	case key.Matches(msg, keys.Refresh):
		return s.read()
	case key.Matches(msg, keys.Top):
		s.viewport.GotoTop()
		s.follow = false
	case key.Matches(msg, keys.Bottom):
		s.viewport.GotoBottom()
		s.follow = true
	case key.Matches(msg, keys.Down):
		s.viewport.ScrollDown(1)
		s.follow = false
	case key.Matches(msg, keys.Up):
		s.viewport.ScrollUp(1)
		s.follow = false
	case msg.String() == "pgdown" || msg.String() == "ctrl+d":
		s.viewport.HalfPageDown()
		s.follow = false
	case msg.String() == "pgup" || msg.String() == "ctrl+u":
		s.viewport.HalfPageUp()
		s.follow = false
	}
	return nil
}

func nextLogLevel(current zerolog.Level) zerolog.Level {
	for i, lvl := range logLevels {
		if lvl == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// visible applies the level and text filters.
func (s *logsScreen) visible() []logtail.Entry {
	entries := logtail.Filter(s.entries, s.level)
	if s.filter == "" {
		return entries
	}
	needle := strings.ToLower(s.filter)
	out := entries[:0:0]
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Format()), needle) {
			out = append(out, e)
		}
	}
	return out
}

// refresh marks the viewport content stale.
func (s *logsScreen) refresh() {
	s.contentVersion++
}

func (s *logsScreen) view(f frame) string {
	height := f.height - 4
	if s.searching {
		height -= 2
	}
	s.viewport.Width = max(f.width-4, 10)
	s.viewport.Height = max(height, 1)

	st := f.styles
	var b strings.Builder
	if s.searching {
		b.WriteString(s.search.View())
		b.WriteString("\n\n")
	}
	switch {
	case !s.loaded:
		b.WriteString(f.spinner + " " + st.MutedText.Render("Reading "+s.env.logFile+"..."))
		return b.String()
	case s.err != nil:
		b.WriteString(st.DangerText.Render("Could not read the log file"))
		b.WriteString("\n")
		b.WriteString(st.Text.Render(s.err.Error()))
		return b.String()
	case len(s.entries) == 0:
		b.WriteString(emptyView(f, "The log is empty", s.env.logFile))
		return b.String()
	}

	s.render(f)
	b.WriteString(s.viewport.View())
	b.WriteString("\n")

	status := fmt.Sprintf("%d of %d lines, level ≥ %s", len(s.visible()), len(s.entries), logtail.LevelTag(s.level))
	if s.filter != "" {
		status += fmt.Sprintf(", matching %q", s.filter)
	}
	if s.follow {
		status += ", following"
	} else {
		status += ", paused"
	}
	if !s.lastRefresh.IsZero() {
		status += ", read at " + s.lastRefresh.Format("15:04:05")
	}
	b.WriteString(st.FaintText.Render(status))
	return b.String()
}

// render re-colors the viewport when the entries, filters or theme changed.
func (s *logsScreen) render(f frame) {
	if s.lastRendered == s.contentVersion && s.renderedTheme == f.theme.Name {
		return
	}
	entries := s.visible()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, colorizeEntry(e, f.styles))
	}
	s.viewport.SetContent(strings.Join(lines, "\n"))
	if s.follow {
		s.viewport.GotoBottom()
	}
	s.lastRendered = s.contentVersion
	s.renderedTheme = f.theme.Name
}

func colorizeEntry(e logtail.Entry, styles Styles) string {
	if e.Level == zerolog.NoLevel && e.Message == "" {
		return styles.FaintText.Render(e.Raw)
	}
	line := e.Format()
	tag := logtail.LevelTag(e.Level)
	before, after, ok := strings.Cut(line, tag)
	if !ok {
		return styles.Text.Render(line)
	}
	return styles.FaintText.Render(before) + levelStyle(e.Level, styles).Bold(true).Render(tag) + styles.Text.Render(after)
}

// levelStyle returns the style for a log level.
func levelStyle(level zerolog.Level, styles Styles) lipgloss.Style {
	switch level {
	case zerolog.InfoLevel:
		return styles.SuccessText
	case zerolog.WarnLevel:
		return styles.WarningText
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return styles.DangerText
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return styles.InfoText
	default:
		return styles.Text
	}
}
