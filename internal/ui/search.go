package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/viewstate"
)

// historyLimit is how many past queries the search screen shows.
const historyLimit = 10

// searchScreen runs natural-language queries. Before the first query it
// shows suggestions and recent history; picking either reruns it.
type searchScreen struct {
	base
	input    textinput.Model
	editing  bool
	results  viewstate.Fetch[aidb.QueryResult]
	starters viewstate.Fetch[searchStarters]
	selected int
}

// searchStarters is what the screen offers before a query has run.
type searchStarters struct {
	suggestions []string
	history     []aidb.QueryHistoryEntry
}

func (s searchStarters) items() []string {
	out := append([]string(nil), s.suggestions...)
	seen := map[string]bool{}
	for _, q := range out {
		seen[q] = true
	}
	for _, h := range s.history {
		if !seen[h.QueryText] {
			seen[h.QueryText] = true
			out = append(out, h.QueryText)
		}
	}
	return out
}

type searchResultMsg struct {
	ticket viewstate.Ticket
	result aidb.QueryResult
	err    error
}

type startersMsg struct {
	ticket   viewstate.Ticket
	starters searchStarters
	err      error
}

func newSearchScreen(b base) *searchScreen {
	in := textinput.New()
	in.Prompt = "? "
	in.Placeholder = "who works in fintech and likes hiking?"
	in.CharLimit = 500
	in.Focus()
	return &searchScreen{base: b, input: in, editing: true}
}

func (s *searchScreen) route() Route    { return RouteSearch }
func (s *searchScreen) capturing() bool { return s.editing }

func (s *searchScreen) init() tea.Cmd {
	return tea.Batch(textinput.Blink, s.loadStarters())
}

func (s *searchScreen) hints() []keyHint {
	if s.editing {
		return []keyHint{{"enter", "Search"}, {"down", "Pick"}, {"esc", "Leave input"}}
	}
	if s.results.Phase() == viewstate.Idle {
		return []keyHint{{"j/k", "Navigate"}, {"enter", "Run"}, {"/", "Edit query"}}
	}
	return []keyHint{{"j/k", "Navigate"}, {"enter", "Open contact"}, {"/", "Edit query"}, {"r", "Rerun"}}
}

// loadStarters fetches suggestions and history together. Either may fail
// without hiding the other.
func (s *searchScreen) loadStarters() tea.Cmd {
	ticket := s.starters.Begin()
	query := s.env.client.Query
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		var (
			out                searchStarters
			sugErr, historyErr error
		)
		var g errgroup.Group
		g.Go(func() error {
			sug, err := query.Suggestions(ctx)
			out.suggestions, sugErr = sug.Suggestions, err
			return nil
		})
		g.Go(func() error {
			out.history, historyErr = query.History(ctx, 0, historyLimit)
			return nil
		})
		_ = g.Wait()

		for _, err := range []error{sugErr, historyErr} {
			if aidb.IsUnauthorized(err) {
				return startersMsg{ticket: ticket, err: err}, err
			}
		}
		var err error
		if sugErr != nil && historyErr != nil {
			err = sugErr
		}
		return startersMsg{ticket: ticket, starters: out, err: err}, nil
	})
}

func (s *searchScreen) run() tea.Cmd {
	text := strings.TrimSpace(s.input.Value())
	if text == "" {
		return nil
	}
	s.editing = false
	s.input.Blur()
	ticket := s.results.Begin()
	limit := s.env.prefs.SearchLimit
	vector := s.env.prefs.VectorSearch
	query := s.env.client.Query
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		res, err := query.Search(ctx, text, limit, vector)
		return searchResultMsg{ticket: ticket, result: res, err: err}, err
	})
}

func (s *searchScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultMsg:
		if s.results.Resolve(msg.ticket, msg.result, msg.err) {
			s.selected = 0
		}
		return s, nil
	case startersMsg:
		s.starters.Resolve(msg.ticket, msg.starters, msg.err)
		return s, nil
	case tea.KeyMsg:
		if s.editing {
			return s, s.updateInput(msg)
		}
		return s, s.handleKey(msg)
	}
	if s.editing {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *searchScreen) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return s.run()
	case "esc", "down":
		s.editing = false
		s.input.Blur()
		return nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

// rows returns the selectable entries for the current state.
func (s *searchScreen) rows() int {
	if s.results.Phase() == viewstate.Idle {
		st, _ := s.starters.Value()
		return len(st.items())
	}
	res, _ := s.results.Value()
	return len(res.Results)
}

func (s *searchScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	switch {
	case key.Matches(msg, keys.Search):
		s.editing = true
		return s.input.Focus()
	case key.Matches(msg, keys.Back):
		if s.results.Phase() != viewstate.Idle {
			s.results.Reset()
			s.selected = 0
			s.editing = true
			return tea.Batch(s.input.Focus(), s.loadStarters())
		}
	case key.Matches(msg, keys.Refresh):
		if s.results.Phase() == viewstate.Idle {
			return s.loadStarters()
		}
		return s.run()
	case key.Matches(msg, keys.Open):
		if s.results.Phase() == viewstate.Idle {
			st, _ := s.starters.Value()
			if items := st.items(); s.selected < len(items) {
				s.input.SetValue(items[s.selected])
				return s.run()
			}
			return nil
		}
		res, _ := s.results.Value()
		if s.selected < len(res.Results) {
			return navigate(RouteContact, res.Results[s.selected].Contact.ID)
		}
	default:
		s.selected = moveSelection(s.selected, s.rows(), msg.String())
	}
	return nil
}

func (s *searchScreen) view(f frame) string {
	st := f.styles
	var b strings.Builder
	b.WriteString(s.input.View())
	b.WriteString("\n")
	mode := "keyword"
	if s.env.prefs.VectorSearch {
		mode = "vector"
	}
	b.WriteString(st.FaintText.Render(fmt.Sprintf("%s search, up to %d results", mode, s.env.prefs.SearchLimit)))
	b.WriteString("\n\n")

	if s.results.Phase() == viewstate.Idle {
		b.WriteString(s.startersView(f))
		return b.String()
	}

	snap := s.results.Snapshot()
	if out, ok := stateView(f, snap, "results", ""); ok {
		b.WriteString(out)
		return b.String()
	}
	res := snap.Value
	if len(res.Results) == 0 {
		b.WriteString(emptyView(f, "No contacts matched", "/ to refine the query"))
		return b.String()
	}
	start, end := scrollWindow(len(res.Results), s.selected, f.height-10)
	for i := start; i < end; i++ {
		r := res.Results[i]
		row := fmt.Sprintf("%5.2f  %-24s %-22s %s",
			r.SimilarityScore, truncate(r.Contact.FullName(), 24),
			truncate(dash(r.Contact.Company), 22), truncate(r.MatchReason, max(f.width-64, 10)))
		b.WriteString(listRow(f, row, i == s.selected))
		b.WriteString("\n")
	}
	summary := fmt.Sprintf("%d results via %s in %dms", len(res.Results), dash(res.SearchMethod), res.ExecutionTimeMS)
	b.WriteString(st.FaintText.Render(summary))
	if res.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(st.MutedText.Render(truncate(res.Explanation, max(f.width-4, 20))))
	}
	return b.String()
}

func (s *searchScreen) startersView(f frame) string {
	st := f.styles
	snap := s.starters.Snapshot()
	if snap.Phase == viewstate.Loading {
		return f.spinner + " " + st.MutedText.Render("Loading suggestions...")
	}
	starters := snap.Value
	if len(starters.items()) == 0 {
		return emptyView(f, "Ask about your contacts in plain language", "")
	}
	var b strings.Builder
	if len(starters.suggestions) > 0 {
		b.WriteString(st.AccentText.Bold(true).Render("Try"))
		b.WriteString("\n")
	}
	items := starters.items()
	for i, text := range items {
		if i == len(starters.suggestions) {
			b.WriteString("\n")
			b.WriteString(st.AccentText.Bold(true).Render("Recent"))
			b.WriteString("\n")
		}
		b.WriteString(listRow(f, text, !s.editing && i == s.selected))
		b.WriteString("\n")
	}
	return b.String()
}
