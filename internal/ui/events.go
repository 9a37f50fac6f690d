package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/listops"
	"github.com/padbhq/padb/internal/viewstate"
)

type eventsScreen struct {
	base
	list     viewstate.Fetch[[]aidb.Event]
	deletes  *viewstate.Actions[int64]
	selected int
	status   aidb.EventStatus // "" means all
	confirm  int64
	notice   string
}

type eventsMsg struct {
	ticket viewstate.Ticket
	events []aidb.Event
	err    error
}

type eventDeletedMsg struct {
	id  int64
	err error
}

func newEventsScreen(b base) *eventsScreen {
	return &eventsScreen{base: b, deletes: viewstate.NewActions[int64]()}
}

func (s *eventsScreen) route() Route    { return RouteEvents }
func (s *eventsScreen) capturing() bool { return false }
func (s *eventsScreen) init() tea.Cmd   { return s.load() }

func (s *eventsScreen) hints() []keyHint {
	return []keyHint{{"j/k", "Navigate"}, {"enter", "Open"}, {"f", s.filterLabel()}, {"n", "New"}, {"e", "Edit"}, {"d", "Delete"}, {"r", "Refresh"}}
}

func (s *eventsScreen) filterLabel() string {
	if s.status == "" {
		return "All"
	}
	return s.status.Label()
}

// cycleFilter walks All → planned → ... → cancelled → All.
func (s *eventsScreen) cycleFilter() {
	if s.status == aidb.EventStatuses[len(aidb.EventStatuses)-1] {
		s.status = ""
		return
	}
	if s.status == "" {
		s.status = aidb.EventStatuses[0]
		return
	}
	s.status = s.status.Next()
}

func (s *eventsScreen) load() tea.Cmd {
	ticket := s.list.Begin()
	filter := aidb.EventFilter{Status: string(s.status), Limit: s.env.prefs.PageSize}
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		list, err := events.List(ctx, filter)
		return eventsMsg{ticket: ticket, events: list, err: err}, err
	})
}

func (s *eventsScreen) current() (aidb.Event, bool) {
	list, ok := s.list.Value()
	if !ok || s.selected < 0 || s.selected >= len(list) {
		return aidb.Event{}, false
	}
	return list[s.selected], true
}

func (s *eventsScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case eventsMsg:
		if s.list.Resolve(msg.ticket, msg.events, msg.err) {
			s.selected = 0
		}
	case eventDeletedMsg:
		if msg.err != nil {
			s.deletes.Fail(msg.id, msg.err)
			s.notice = "Delete failed: " + errorText(msg.err)
			return s, nil
		}
		s.deletes.Done(msg.id)
		s.list.Mutate(func(list []aidb.Event) []aidb.Event {
			return listops.RemoveByID(list, msg.id)
		})
		if list, _ := s.list.Value(); s.selected >= len(list) && s.selected > 0 {
			s.selected--
		}
		s.notice = "Event deleted"
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *eventsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	if s.confirm != 0 {
		id := s.confirm
		s.confirm = 0
		s.notice = ""
		if msg.String() == "y" {
			return s.remove(id)
		}
		return nil
	}
	list, _ := s.list.Value()
	switch {
	case key.Matches(msg, keys.Filter):
		s.cycleFilter()
		return s.load()
	case key.Matches(msg, keys.Refresh):
		return s.load()
	case key.Matches(msg, keys.New):
		return navigate(RouteEventForm, 0)
	case key.Matches(msg, keys.Open):
		if e, ok := s.current(); ok {
			return navigate(RouteEvent, e.ID)
		}
	case key.Matches(msg, keys.Edit):
		if e, ok := s.current(); ok {
			return navigate(RouteEventForm, e.ID)
		}
	case key.Matches(msg, keys.Delete):
		if e, ok := s.current(); ok {
			s.confirm = e.ID
			s.notice = fmt.Sprintf("Delete %s? y/n", e.Name)
		}
	default:
		s.selected = moveSelection(s.selected, len(list), msg.String())
	}
	return nil
}

func (s *eventsScreen) remove(id int64) tea.Cmd {
	if !s.deletes.Start(id, "delete") {
		return nil
	}
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		err := events.Delete(ctx, id)
		return eventDeletedMsg{id: id, err: err}, err
	})
}

func (s *eventsScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(f.styles.MutedText.Render("Status: "))
	b.WriteString(f.styles.AccentText.Render(s.filterLabel()))
	b.WriteString("\n\n")

	snap := s.list.Snapshot()
	if out, ok := stateView(f, snap, "events", ""); ok {
		b.WriteString(out)
		return b.String()
	}
	list := snap.Value
	if len(list) == 0 {
		b.WriteString(emptyView(f, "No events", "n to create one, f to change the filter"))
		return b.String()
	}

	b.WriteString(f.styles.MutedText.Bold(true).Render(
		fmt.Sprintf("%-30s %-12s %-16s %-20s %s", "Name", "Status", "Date", "Location", "Participants")))
	b.WriteString("\n")
	start, end := scrollWindow(len(list), s.selected, f.height-6)
	for i := start; i < end; i++ {
		e := list[i]
		capacity := fmt.Sprintf("%d", e.ParticipantCount)
		if e.MaxParticipants != nil {
			capacity += fmt.Sprintf("/%d", *e.MaxParticipants)
		}
		row := fmt.Sprintf("%-30s %-12s %-16s %-20s %s",
			truncate(e.Name, 30), e.Status.Label(), formatDate(e.ParsedEventDate()),
			truncate(dash(e.Location), 20), capacity)
		b.WriteString(listRow(f, row, i == s.selected))
		b.WriteString("\n")
	}
	b.WriteString(f.styles.FaintText.Render(fmt.Sprintf("%d events", len(list))))
	if s.notice != "" {
		b.WriteString("  ")
		b.WriteString(f.styles.WarningText.Render(s.notice))
	}
	return b.String()
}
