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

// recommendLimit is how many participant suggestions are requested.
const recommendLimit = 10

type eventPane int

const (
	paneParticipants eventPane = iota
	paneRecommendations
)

type eventDetailScreen struct {
	base
	eventID  int64
	event    viewstate.Fetch[aidb.Event]
	recs     viewstate.Fetch[aidb.Recommendations]
	members  *viewstate.Actions[int64] // keyed by contact id
	pane     eventPane
	selected [2]int
	confirm  bool
	deleting bool
	notice   string
}

type eventMsg struct {
	ticket viewstate.Ticket
	event  aidb.Event
	err    error
}

type recommendationsMsg struct {
	ticket viewstate.Ticket
	recs   aidb.Recommendations
	err    error
}

type participantMsg struct {
	contactID int64
	op        string
	status    aidb.ParticipationStatus
	err       error
}

type eventRemovedMsg struct{ err error }

func newEventDetailScreen(b base, id int64) *eventDetailScreen {
	return &eventDetailScreen{base: b, eventID: id, members: viewstate.NewActions[int64]()}
}

func (s *eventDetailScreen) route() Route    { return RouteEvent }
func (s *eventDetailScreen) capturing() bool { return false }
func (s *eventDetailScreen) init() tea.Cmd   { return s.load() }

func (s *eventDetailScreen) hints() []keyHint {
	if s.pane == paneRecommendations {
		return []keyHint{{"tab", "Participants"}, {"enter", "Invite"}, {"R", "Refresh"}, {"esc", "Events"}}
	}
	return []keyHint{{"tab", "Suggestions"}, {"s", "Status"}, {"x", "Remove"}, {"R", "Recommend"}, {"e", "Edit"}, {"d", "Delete"}, {"esc", "Events"}}
}

func (s *eventDetailScreen) load() tea.Cmd {
	ticket := s.event.Begin()
	id := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		e, err := events.Get(ctx, id)
		return eventMsg{ticket: ticket, event: e, err: err}, err
	})
}

func (s *eventDetailScreen) recommend() tea.Cmd {
	ticket := s.recs.Begin()
	id := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		recs, err := events.RecommendParticipants(ctx, id, recommendLimit)
		return recommendationsMsg{ticket: ticket, recs: recs, err: err}, err
	})
}

func (s *eventDetailScreen) participants() []aidb.EventParticipant {
	e, _ := s.event.Value()
	return e.Participants
}

func (s *eventDetailScreen) recommendations() []aidb.Recommendation {
	r, _ := s.recs.Value()
	return r.Recommendations
}

func (s *eventDetailScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		s.event.Resolve(msg.ticket, msg.event, msg.err)
		if n := len(s.participants()); s.selected[paneParticipants] >= n {
			s.selected[paneParticipants] = max(n-1, 0)
		}
	case recommendationsMsg:
		if s.recs.Resolve(msg.ticket, msg.recs, msg.err) {
			s.selected[paneRecommendations] = 0
		}
	case participantMsg:
		return s, s.applyParticipant(msg)
	case eventRemovedMsg:
		s.deleting = false
		if msg.err != nil {
			s.notice = "Delete failed: " + errorText(msg.err)
			return s, nil
		}
		return s, navigateWithFlash(RouteEvents, 0, "Event deleted")
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *eventDetailScreen) applyParticipant(msg participantMsg) tea.Cmd {
	if msg.err != nil {
		s.members.Fail(msg.contactID, msg.err)
		s.notice = titleCase(msg.op) + " failed: " + errorText(msg.err)
		return nil
	}
	s.members.Done(msg.contactID)
	switch msg.op {
	case "add":
		s.notice = "Participant invited"
		// The add response carries no participant; reload for name and email.
		return s.load()
	case "update":
		s.event.Mutate(func(e aidb.Event) aidb.Event {
			e.Participants = listops.ReplaceByID(e.Participants, msg.contactID, func(p aidb.EventParticipant) aidb.EventParticipant {
				p.ParticipationStatus = msg.status
				return p
			})
			return e
		})
		s.notice = "Status set to " + string(msg.status)
	case "remove":
		s.event.Mutate(func(e aidb.Event) aidb.Event {
			e.Participants = listops.RemoveByID(e.Participants, msg.contactID)
			e.ParticipantCount = len(e.Participants)
			return e
		})
		if n := len(s.participants()); s.selected[paneParticipants] >= n {
			s.selected[paneParticipants] = max(n-1, 0)
		}
		s.notice = "Participant removed"
	}
	return nil
}

func (s *eventDetailScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	if s.confirm {
		s.confirm = false
		s.notice = ""
		if msg.String() == "y" {
			return s.remove()
		}
		return nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		return navigate(RouteEvents, 0)
	case msg.String() == "tab":
		if s.pane == paneParticipants {
			s.pane = paneRecommendations
			if s.recs.Phase() == viewstate.Idle {
				return s.recommend()
			}
		} else {
			s.pane = paneParticipants
		}
	case key.Matches(msg, keys.Refresh):
		return s.load()
	case key.Matches(msg, keys.Recommend):
		s.pane = paneRecommendations
		return s.recommend()
	case key.Matches(msg, keys.Edit):
		if _, ok := s.event.Value(); ok {
			return navigate(RouteEventForm, s.eventID)
		}
	case key.Matches(msg, keys.Delete):
		if e, ok := s.event.Value(); ok {
			s.confirm = true
			s.notice = fmt.Sprintf("Delete %s? y/n", e.Name)
		}
	case s.pane == paneRecommendations && key.Matches(msg, keys.Open):
		recs := s.recommendations()
		if i := s.selected[paneRecommendations]; i < len(recs) {
			return s.invite(recs[i].Contact.ID)
		}
	case s.pane == paneParticipants && key.Matches(msg, keys.CycleStatus):
		parts := s.participants()
		if i := s.selected[paneParticipants]; i < len(parts) {
			return s.setStatus(parts[i].ContactID, parts[i].ParticipationStatus.Next())
		}
	case s.pane == paneParticipants && key.Matches(msg, keys.RemoveMember):
		parts := s.participants()
		if i := s.selected[paneParticipants]; i < len(parts) {
			return s.removeParticipant(parts[i].ContactID)
		}
	default:
		n := len(s.participants())
		if s.pane == paneRecommendations {
			n = len(s.recommendations())
		}
		s.selected[s.pane] = moveSelection(s.selected[s.pane], n, msg.String())
	}
	return nil
}

func (s *eventDetailScreen) invite(contactID int64) tea.Cmd {
	for _, p := range s.participants() {
		if p.ContactID == contactID {
			s.notice = "Already a participant"
			return nil
		}
	}
	if !s.members.Start(contactID, "add") {
		return nil
	}
	eventID := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		_, err := events.AddParticipant(ctx, eventID, aidb.ParticipantDraft{ContactID: contactID})
		return participantMsg{contactID: contactID, op: "add", err: err}, err
	})
}

func (s *eventDetailScreen) setStatus(contactID int64, status aidb.ParticipationStatus) tea.Cmd {
	if !s.members.Start(contactID, "update") {
		return nil
	}
	eventID := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		_, err := events.UpdateParticipant(ctx, eventID, contactID, aidb.ParticipantUpdate{ParticipationStatus: status})
		return participantMsg{contactID: contactID, op: "update", status: status, err: err}, err
	})
}

func (s *eventDetailScreen) removeParticipant(contactID int64) tea.Cmd {
	if !s.members.Start(contactID, "remove") {
		return nil
	}
	eventID := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		err := events.RemoveParticipant(ctx, eventID, contactID)
		return participantMsg{contactID: contactID, op: "remove", err: err}, err
	})
}

func (s *eventDetailScreen) remove() tea.Cmd {
	if s.deleting {
		return nil
	}
	s.deleting = true
	id := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		err := events.Delete(ctx, id)
		return eventRemovedMsg{err: err}, err
	})
}

func (s *eventDetailScreen) view(f frame) string {
	snap := s.event.Snapshot()
	if out, ok := stateView(f, snap, "event", "Event not found"); ok {
		return out
	}
	e := snap.Value
	st := f.styles

	var b strings.Builder
	b.WriteString(st.Text.Bold(true).Render(e.Name))
	b.WriteString("  ")
	b.WriteString(st.StatusStyle(string(e.Status)).Render(e.Status.Label()))
	b.WriteString("\n\n")
	capacity := fmt.Sprintf("%d", len(e.Participants))
	if e.MaxParticipants != nil {
		capacity += fmt.Sprintf(" of %d", *e.MaxParticipants)
	}
	for _, r := range []struct{ label, value string }{
		{"Type", dash(e.EventType)},
		{"Date", formatDate(e.ParsedEventDate())},
		{"Location", dash(e.Location)},
		{"Capacity", capacity},
	} {
		b.WriteString(st.MutedText.Render(padRight(r.label, 10)))
		b.WriteString(st.Text.Render(r.value))
		b.WriteString("\n")
	}
	if e.Description != "" {
		b.WriteString("\n")
		b.WriteString(st.Text.Render(e.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.paneTitle(f, "Participants", paneParticipants))
	b.WriteString("\n")
	if len(e.Participants) == 0 {
		b.WriteString(st.FaintText.Render("No participants. R to get suggestions."))
		b.WriteString("\n")
	}
	for i, p := range e.Participants {
		row := fmt.Sprintf("%-24s %-28s %-10s", truncate(dash(p.Name), 24), truncate(dash(p.Email), 28), p.ParticipationStatus)
		if p.InterestLevel != nil {
			row += fmt.Sprintf(" interest %d/10", *p.InterestLevel)
		}
		if s.members.Get(p.ContactID).Phase == viewstate.InProgress {
			row += "  ..."
		}
		b.WriteString(listRow(f, row, s.pane == paneParticipants && i == s.selected[paneParticipants]))
		b.WriteString("\n")
	}

	if s.pane == paneRecommendations || s.recs.Phase() != viewstate.Idle {
		b.WriteString("\n")
		b.WriteString(s.paneTitle(f, "Suggested participants", paneRecommendations))
		b.WriteString("\n")
		recSnap := s.recs.Snapshot()
		if out, ok := stateView(f, recSnap, "suggestions", ""); ok {
			b.WriteString(out)
			b.WriteString("\n")
		} else if len(recSnap.Value.Recommendations) == 0 {
			b.WriteString(st.FaintText.Render("No suggestions for this event"))
			b.WriteString("\n")
		}
		for i, r := range recSnap.Value.Recommendations {
			row := fmt.Sprintf("%-24s %.2f  %s", truncate(r.Contact.Name, 24), r.SimilarityScore, truncate(r.MatchReason, 50))
			if s.members.Get(r.Contact.ID).Phase == viewstate.InProgress {
				row += "  inviting..."
			}
			b.WriteString(listRow(f, row, s.pane == paneRecommendations && i == s.selected[paneRecommendations]))
			b.WriteString("\n")
		}
	}

	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(st.WarningText.Render(s.notice))
	}
	return b.String()
}

func (s *eventDetailScreen) paneTitle(f frame, title string, pane eventPane) string {
	if s.pane == pane {
		return f.styles.AccentText.Bold(true).Render("▸ " + title)
	}
	return f.styles.MutedText.Bold(true).Render("  " + title)
}
