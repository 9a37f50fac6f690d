package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/viewstate"
)

// eventFormScreen creates an event (id 0) or edits one. New events always
// start as planned, so the status field only appears when editing.
type eventFormScreen struct {
	base
	eventID  int64
	existing viewstate.Fetch[aidb.Event]
	form     form
	ready    bool
	saving   bool
}

type eventSavedMsg struct {
	event aidb.Event
	err   error
}

func newEventFormScreen(b base, id int64) *eventFormScreen {
	s := &eventFormScreen{base: b, eventID: id}
	if id == 0 {
		s.form = eventForm(aidb.EventDraft{}, false)
		s.ready = true
	}
	return s
}

func eventForm(d aidb.EventDraft, editing bool) form {
	date := ""
	if d.EventDate != "" {
		if t, err := aidb.ParseEventDate(d.EventDate); err == nil {
			date = t.Format("2006-01-02 15:04")
		} else {
			date = d.EventDate
		}
	}
	capacity := ""
	if d.MaxParticipants != nil {
		capacity = strconv.Itoa(*d.MaxParticipants)
	}
	specs := []fieldSpec{
		{key: "name", label: "Name", value: d.Name},
		{key: "description", label: "Description", value: d.Description},
		{key: "event_type", label: "Type", value: d.EventType, placeholder: "meetup, workshop, dinner"},
		{key: "location", label: "Location", value: d.Location},
		{key: "event_date", label: "Date", value: date, placeholder: "2006-01-02 15:04"},
		{key: "max_participants", label: "Max participants", value: capacity, limit: 4},
	}
	if editing {
		specs = append(specs, fieldSpec{
			key: "status", label: "Status", value: string(d.Status),
			placeholder: "planned, active, completed, cancelled",
		})
	}
	return newForm(specs...)
}

func (s *eventFormScreen) route() Route    { return RouteEventForm }
func (s *eventFormScreen) capturing() bool { return s.ready }

func (s *eventFormScreen) hints() []keyHint {
	return []keyHint{{"tab", "Next"}, {"shift+tab", "Prev"}, {"ctrl+s", "Save"}, {"esc", "Cancel"}}
}

func (s *eventFormScreen) init() tea.Cmd {
	if s.eventID == 0 {
		return nil
	}
	ticket := s.existing.Begin()
	id := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		e, err := events.Get(ctx, id)
		return eventMsg{ticket: ticket, event: e, err: err}, err
	})
}

func (s *eventFormScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		if s.existing.Resolve(msg.ticket, msg.event, msg.err) && msg.err == nil {
			s.form = eventForm(aidb.DraftFromEvent(msg.event), true)
			s.ready = true
		}
		return s, nil

	case eventSavedMsg:
		s.saving = false
		if msg.err != nil {
			s.form.setError(msg.err)
			return s, nil
		}
		verb := "created"
		if s.eventID != 0 {
			verb = "updated"
		}
		return s, navigateWithFlash(RouteEvent, msg.event.ID, "Event "+verb)

	case tea.KeyMsg:
		keys := s.env.keys
		switch {
		case key.Matches(msg, keys.Back):
			if s.eventID != 0 {
				return s, navigate(RouteEvent, s.eventID)
			}
			return s, navigate(RouteEvents, 0)
		case !s.ready:
			if key.Matches(msg, keys.Refresh) {
				return s, s.init()
			}
			return s, nil
		case key.Matches(msg, keys.Save):
			return s, s.submit()
		}
	}
	if !s.ready {
		return s, nil
	}
	return s, s.form.update(msg, s.env.keys)
}

func (s *eventFormScreen) draft() (aidb.EventDraft, error) {
	f := s.form
	d := aidb.EventDraft{
		Name:        f.value("name"),
		Description: f.value("description"),
		EventType:   f.value("event_type"),
		Location:    f.value("location"),
		EventDate:   f.value("event_date"),
		Status:      aidb.EventStatus(f.value("status")),
	}
	if v := f.value("max_participants"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return d, &aidb.ValidationError{Fields: map[string]string{
				"max_participants": "max participants must be a number",
			}}
		}
		d.MaxParticipants = &n
	}
	return d, nil
}

func (s *eventFormScreen) submit() tea.Cmd {
	if s.saving {
		return nil
	}
	d, err := s.draft()
	if err == nil {
		err = d.Validate()
	}
	if err != nil {
		s.form.setError(err)
		return nil
	}
	d = d.Normalize()
	s.form.setError(nil)
	s.saving = true
	id := s.eventID
	events := s.env.client.Events
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		var (
			e   aidb.Event
			err error
		)
		if id == 0 {
			e, err = events.Create(ctx, d)
		} else {
			e, err = events.Update(ctx, id, d)
		}
		return eventSavedMsg{event: e, err: err}, err
	})
}

func (s *eventFormScreen) view(f frame) string {
	if !s.ready {
		if out, ok := stateView(f, s.existing.Snapshot(), "event", "Event not found"); ok {
			return out
		}
	}
	var b strings.Builder
	title := "New event"
	if s.eventID != 0 {
		title = fmt.Sprintf("Edit event #%d", s.eventID)
	}
	b.WriteString(f.styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")
	b.WriteString(s.form.view(f.styles, min(f.width, 100)))
	if s.saving {
		b.WriteString("\n")
		b.WriteString(f.spinner + " " + f.styles.MutedText.Render("Saving..."))
	}
	return b.String()
}
