package aidb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// EventsAPI wraps the /events resource.
type EventsAPI struct{ c *Client }

// EventFilter narrows GET /events. Status accepts either vocabulary and is
// sent in canonical form.
type EventFilter struct {
	Status    string
	EventType string
	Skip      int
	Limit     int
}

func (f EventFilter) values() url.Values {
	q := pageValues(f.Skip, f.Limit)
	if s := strings.TrimSpace(f.Status); s != "" {
		q.Set("status", string(NormalizeEventStatus(s)))
	}
	if t := strings.TrimSpace(f.EventType); t != "" {
		q.Set("event_type", t)
	}
	return q
}

// List returns events in server order.
func (api *EventsAPI) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	var out []Event
	err := api.c.do(ctx, request{
		op:     "list events",
		method: http.MethodGet,
		route:  "/events",
		path:   "/events/",
		query:  filter.values(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one event with its participants.
func (api *EventsAPI) Get(ctx context.Context, id int64) (Event, error) {
	var out Event
	err := api.c.do(ctx, request{
		op:       "get event",
		method:   http.MethodGet,
		route:    "/events/{id}",
		path:     fmt.Sprintf("/events/%d", id),
		resource: "event",
		id:       id,
	}, &out)
	return out, err
}

// Create validates and submits a new event. The backend ignores status on
// create; new events always start planned.
func (api *EventsAPI) Create(ctx context.Context, draft EventDraft) (Event, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return Event{}, err
	}
	draft.Status = ""
	var out Event
	err := api.c.do(ctx, request{
		op:     "create event",
		method: http.MethodPost,
		route:  "/events",
		path:   "/events/",
		body:   draft,
	}, &out)
	return out, err
}

// Update validates and submits changes to an event.
func (api *EventsAPI) Update(ctx context.Context, id int64, draft EventDraft) (Event, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return Event{}, err
	}
	var out Event
	err := api.c.do(ctx, request{
		op:       "update event",
		method:   http.MethodPut,
		route:    "/events/{id}",
		path:     fmt.Sprintf("/events/%d", id),
		body:     draft,
		resource: "event",
		id:       id,
	}, &out)
	return out, err
}

// Delete removes an event.
func (api *EventsAPI) Delete(ctx context.Context, id int64) error {
	return api.c.do(ctx, request{
		op:       "delete event",
		method:   http.MethodDelete,
		route:    "/events/{id}",
		path:     fmt.Sprintf("/events/%d", id),
		resource: "event",
		id:       id,
	}, nil)
}

// AddParticipant links a contact to an event.
func (api *EventsAPI) AddParticipant(ctx context.Context, eventID int64, draft ParticipantDraft) (MessageResult, error) {
	if draft.ParticipationStatus == "" {
		draft.ParticipationStatus = ParticipationInvited
	}
	if err := draft.Validate(); err != nil {
		return MessageResult{}, err
	}
	var out MessageResult
	err := api.c.do(ctx, request{
		op:       "add participant",
		method:   http.MethodPost,
		route:    "/events/{id}/participants",
		path:     fmt.Sprintf("/events/%d/participants", eventID),
		body:     draft,
		resource: "event",
		id:       eventID,
	}, &out)
	return out, err
}

// UpdateParticipant changes a participation. The backend reads these fields
// from the query string rather than a JSON body.
func (api *EventsAPI) UpdateParticipant(ctx context.Context, eventID, contactID int64, update ParticipantUpdate) (MessageResult, error) {
	if err := update.Validate(); err != nil {
		return MessageResult{}, err
	}
	q := url.Values{}
	q.Set("participation_status", string(update.ParticipationStatus))
	if update.InterestLevel != nil {
		q.Set("interest_level", strconv.Itoa(*update.InterestLevel))
	}
	if update.Notes != nil {
		q.Set("notes", *update.Notes)
	}
	var out MessageResult
	err := api.c.do(ctx, request{
		op:       "update participant",
		method:   http.MethodPut,
		route:    "/events/{id}/participants/{contact_id}",
		path:     fmt.Sprintf("/events/%d/participants/%d", eventID, contactID),
		query:    q,
		resource: "participation",
		id:       contactID,
	}, &out)
	return out, err
}

// RemoveParticipant unlinks a contact from an event.
func (api *EventsAPI) RemoveParticipant(ctx context.Context, eventID, contactID int64) error {
	return api.c.do(ctx, request{
		op:       "remove participant",
		method:   http.MethodDelete,
		route:    "/events/{id}/participants/{contact_id}",
		path:     fmt.Sprintf("/events/%d/participants/%d", eventID, contactID),
		resource: "participation",
		id:       contactID,
	}, nil)
}

// RecommendParticipants asks the backend for contacts matching the event.
func (api *EventsAPI) RecommendParticipants(ctx context.Context, eventID int64, limit int) (Recommendations, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out Recommendations
	err := api.c.do(ctx, request{
		op:       "recommend participants",
		method:   http.MethodPost,
		route:    "/events/{id}/recommend-participants",
		path:     fmt.Sprintf("/events/%d/recommend-participants", eventID),
		query:    q,
		resource: "event",
		id:       eventID,
	}, &out)
	return out, err
}
