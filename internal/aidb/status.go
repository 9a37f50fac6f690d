package aidb

import (
	"encoding/json"
	"strings"
)

// EventStatus is the canonical event lifecycle vocabulary. Older screens of
// the backend used upcoming/ongoing for planned/active; those spellings are
// translated here and never leave this package.
type EventStatus string

const (
	EventPlanned   EventStatus = "planned"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// EventStatuses lists the canonical statuses in lifecycle order.
var EventStatuses = []EventStatus{EventPlanned, EventActive, EventCompleted, EventCancelled}

var eventStatusAliases = map[string]EventStatus{
	"planned":   EventPlanned,
	"upcoming":  EventPlanned,
	"active":    EventActive,
	"ongoing":   EventActive,
	"completed": EventCompleted,
	"cancelled": EventCancelled,
	"canceled":  EventCancelled,
}

// NormalizeEventStatus maps any known spelling to the canonical status.
// Unknown values are returned lower-cased and trimmed so they still render.
func NormalizeEventStatus(raw string) EventStatus {
	key := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := eventStatusAliases[key]; ok {
		return status
	}
	return EventStatus(key)
}

// Valid reports whether s is one of the canonical statuses.
func (s EventStatus) Valid() bool {
	for _, known := range EventStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns a title-cased display label.
func (s EventStatus) Label() string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Next cycles through the canonical statuses.
func (s EventStatus) Next() EventStatus {
	for i, known := range EventStatuses {
		if s == known {
			return EventStatuses[(i+1)%len(EventStatuses)]
		}
	}
	return EventStatuses[0]
}

// UnmarshalJSON normalizes the status on the way in.
func (s *EventStatus) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = ""
		return nil
	}
	*s = NormalizeEventStatus(*raw)
	return nil
}

// ParticipationStatus describes a contact's standing in an event.
type ParticipationStatus string

const (
	ParticipationInvited   ParticipationStatus = "invited"
	ParticipationConfirmed ParticipationStatus = "confirmed"
	ParticipationAttended  ParticipationStatus = "attended"
	ParticipationDeclined  ParticipationStatus = "declined"
)

// ParticipationStatuses lists the statuses in cycle order.
var ParticipationStatuses = []ParticipationStatus{
	ParticipationInvited, ParticipationConfirmed, ParticipationAttended, ParticipationDeclined,
}

// Valid reports whether p is a known participation status.
func (p ParticipationStatus) Valid() bool {
	for _, known := range ParticipationStatuses {
		if p == known {
			return true
		}
	}
	return false
}

// Next cycles through the participation statuses.
func (p ParticipationStatus) Next() ParticipationStatus {
	for i, known := range ParticipationStatuses {
		if p == known {
			return ParticipationStatuses[(i+1)%len(ParticipationStatuses)]
		}
	}
	return ParticipationStatuses[0]
}
