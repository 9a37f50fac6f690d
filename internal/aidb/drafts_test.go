package aidb

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	ve, ok := err.(*ValidationError)
	require.True(t, ok, "want *ValidationError, got %T", err)
	return ve.Fields
}

func TestContactDraftValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft ContactDraft
		want  []string
	}{
		{"minimal", ContactDraft{FirstName: "Ada"}, nil},
		{"blank first name", ContactDraft{FirstName: "   "}, []string{"first_name"}},
		{"age bounds", ContactDraft{FirstName: "Ada", Age: intPtr(0)}, []string{"age"}},
		{"age upper", ContactDraft{FirstName: "Ada", Age: intPtr(121)}, []string{"age"}},
		{"email", ContactDraft{FirstName: "Ada", Email: "ada.example.com"}, []string{"email"}},
		{
			"interest",
			ContactDraft{FirstName: "Ada", Interests: []ContactInterest{{Category: "Music"}, {Value: "Jazz", ConfidenceScore: floatPtr(1.5)}}},
			[]string{"interests[0].interest_value", "interests[1].confidence_score"},
		},
		{
			"skill",
			ContactDraft{FirstName: "Ada", Skills: []ContactSkill{{Level: "Guru"}, {Name: "Go", YearsExperience: intPtr(51)}}},
			[]string{"skills[0].skill_name", "skills[0].skill_level", "skills[1].years_experience"},
		},
		{
			"skill level case-insensitive",
			ContactDraft{FirstName: "Ada", Skills: []ContactSkill{{Name: "Go", Level: "expert"}}},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validationFields(t, tt.draft.Validate())
			got := make([]string, 0, len(fields))
			for k := range fields {
				got = append(got, k)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestContactDraftNormalize(t *testing.T) {
	d := ContactDraft{
		FirstName: "  Ada ",
		Interests: []ContactInterest{{Value: " Jazz "}},
		Skills:    []ContactSkill{{Name: "Go", Level: "advanced"}},
	}.Normalize()

	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, DefaultInterestCategory, d.Interests[0].Category)
	assert.Equal(t, "Jazz", d.Interests[0].Value)
	assert.Equal(t, "Advanced", d.Skills[0].Level)

	empty := ContactDraft{FirstName: "Ada"}.Normalize()
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"interests":[]`)
	assert.NotContains(t, string(raw), `"age"`)
}

func TestDraftFromContactDropsChildIDs(t *testing.T) {
	c := Contact{ID: 3, FirstName: "Ada", Interests: []ContactInterest{{ID: 9, Value: "Jazz"}}, Skills: []ContactSkill{{ID: 4, Name: "Go"}}}
	d := DraftFromContact(c)
	assert.Zero(t, d.Interests[0].ID)
	assert.Zero(t, d.Skills[0].ID)
	assert.Equal(t, int64(9), c.Interests[0].ID)
}

func TestEventDraftValidate(t *testing.T) {
	assert.NoError(t, EventDraft{Name: "Meetup", Status: "ongoing"}.Validate())

	fields := validationFields(t, EventDraft{MaxParticipants: intPtr(1001), EventDate: "next friday", Status: "someday"}.Validate())
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "max_participants")
	assert.Contains(t, fields, "event_date")
	assert.Contains(t, fields, "status")
}

func TestEventDraftNormalize(t *testing.T) {
	d := EventDraft{Name: " Meetup ", Status: "Upcoming", EventDate: "2026-03-04"}.Normalize()
	assert.Equal(t, "Meetup", d.Name)
	assert.Equal(t, EventPlanned, d.Status)
	assert.Equal(t, "2026-03-04T00:00:00", d.EventDate)
}

func TestParticipantValidation(t *testing.T) {
	assert.NoError(t, ParticipantDraft{ContactID: 1}.Validate())
	fields := validationFields(t, ParticipantDraft{ParticipationStatus: "maybe", InterestLevel: intPtr(11)}.Validate())
	assert.Len(t, fields, 3)

	assert.Error(t, ParticipantUpdate{}.Validate())
	assert.NoError(t, ParticipantUpdate{ParticipationStatus: ParticipationAttended}.Validate())
}

func TestPasswordChangeValidate(t *testing.T) {
	assert.NoError(t, PasswordChange{Current: "old", New: "newer", Confirm: "newer"}.Validate())

	fields := validationFields(t, PasswordChange{New: "abc", Confirm: "abd"}.Validate())
	assert.Contains(t, fields, "current_password")
	assert.Contains(t, fields, "new_password")
	assert.Contains(t, fields, "confirm_password")
}

func TestLoginDraftValidate(t *testing.T) {
	assert.NoError(t, LoginDraft{Email: "a@b.c", Password: "x"}.Validate())
	fields := validationFields(t, LoginDraft{Email: "nope"}.Validate())
	assert.Equal(t, "email must contain @", fields["email"])
	assert.Contains(t, fields, "password")
}

func TestValidateAudioFileName(t *testing.T) {
	for _, name := range []string{"a.mp3", "b.WAV", "dir/c.m4a", "d.flac"} {
		assert.NoError(t, ValidateAudioFileName(name), name)
	}
	for _, name := range []string{"a.ogg", "noext", "mp3"} {
		assert.Error(t, ValidateAudioFileName(name), name)
	}
}

func TestEventStatusNormalization(t *testing.T) {
	tests := map[string]EventStatus{
		"upcoming":  EventPlanned,
		" Ongoing ": EventActive,
		"CANCELED":  EventCancelled,
		"completed": EventCompleted,
		"postponed": EventStatus("postponed"),
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeEventStatus(in), in)
	}
	assert.False(t, NormalizeEventStatus("postponed").Valid())

	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"upcoming"}`), &e))
	assert.Equal(t, EventPlanned, e.Status)
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":null}`), &e))
	assert.Equal(t, EventStatus(""), e.Status)

	assert.Equal(t, EventActive, EventPlanned.Next())
	assert.Equal(t, EventPlanned, EventCancelled.Next())
	assert.Equal(t, "Planned", EventPlanned.Label())
	assert.Equal(t, ParticipationConfirmed, ParticipationInvited.Next())
}

func TestHTTPStatusErrorDetail(t *testing.T) {
	e := &HTTPStatusError{Op: "get contact", Status: http.StatusBadRequest, Body: `{"detail":"Contact already participating in this event"}`}
	assert.Equal(t, "Contact already participating in this event", e.Detail())
	assert.Equal(t, "get contact: HTTP 400: Contact already participating in this event", e.Error())

	list := &HTTPStatusError{Status: 422, Body: `{"detail":[{"loc":["body","name"]}]}`}
	assert.Contains(t, list.Detail(), "loc")

	plain := &HTTPStatusError{Status: 502, Body: "Bad Gateway"}
	assert.Equal(t, "Bad Gateway", plain.Detail())
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("").IsZero())
	assert.True(t, parseTime("garbage").IsZero())
	assert.Equal(t, 2024, parseTime("2024-05-01T10:00:00.123456").Year())
	assert.Equal(t, 2024, parseTime("2024-05-01T10:00:00Z").Year())
}
