package aidb

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Skill levels accepted by ContactSkill.Level.
var SkillLevels = []string{"Beginner", "Intermediate", "Advanced", "Expert"}

// DefaultInterestCategory is applied to interests submitted without one.
const DefaultInterestCategory = "General"

// MinPasswordLength mirrors the backend's change-password rule.
const MinPasswordLength = 4

// AudioExtensions are the upload formats the backend accepts.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac"}

// ContactDraft is the create/update payload for a contact. Updates submit the
// full draft, interests and skills included.
type ContactDraft struct {
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	JobTitle      string            `json:"job_title"`
	Company       string            `json:"company"`
	Location      string            `json:"location"`
	Age           *int              `json:"age,omitempty"`
	HasPets       *bool             `json:"has_pets,omitempty"`
	BusinessNeeds string            `json:"business_needs"`
	PersonalNotes string            `json:"personal_notes"`
	Interests     []ContactInterest `json:"interests"`
	Skills        []ContactSkill    `json:"skills"`
}

// DraftFromContact seeds an edit form from an existing contact.
func DraftFromContact(c Contact) ContactDraft {
	d := ContactDraft{
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		Phone:         c.Phone,
		JobTitle:      c.JobTitle,
		Company:       c.Company,
		Location:      c.Location,
		Age:           c.Age,
		HasPets:       c.HasPets,
		BusinessNeeds: c.BusinessNeeds,
		PersonalNotes: c.PersonalNotes,
	}
	for _, in := range c.Interests {
		in.ID = 0
		d.Interests = append(d.Interests, in)
	}
	for _, sk := range c.Skills {
		sk.ID = 0
		d.Skills = append(d.Skills, sk)
	}
	return d
}

// Normalize trims text fields and fills defaults. It returns the result so
// it can be chained.
func (d ContactDraft) Normalize() ContactDraft {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.JobTitle = strings.TrimSpace(d.JobTitle)
	d.Company = strings.TrimSpace(d.Company)
	d.Location = strings.TrimSpace(d.Location)
	d.BusinessNeeds = strings.TrimSpace(d.BusinessNeeds)
	d.PersonalNotes = strings.TrimSpace(d.PersonalNotes)

	interests := make([]ContactInterest, 0, len(d.Interests))
	for _, in := range d.Interests {
		in.Category = strings.TrimSpace(in.Category)
		in.Value = strings.TrimSpace(in.Value)
		if in.Category == "" {
			in.Category = DefaultInterestCategory
		}
		interests = append(interests, in)
	}
	d.Interests = interests

	skills := make([]ContactSkill, 0, len(d.Skills))
	for _, sk := range d.Skills {
		sk.Name = strings.TrimSpace(sk.Name)
		sk.Level = canonicalSkillLevel(sk.Level)
		skills = append(skills, sk)
	}
	d.Skills = skills
	return d
}

// Validate reports every field-level problem at once.
func (d ContactDraft) Validate() error {
	errs := fieldErrors{}
	if strings.TrimSpace(d.FirstName) == "" {
		errs.add("first_name", "first name is required")
	}
	if email := strings.TrimSpace(d.Email); email != "" && !strings.Contains(email, "@") {
		errs.add("email", "email must contain @")
	}
	if d.Age != nil && (*d.Age < 1 || *d.Age > 120) {
		errs.add("age", "age must be between 1 and 120")
	}
	for i, in := range d.Interests {
		if strings.TrimSpace(in.Value) == "" {
			errs.add(fmt.Sprintf("interests[%d].interest_value", i), "interest value is required")
		}
		if in.ConfidenceScore != nil && (*in.ConfidenceScore < 0 || *in.ConfidenceScore > 1) {
			errs.add(fmt.Sprintf("interests[%d].confidence_score", i), "confidence must be between 0 and 1")
		}
	}
	for i, sk := range d.Skills {
		if strings.TrimSpace(sk.Name) == "" {
			errs.add(fmt.Sprintf("skills[%d].skill_name", i), "skill name is required")
		}
		if sk.Level != "" && !validSkillLevel(canonicalSkillLevel(sk.Level)) {
			errs.add(fmt.Sprintf("skills[%d].skill_level", i), "skill level must be one of "+strings.Join(SkillLevels, ", "))
		}
		if sk.YearsExperience != nil && (*sk.YearsExperience < 0 || *sk.YearsExperience > 50) {
			errs.add(fmt.Sprintf("skills[%d].years_experience", i), "years of experience must be between 0 and 50")
		}
	}
	return errs.err()
}

func canonicalSkillLevel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, level := range SkillLevels {
		if strings.EqualFold(level, trimmed) {
			return level
		}
	}
	return trimmed
}

func validSkillLevel(level string) bool {
	for _, known := range SkillLevels {
		if known == level {
			return true
		}
	}
	return false
}

// EventDraft is the create/update payload for an event.
type EventDraft struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	EventType       string      `json:"event_type"`
	Location        string      `json:"location"`
	EventDate       string      `json:"event_date,omitempty"`
	MaxParticipants *int        `json:"max_participants,omitempty"`
	Status          EventStatus `json:"status,omitempty"`
}

// DraftFromEvent seeds an edit form from an existing event.
func DraftFromEvent(e Event) EventDraft {
	return EventDraft{
		Name:            e.Name,
		Description:     e.Description,
		EventType:       e.EventType,
		Location:        e.Location,
		EventDate:       e.EventDate,
		MaxParticipants: e.MaxParticipants,
		Status:          e.Status,
	}
}

// eventDateLayouts are accepted for EventDraft.EventDate, most specific first.
var eventDateLayouts = []string{
	time.RFC3339,
	backendTimestampLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseEventDate accepts ISO instants and the short forms typed into forms.
func ParseEventDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// Normalize trims fields, canonicalizes the status and rewrites the date as
// an ISO instant.
func (d EventDraft) Normalize() EventDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.EventType = strings.TrimSpace(d.EventType)
	d.Location = strings.TrimSpace(d.Location)
	if d.Status != "" {
		d.Status = NormalizeEventStatus(string(d.Status))
	}
	d.EventDate = strings.TrimSpace(d.EventDate)
	if d.EventDate != "" {
		if t, err := ParseEventDate(d.EventDate); err == nil {
			d.EventDate = t.Format("2006-01-02T15:04:05")
		}
	}
	return d
}

// Validate reports every field-level problem at once.
func (d EventDraft) Validate() error {
	errs := fieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs.add("name", "name is required")
	}
	if d.MaxParticipants != nil && (*d.MaxParticipants < 1 || *d.MaxParticipants > 1000) {
		errs.add("max_participants", "max participants must be between 1 and 1000")
	}
	if d.EventDate != "" {
		if _, err := ParseEventDate(d.EventDate); err != nil {
			errs.add("event_date", "date must look like 2006-01-02 15:04")
		}
	}
	if d.Status != "" && !NormalizeEventStatus(string(d.Status)).Valid() {
		errs.add("status", "status must be planned, active, completed or cancelled")
	}
	return errs.err()
}

// ParticipantDraft adds a contact to an event.
type ParticipantDraft struct {
	ContactID           int64               `json:"contact_id"`
	ParticipationStatus ParticipationStatus `json:"participation_status,omitempty"`
	InterestLevel       *int                `json:"interest_level,omitempty"`
	Notes               string              `json:"notes,omitempty"`
}

// Validate reports every field-level problem at once.
func (d ParticipantDraft) Validate() error {
	errs := fieldErrors{}
	if d.ContactID <= 0 {
		errs.add("contact_id", "contact is required")
	}
	if d.ParticipationStatus != "" && !d.ParticipationStatus.Valid() {
		errs.add("participation_status", "unknown participation status")
	}
	if d.InterestLevel != nil && (*d.InterestLevel < 1 || *d.InterestLevel > 10) {
		errs.add("interest_level", "interest level must be between 1 and 10")
	}
	return errs.err()
}

// ParticipantUpdate changes an existing participation.
type ParticipantUpdate struct {
	ParticipationStatus ParticipationStatus
	InterestLevel       *int
	Notes               *string
}

// Validate reports every field-level problem at once.
func (u ParticipantUpdate) Validate() error {
	errs := fieldErrors{}
	if !u.ParticipationStatus.Valid() {
		errs.add("participation_status", "unknown participation status")
	}
	if u.InterestLevel != nil && (*u.InterestLevel < 1 || *u.InterestLevel > 10) {
		errs.add("interest_level", "interest level must be between 1 and 10")
	}
	return errs.err()
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
	Confirm string `json:"-"`
}

// Validate reports every field-level problem at once.
func (p PasswordChange) Validate() error {
	errs := fieldErrors{}
	if p.Current == "" {
		errs.add("current_password", "current password is required")
	}
	if len(p.New) < MinPasswordLength {
		errs.add("new_password", fmt.Sprintf("new password must be at least %d characters long", MinPasswordLength))
	}
	if p.New != p.Confirm {
		errs.add("confirm_password", "new passwords do not match")
	}
	return errs.err()
}

// LoginDraft is the sign-in form.
type LoginDraft struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate reports every field-level problem at once.
func (l LoginDraft) Validate() error {
	errs := fieldErrors{}
	if email := strings.TrimSpace(l.Email); email == "" {
		errs.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		errs.add("email", "email must contain @")
	}
	if l.Password == "" {
		errs.add("password", "password is required")
	}
	return errs.err()
}

// ValidateAudioFileName fast-fails uploads the backend would reject.
func ValidateAudioFileName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AudioExtensions {
		if ext == allowed {
			return nil
		}
	}
	return &ValidationError{Fields: map[string]string{
		"file": "unsupported audio format; use " + strings.Join(AudioExtensions, ", "),
	}}
}
