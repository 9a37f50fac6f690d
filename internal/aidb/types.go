package aidb

import (
	"encoding/json"
	"strings"
	"time"
)

// The backend emits naive ISO timestamps ("2024-05-01T10:00:00.123456").
const backendTimestampLayout = "2006-01-02T15:04:05.999999"

// Contact mirrors the contact payload. Interests and skills are owned by the
// contact and only change through a full contact update.
type Contact struct {
	ID            int64             `json:"id"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	JobTitle      string            `json:"job_title"`
	Company       string            `json:"company"`
	Location      string            `json:"location"`
	Age           *int              `json:"age"`
	HasPets       *bool             `json:"has_pets"`
	BusinessNeeds string            `json:"business_needs"`
	PersonalNotes string            `json:"personal_notes"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
	Interests     []ContactInterest `json:"interests"`
	Skills        []ContactSkill    `json:"skills"`
}

// Key implements listops.Keyed.
func (c Contact) Key() int64 { return c.ID }

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (c Contact) ParsedCreatedAt() time.Time { return parseTime(c.CreatedAt) }

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (c Contact) ParsedUpdatedAt() time.Time { return parseTime(c.UpdatedAt) }

// ContactInterest is one interest entry of a contact.
type ContactInterest struct {
	ID              int64    `json:"id,omitempty"`
	Category        string   `json:"interest_category"`
	Value           string   `json:"interest_value"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// ContactSkill is one skill entry of a contact.
type ContactSkill struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"skill_name"`
	Level           string `json:"skill_level,omitempty"`
	YearsExperience *int   `json:"years_experience,omitempty"`
}

// SimilarContacts mirrors GET /contacts/{id}/similar.
type SimilarContacts struct {
	Original Contact          `json:"original_contact"`
	Similar  []SimilarContact `json:"similar_contacts"`
}

// SimilarContact is one vector-store neighbour. The backend returns a loose
// shape, so only the stable fields are typed.
type SimilarContact struct {
	ContactID       int64          `json:"contact_id"`
	SimilarityScore float64        `json:"similarity_score"`
	Metadata        map[string]any `json:"metadata"`
}

// Event mirrors the event payload.
type Event struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	EventType        string             `json:"event_type"`
	Location         string             `json:"location"`
	EventDate        string             `json:"event_date"`
	MaxParticipants  *int               `json:"max_participants"`
	Status           EventStatus        `json:"status"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
	ParticipantCount int                `json:"participant_count"`
	Participants     []EventParticipant `json:"participants"`
}

// Key implements listops.Keyed.
func (e Event) Key() int64 { return e.ID }

// ParsedEventDate returns the parsed event date.
func (e Event) ParsedEventDate() time.Time { return parseTime(e.EventDate) }

// EventParticipant is a weak reference to a contact plus display fields.
type EventParticipant struct {
	ContactID           int64               `json:"contact_id"`
	Name                string              `json:"name"`
	Email               string              `json:"email"`
	ParticipationStatus ParticipationStatus `json:"participation_status"`
	InterestLevel       *int                `json:"interest_level"`
	Notes               string              `json:"notes"`
}

// Key implements listops.Keyed; participants are unique per contact.
func (p EventParticipant) Key() int64 { return p.ContactID }

// Recommendations mirrors POST /events/{id}/recommend-participants.
type Recommendations struct {
	EventID              int64            `json:"event_id"`
	EventName            string           `json:"event_name"`
	Recommendations      []Recommendation `json:"recommendations"`
	TotalRecommendations int              `json:"total_recommendations"`
}

// Recommendation pairs a contact summary with its match score.
type Recommendation struct {
	Contact         RecommendedContact `json:"contact"`
	SimilarityScore float64            `json:"similarity_score"`
	MatchReason     string             `json:"match_reason"`
}

// RecommendedContact is the abbreviated contact shape used by recommendations.
type RecommendedContact struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

// AudioRecording mirrors the audio payload. Transcription and FilePath are
// only populated by the detail endpoint.
type AudioRecording struct {
	ID               int64    `json:"id"`
	FileName         string   `json:"file_name"`
	ContactID        *int64   `json:"contact_id"`
	DurationSeconds  *float64 `json:"duration_seconds"`
	HasTranscription bool     `json:"has_transcription"`
	Transcription    string   `json:"transcription,omitempty"`
	FilePath         string   `json:"file_path,omitempty"`
	ProcessedAt      string   `json:"processed_at"`
	CreatedAt        string   `json:"created_at"`
}

// Key implements listops.Keyed.
func (a AudioRecording) Key() int64 { return a.ID }

// IsDetail reports whether the recording came from the detail endpoint.
func (a AudioRecording) IsDetail() bool { return a.FilePath != "" }

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (a AudioRecording) ParsedCreatedAt() time.Time { return parseTime(a.CreatedAt) }

// ParsedProcessedAt returns the parsed ProcessedAt timestamp.
func (a AudioRecording) ParsedProcessedAt() time.Time { return parseTime(a.ProcessedAt) }

// UploadResult mirrors POST /audio/upload.
type UploadResult struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	Message  string `json:"message"`
}

// Recording returns the list-shaped recording the upload created.
func (u UploadResult) Recording(contactID *int64) AudioRecording {
	return AudioRecording{
		ID:        u.ID,
		FileName:  u.FileName,
		ContactID: contactID,
		CreatedAt: time.Now().UTC().Format(backendTimestampLayout),
	}
}

// TranscriptionResult mirrors POST /audio/transcribe/{id}.
type TranscriptionResult struct {
	ID            int64  `json:"id"`
	Transcription string `json:"transcription"`
	Message       string `json:"message"`
}

// ExtractionResult mirrors POST /audio/extract/{id}.
type ExtractionResult struct {
	ID            int64           `json:"id"`
	ExtractedData json.RawMessage `json:"extracted_data"`
	ContactID     *int64          `json:"contact_id"`
	Message       string          `json:"message"`
}

// QueryResult mirrors POST /query. Results keep the server's order.
type QueryResult struct {
	Query           string         `json:"query"`
	Results         []SearchResult `json:"results"`
	ResultsCount    int            `json:"results_count"`
	ExecutionTimeMS int            `json:"execution_time_ms"`
	SearchMethod    string         `json:"search_method"`
	Explanation     string         `json:"explanation"`
}

// SearchResult pairs a contact snapshot with its score.
type SearchResult struct {
	Contact         Contact `json:"contact"`
	SimilarityScore float64 `json:"similarity_score"`
	MatchReason     string  `json:"match_reason"`
}

// QueryHistoryEntry mirrors GET /query/history.
type QueryHistoryEntry struct {
	ID              int64  `json:"id"`
	QueryText       string `json:"query_text"`
	ResultsCount    int    `json:"results_count"`
	ExecutionTimeMS int    `json:"execution_time_ms"`
	CreatedAt       string `json:"created_at"`
}

// Key implements listops.Keyed.
func (q QueryHistoryEntry) Key() int64 { return q.ID }

// QuerySuggestions mirrors GET /query/suggestions.
type QuerySuggestions struct {
	Suggestions   []string     `json:"suggestions"`
	TotalContacts int          `json:"total_contacts"`
	Stats         ContactStats `json:"stats"`
}

// ContactStats aggregates the most common contact attributes.
type ContactStats struct {
	TopLocations []LocationCount `json:"top_locations"`
	TopCompanies []CompanyCount  `json:"top_companies"`
	TopJobs      []JobCount      `json:"top_jobs"`
}

// LocationCount is one top_locations bucket.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// CompanyCount is one top_companies bucket.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// JobCount is one top_jobs bucket.
type JobCount struct {
	JobTitle string `json:"job_title"`
	Count    int    `json:"count"`
}

// LoginResult mirrors POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserEmail   string `json:"user_email"`
}

// VerifyResult mirrors GET /auth/verify.
type VerifyResult struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// MessageResult is the generic {"message": "..."} acknowledgement.
type MessageResult struct {
	Message string `json:"message"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
