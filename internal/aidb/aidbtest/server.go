// Package aidbtest runs an in-memory fake of the Personal AI Database API for
// tests. It serves the same routes under /api/v1, counts calls per route
// template and can inject failures or hold requests open.
package aidbtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/padbhq/padb/internal/aidb"
)

const (
	apiPrefix       = "/api/v1"
	timestampLayout = "2006-01-02T15:04:05.000000"

	// DefaultEmail and DefaultPassword are the credentials Login accepts.
	DefaultEmail    = "admin@example.com"
	DefaultPassword = "secret"
)

var signingKey = []byte("aidbtest-signing-key")

type failure struct {
	status int
	detail string
}

// Server is a fake backend. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	// StrictAuth requires a valid bearer token on every route except login.
	// The real backend only guards verify and change-password.
	StrictAuth bool

	mu           sync.Mutex
	email        string
	password     string
	token        string
	nextID       int64
	contacts     []aidb.Contact
	events       []aidb.Event
	participants map[int64][]aidb.EventParticipant
	recordings   []aidb.AudioRecording
	history      []aidb.QueryHistoryEntry
	search       *aidb.QueryResult
	calls        map[string]int
	failures     map[string]failure
	holds        map[string]chan struct{}
	lastAuth     string
}

// New starts a fake server. It is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		email:        DefaultEmail,
		password:     DefaultPassword,
		nextID:       100,
		participants: make(map[int64][]aidb.EventParticipant),
		calls:        make(map[string]int),
		failures:     make(map[string]failure),
		holds:        make(map[string]chan struct{}),
	}
	s.token = s.issueToken(time.Hour)
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to pass to aidb.NewClient.
func (s *Server) BaseURL() string { return s.URL + apiPrefix }

// Token returns the currently valid bearer token.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IssueToken mints a token for the configured user with the given lifetime
// and makes it the valid one.
func (s *Server) IssueToken(ttl time.Duration) string {
	tok := s.issueToken(ttl)
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return tok
}

// RevokeToken makes every token invalid.
func (s *Server) RevokeToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func (s *Server) issueToken(ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub": s.email,
		"exp": time.Now().Add(ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("aidbtest: sign token: %v", err))
	}
	return tok
}

// Password returns the password Login currently accepts.
func (s *Server) Password() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.password
}

// Calls returns how many requests hit method + route template, e.g.
// Calls("POST", "/audio/transcribe/{id}").
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, route)]
}

// LastAuthorization returns the Authorization header of the last request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// Fail makes method + route answer status with detail until ClearFailures.
func (s *Server) Fail(method, route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[routeKey(method, route)] = failure{status: status, detail: detail}
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Hold blocks requests to method + route until the returned release func is
// called. Calls are still counted on arrival.
func (s *Server) Hold(method, route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[routeKey(method, route)] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, routeKey(method, route))
			s.mu.Unlock()
			close(ch)
		})
	}
}

// AddContact seeds a contact and returns it with its assigned id.
func (s *Server) AddContact(c aidb.Contact) aidb.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeContact(c)
}

// AddEvent seeds an event and returns it with its assigned id.
func (s *Server) AddEvent(e aidb.Event) aidb.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.allocID()
	}
	if e.Status == "" {
		e.Status = aidb.EventPlanned
	}
	now := stamp()
	e.CreatedAt, e.UpdatedAt = now, now
	s.events = append(s.events, e)
	return s.eventView(e)
}

// AddRecording seeds a recording and returns it with its assigned id.
func (s *Server) AddRecording(r aidb.AudioRecording) aidb.AudioRecording {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.allocID()
	}
	if r.FilePath == "" {
		r.FilePath = "uploads/" + r.FileName
	}
	r.CreatedAt = stamp()
	r.HasTranscription = r.Transcription != ""
	s.recordings = append(s.recordings, r)
	return r
}

// SetSearchResult makes POST /query answer with result verbatim.
func (s *Server) SetSearchResult(result aidb.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = &result
}

// Contacts returns a copy of the stored contacts.
func (s *Server) Contacts() []aidb.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]aidb.Contact(nil), s.contacts...)
}

// Recording returns the stored recording with id.
func (s *Server) Recording(id int64) (aidb.AudioRecording, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recordings {
		if r.ID == id {
			return r, true
		}
	}
	return aidb.AudioRecording{}, false
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) storeContact(c aidb.Contact) aidb.Contact {
	if c.ID == 0 {
		c.ID = s.allocID()
	}
	now := stamp()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Interests = nonNil(c.Interests)
	c.Skills = nonNil(c.Skills)
	s.contacts = append(s.contacts, c)
	return c
}

func (s *Server) router() http.Handler {
	root := mux.NewRouter()
	api := root.PathPrefix(apiPrefix).Subrouter()
	api.Use(s.middleware)

	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", s.requireAuth(s.verify)).Methods(http.MethodGet)
	api.HandleFunc("/auth/change-password", s.requireAuth(s.changePassword)).Methods(http.MethodPost)

	api.HandleFunc("/contacts/", s.listContacts).Methods(http.MethodGet)
	api.HandleFunc("/contacts/", s.createContact).Methods(http.MethodPost)
	api.HandleFunc("/contacts/{id:[0-9]+}", s.getContact).Methods(http.MethodGet)
	api.HandleFunc("/contacts/{id:[0-9]+}", s.updateContact).Methods(http.MethodPut)
	api.HandleFunc("/contacts/{id:[0-9]+}", s.deleteContact).Methods(http.MethodDelete)
	api.HandleFunc("/contacts/{id:[0-9]+}/similar", s.similarContacts).Methods(http.MethodGet)

	api.HandleFunc("/events/", s.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/events/", s.createEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id:[0-9]+}", s.getEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{id:[0-9]+}", s.updateEvent).Methods(http.MethodPut)
	api.HandleFunc("/events/{id:[0-9]+}", s.deleteEvent).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id:[0-9]+}/participants", s.addParticipant).Methods(http.MethodPost)
	api.HandleFunc("/events/{id:[0-9]+}/participants/{contact_id:[0-9]+}", s.updateParticipant).Methods(http.MethodPut)
	api.HandleFunc("/events/{id:[0-9]+}/participants/{contact_id:[0-9]+}", s.removeParticipant).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id:[0-9]+}/recommend-participants", s.recommend).Methods(http.MethodPost)

	api.HandleFunc("/audio/", s.listRecordings).Methods(http.MethodGet)
	api.HandleFunc("/audio/upload", s.upload).Methods(http.MethodPost)
	api.HandleFunc("/audio/transcribe/{id:[0-9]+}", s.transcribe).Methods(http.MethodPost)
	api.HandleFunc("/audio/extract/{id:[0-9]+}", s.extract).Methods(http.MethodPost)
	api.HandleFunc("/audio/{id:[0-9]+}", s.getRecording).Methods(http.MethodGet)
	api.HandleFunc("/audio/{id:[0-9]+}", s.deleteRecording).Methods(http.MethodDelete)

	api.HandleFunc("/query/", s.query).Methods(http.MethodPost)
	api.HandleFunc("/query/history", s.queryHistory).Methods(http.MethodGet)
	api.HandleFunc("/query/suggestions", s.suggestions).Methods(http.MethodGet)
	return root
}

// middleware counts the call, applies StrictAuth, holds and failures.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, currentTemplate(r))

		s.mu.Lock()
		s.calls[key]++
		s.lastAuth = r.Header.Get("Authorization")
		hold := s.holds[key]
		fail, failing := s.failures[key]
		strict := s.StrictAuth
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeDetail(w, fail.status, fail.detail)
			return
		}
		if strict && !strings.HasSuffix(key, " /auth/login") && !s.authorized(r) {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		h(w, r)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return false
	}
	s.mu.Lock()
	valid := s.token
	s.mu.Unlock()
	if raw != valid {
		return false
	}
	_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req aidb.LoginDraft
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	ok := req.Email == s.email && req.Password == s.password
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, aidb.LoginResult{
		AccessToken: s.IssueToken(time.Hour),
		TokenType:   "bearer",
		UserEmail:   req.Email,
	})
}

func (s *Server) verify(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, aidb.VerifyResult{Email: s.email, Message: "Token is valid"})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req aidb.PasswordChange
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Current != s.password {
		writeDetail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if len(req.New) < aidb.MinPasswordLength {
		writeDetail(w, http.StatusBadRequest, "New password must be at least 4 characters long")
		return
	}
	s.password = req.New
	writeJSON(w, http.StatusOK, aidb.MessageResult{Message: "Password updated successfully"})
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	needle := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	var out []aidb.Contact
	for _, c := range s.contacts {
		if needle == "" || contactMatches(c, needle) {
			out = append(out, c)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page(out, q))
}

func contactMatches(c aidb.Contact, needle string) bool {
	for _, field := range []string{c.FirstName, c.LastName, c.Email, c.JobTitle, c.Company, c.Location} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.contactIndex(id); i >= 0 {
		writeJSON(w, http.StatusOK, s.contacts[i])
		return
	}
	writeDetail(w, http.StatusNotFound, "Contact not found")
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var draft aidb.ContactDraft
	if !decode(w, r, &draft) {
		return
	}
	if strings.TrimSpace(draft.FirstName) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "first_name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.storeContact(contactFromDraft(draft)))
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	var draft aidb.ContactDraft
	if !decode(w, r, &draft) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.contactIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Contact not found")
		return
	}
	updated := contactFromDraft(draft)
	updated.ID = id
	updated.CreatedAt = s.contacts[i].CreatedAt
	updated.UpdatedAt = stamp()
	s.contacts[i] = updated
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.contactIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Contact not found")
		return
	}
	s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
	writeJSON(w, http.StatusOK, aidb.MessageResult{Message: "Contact deleted successfully"})
}

func (s *Server) similarContacts(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	limit := intParam(r.URL.Query(), "limit", 5)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.contactIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Contact not found")
		return
	}
	out := aidb.SimilarContacts{Original: s.contacts[i], Similar: []aidb.SimilarContact{}}
	for _, c := range s.contacts {
		if c.ID == id || len(out.Similar) >= limit {
			continue
		}
		out.Similar = append(out.Similar, aidb.SimilarContact{
			ContactID:       c.ID,
			SimilarityScore: 0.5,
			Metadata:        map[string]any{"name": c.FullName()},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) contactIndex(id int64) int {
	for i, c := range s.contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func contactFromDraft(d aidb.ContactDraft) aidb.Contact {
	return aidb.Contact{
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		Phone:         d.Phone,
		JobTitle:      d.JobTitle,
		Company:       d.Company,
		Location:      d.Location,
		Age:           d.Age,
		HasPets:       d.HasPets,
		BusinessNeeds: d.BusinessNeeds,
		PersonalNotes: d.PersonalNotes,
		Interests:     nonNil(d.Interests),
		Skills:        nonNil(d.Skills),
	}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, eventType := q.Get("status"), q.Get("event_type")

	s.mu.Lock()
	var out []aidb.Event
	for _, e := range s.events {
		if status != "" && string(e.Status) != status {
			continue
		}
		if eventType != "" && e.EventType != eventType {
			continue
		}
		out = append(out, s.eventView(e))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page(out, q))
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.eventIndex(id); i >= 0 {
		writeJSON(w, http.StatusOK, s.eventView(s.events[i]))
		return
	}
	writeDetail(w, http.StatusNotFound, "Event not found")
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var draft aidb.EventDraft
	if !decode(w, r, &draft) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := stamp()
	e := aidb.Event{
		ID:              s.allocID(),
		Name:            draft.Name,
		Description:     draft.Description,
		EventType:       draft.EventType,
		Location:        draft.Location,
		EventDate:       draft.EventDate,
		MaxParticipants: draft.MaxParticipants,
		Status:          aidb.EventPlanned,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.events = append(s.events, e)
	writeJSON(w, http.StatusOK, s.eventView(e))
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	var draft aidb.EventDraft
	if !decode(w, r, &draft) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Event not found")
		return
	}
	e := s.events[i]
	e.Name = draft.Name
	e.Description = draft.Description
	e.EventType = draft.EventType
	e.Location = draft.Location
	e.EventDate = draft.EventDate
	e.MaxParticipants = draft.MaxParticipants
	if draft.Status != "" {
		e.Status = draft.Status
	}
	e.UpdatedAt = stamp()
	s.events[i] = e
	writeJSON(w, http.StatusOK, s.eventView(e))
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Event not found")
		return
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	delete(s.participants, id)
	writeJSON(w, http.StatusOK, aidb.MessageResult{Message: "Event deleted successfully"})
}

func (s *Server) addParticipant(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	var draft aidb.ParticipantDraft
	if !decode(w, r, &draft) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventIndex(id) < 0 {
		writeDetail(w, http.StatusNotFound, "Event not found")
		return
	}
	ci := s.contactIndex(draft.ContactID)
	if ci < 0 {
		writeDetail(w, http.StatusNotFound, "Contact not found")
		return
	}
	for _, p := range s.participants[id] {
		if p.ContactID == draft.ContactID {
			writeDetail(w, http.StatusBadRequest, "Contact already participating in this event")
			return
		}
	}
	status := draft.ParticipationStatus
	if status == "" {
		status = aidb.ParticipationInvited
	}
	s.participants[id] = append(s.participants[id], aidb.EventParticipant{
		ContactID:           draft.ContactID,
		Name:                s.contacts[ci].FullName(),
		Email:               s.contacts[ci].Email,
		ParticipationStatus: status,
		InterestLevel:       draft.InterestLevel,
		Notes:               draft.Notes,
	})
	writeJSON(w, http.StatusOK, aidb.MessageResult{Message: "Participant added successfully"})
}

func (s *Server) updateParticipant(w http.ResponseWriter, r *http.Request) {
	id, contactID := pathID(r, "id"), pathID(r, "contact_id")
	q := r.URL.Query()
	status := q.Get("participation_status")
	if status == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "participation_status is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.participants[id] {
		if p.ContactID != contactID {
			continue
		}
		p.ParticipationStatus = aidb.ParticipationStatus(status)
		if q.Has("interest_level") {
			level := intParam(q, "interest_level", 0)
			p.InterestLevel = &level
		}
		if q.Has("notes") {
			p.Notes = q.Get("notes")
		}
		s.participants[id][i] = p
		writeJSON(w, http.StatusOK, aidb.MessageResult{Message: "Participation updated successfully"})
		return
	}
	writeDetail(w, http.StatusNotFound, "Participation not found")
}

func (s *Server) removeParticipant(w http.ResponseWriter, r *http.Request) {
	id, contactID := pathID(r, "id"), pathID(r, "contact_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.participants[id]
	for i, p := range list {
		if p.ContactID == contactID {
			s.participants[id] = append(list[:i], list[i+1:]...)
			writeJSON(w, http.StatusOK, aidb.MessageResult{Message: "Participant removed successfully"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Participation not found")
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	limit := intParam(r.URL.Query(), "limit", 10)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Event not found")
		return
	}
	taken := make(map[int64]bool)
	for _, p := range s.participants[id] {
		taken[p.ContactID] = true
	}
	out := aidb.Recommendations{EventID: id, EventName: s.events[i].Name, Recommendations: []aidb.Recommendation{}}
	for _, c := range s.contacts {
		if taken[c.ID] || len(out.Recommendations) >= limit {
			continue
		}
		out.Recommendations = append(out.Recommendations, aidb.Recommendation{
			Contact: aidb.RecommendedContact{
				ID: c.ID, Name: c.FullName(), Email: c.Email,
				JobTitle: c.JobTitle, Company: c.Company, Location: c.Location,
			},
			SimilarityScore: 0.8,
			MatchReason:     "Profile matches event type",
		})
	}
	out.TotalRecommendations = len(out.Recommendations)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) eventIndex(id int64) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// eventView fills the derived participant fields.
func (s *Server) eventView(e aidb.Event) aidb.Event {
	e.Participants = nonNil(append([]aidb.EventParticipant(nil), s.participants[e.ID]...))
	e.ParticipantCount = len(e.Participants)
	return e
}

func (s *Server) listRecordings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contactID := int64(intParam(q, "contact_id", 0))
	s.mu.Lock()
	var out []aidb.AudioRecording
	for _, rec := range s.recordings {
		if contactID > 0 && (rec.ContactID == nil || *rec.ContactID != contactID) {
			continue
		}
		// List entries never carry the transcript or path.
		rec.Transcription = ""
		rec.FilePath = ""
		out = append(out, rec)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page(out, q))
}

func (s *Server) getRecording(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.recordingIndex(id); i >= 0 {
		writeJSON(w, http.StatusOK, s.recordings[i])
		return
	}
	writeDetail(w, http.StatusNotFound, "Audio recording not found")
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	_ = file.Close()
	if aidb.ValidateAudioFileName(header.Filename) != nil {
		writeDetail(w, http.StatusBadRequest, "Unsupported audio format")
		return
	}
	var contactID *int64
	if raw := r.FormValue("contact_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "contact_id must be an integer")
			return
		}
		contactID = &id
	}

	s.mu.Lock()
	rec := aidb.AudioRecording{
		ID:        s.allocID(),
		FileName:  header.Filename,
		FilePath:  filepath.Join("uploads", header.Filename),
		ContactID: contactID,
		CreatedAt: stamp(),
	}
	s.recordings = append(s.recordings, rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, aidb.UploadResult{
		ID:       rec.ID,
		FileName: rec.FileName,
		FilePath: rec.FilePath,
		Message:  "Audio file uploaded successfully",
	})
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordingIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Audio recording not found")
		return
	}
	rec := s.recordings[i]
	rec.Transcription = "Transcript of " + rec.FileName
	rec.HasTranscription = true
	rec.ProcessedAt = stamp()
	s.recordings[i] = rec
	writeJSON(w, http.StatusOK, aidb.TranscriptionResult{
		ID:            id,
		Transcription: rec.Transcription,
		Message:       "Audio transcribed successfully",
	})
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordingIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Audio recording not found")
		return
	}
	rec := s.recordings[i]
	if rec.Transcription == "" {
		writeDetail(w, http.StatusBadRequest, "No transcription available")
		return
	}
	contact := s.storeContact(aidb.Contact{FirstName: "Extracted", LastName: strings.TrimSuffix(rec.FileName, filepath.Ext(rec.FileName))})
	rec.ContactID = &contact.ID
	s.recordings[i] = rec

	data, _ := json.Marshal(map[string]string{"first_name": contact.FirstName, "last_name": contact.LastName})
	writeJSON(w, http.StatusOK, aidb.ExtractionResult{
		ID:            id,
		ExtractedData: data,
		ContactID:     &contact.ID,
		Message:       "Contact data extracted successfully",
	})
}

func (s *Server) deleteRecording(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.recordingIndex(id)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Audio recording not found")
		return
	}
	s.recordings = append(s.recordings[:i], s.recordings[i+1:]...)
	writeJSON(w, http.StatusOK, aidb.MessageResult{Message: "Audio recording deleted successfully"})
}

func (s *Server) recordingIndex(id int64) int {
	for i, rec := range s.recordings {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query           string `json:"query"`
		Limit           int    `json:"limit"`
		UseVectorSearch bool   `json:"use_vector_search"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out aidb.QueryResult
	if s.search != nil {
		out = *s.search
		out.Query = req.Query
	} else {
		out = aidb.QueryResult{Query: req.Query, Results: []aidb.SearchResult{}, SearchMethod: "database"}
		needle := strings.ToLower(req.Query)
		for _, c := range s.contacts {
			if len(out.Results) >= req.Limit && req.Limit > 0 {
				break
			}
			if contactMatches(c, needle) {
				out.Results = append(out.Results, aidb.SearchResult{Contact: c, SimilarityScore: 1, MatchReason: "Text match"})
			}
		}
		out.ResultsCount = len(out.Results)
	}
	s.history = append([]aidb.QueryHistoryEntry{{
		ID:           s.allocID(),
		QueryText:    req.Query,
		ResultsCount: out.ResultsCount,
		CreatedAt:    stamp(),
	}}, s.history...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) queryHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]aidb.QueryHistoryEntry(nil), s.history...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page(out, r.URL.Query()))
}

func (s *Server) suggestions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locations := make(map[string]int)
	companies := make(map[string]int)
	jobs := make(map[string]int)
	for _, c := range s.contacts {
		if c.Location != "" {
			locations[c.Location]++
		}
		if c.Company != "" {
			companies[c.Company]++
		}
		if c.JobTitle != "" {
			jobs[c.JobTitle]++
		}
	}
	out := aidb.QuerySuggestions{
		Suggestions:   []string{"Who works in technology?", "Find people in San Francisco"},
		TotalContacts: len(s.contacts),
	}
	for _, k := range topKeys(locations) {
		out.Stats.TopLocations = append(out.Stats.TopLocations, aidb.LocationCount{Location: k, Count: locations[k]})
	}
	for _, k := range topKeys(companies) {
		out.Stats.TopCompanies = append(out.Stats.TopCompanies, aidb.CompanyCount{Company: k, Count: companies[k]})
	}
	for _, k := range topKeys(jobs) {
		out.Stats.TopJobs = append(out.Stats.TopJobs, aidb.JobCount{JobTitle: k, Count: jobs[k]})
	}
	writeJSON(w, http.StatusOK, out)
}

func topKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > 5 {
		keys = keys[:5]
	}
	return keys
}

func currentTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	return tmpl
}

// routeKey normalizes "/api/v1/contacts/{id:[0-9]+}" and "/contacts/{id}"
// to the same key.
func routeKey(method, route string) string {
	route = strings.TrimPrefix(route, apiPrefix)
	route = varPattern.ReplaceAllString(route, "{$1}")
	return method + " " + strings.TrimSuffix(route, "/")
}

var varPattern = regexp.MustCompile(`\{([^:}]+):[^}]*\}`)

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func intParam(q map[string][]string, name string, def int) int {
	vals := q[name]
	if len(vals) == 0 {
		return def
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		return def
	}
	return n
}

func page[T any](items []T, q map[string][]string) []T {
	skip := intParam(q, "skip", 0)
	limit := intParam(q, "limit", 100)
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func stamp() string {
	return time.Now().UTC().Format(timestampLayout)
}
