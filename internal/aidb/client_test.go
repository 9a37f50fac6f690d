package aidb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/aidb/aidbtest"
	"github.com/padbhq/padb/internal/listops"
	"github.com/padbhq/padb/internal/viewstate"
)

func newClient(t *testing.T, srv *aidbtest.Server, token string) *aidb.Client {
	t.Helper()
	c, err := aidb.NewClient(srv.BaseURL(), aidb.WithTokenSource(aidb.TokenFunc(func() string { return token })))
	require.NoError(t, err)
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewClientNormalizesBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", aidb.DefaultBaseURL},
		{"localhost:8000/api/v1/", "http://localhost:8000/api/v1"},
		{"https://padb.example.com/api/v1?x=1#frag", "https://padb.example.com/api/v1"},
	}
	for _, tt := range tests {
		c, err := aidb.NewClient(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, c.BaseURL())
	}

	_, err := aidb.NewClient("http://")
	assert.Error(t, err)
}

func TestNewClientRejectsBadOptions(t *testing.T) {
	_, err := aidb.NewClient("", aidb.WithTimeout(0))
	assert.Error(t, err)
	_, err = aidb.NewClient("", aidb.WithHTTPClient(nil))
	assert.Error(t, err)
	_, err = aidb.NewClient("", aidb.WithUserAgent(" "))
	assert.Error(t, err)
}

func TestBearerHeaderFollowsTokenSource(t *testing.T) {
	srv := aidbtest.New(t)
	ctx := testContext(t)

	anon := newClient(t, srv, "")
	_, err := anon.Contacts.List(ctx, aidb.ContactFilter{})
	require.NoError(t, err)
	assert.Empty(t, srv.LastAuthorization())

	authed := newClient(t, srv, "tok-123")
	_, err = authed.Contacts.List(ctx, aidb.ContactFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", srv.LastAuthorization())
}

func TestVerifyUsesExplicitToken(t *testing.T) {
	srv := aidbtest.New(t)
	ctx := testContext(t)
	c := newClient(t, srv, "stale")

	res, err := c.Auth.Verify(ctx, srv.Token())
	require.NoError(t, err)
	assert.Equal(t, aidbtest.DefaultEmail, res.Email)
	assert.Equal(t, "Bearer "+srv.Token(), srv.LastAuthorization())

	_, err = c.Auth.Verify(ctx, "")
	require.Error(t, err)
	assert.True(t, aidb.IsUnauthorized(err))
}

func TestCreateContactReturnsServerEntity(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")

	got, err := c.Contacts.Create(testContext(t), aidb.ContactDraft{FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(101), got.ID)
	assert.Equal(t, "Ada", got.FirstName)
	assert.NotNil(t, got.Interests)
	assert.Empty(t, got.Interests)
	assert.Empty(t, got.Skills)
}

func TestCreatedContactGoesToFrontOfEmptyList(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")

	got, err := c.Contacts.Create(testContext(t), aidb.ContactDraft{FirstName: "Ada"})
	require.NoError(t, err)
	list := listops.InsertFront([]aidb.Contact(nil), got)
	require.Len(t, list, 1)
	assert.Equal(t, int64(101), list[0].ID)
}

func TestDeletedEventLeavesList(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	first := srv.AddEvent(aidb.Event{Name: "Picnic"})
	second := srv.AddEvent(aidb.Event{Name: "Hackathon"})
	list := []aidb.Event{first, second}

	require.NoError(t, c.Events.Delete(testContext(t), first.ID))
	list = listops.RemoveByID(list, first.ID)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 1, srv.Calls(http.MethodDelete, "/events/{id}"))
}

func TestCreateContactValidatesBeforeNetwork(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")

	age := 200
	_, err := c.Contacts.Create(testContext(t), aidb.ContactDraft{FirstName: "  ", Age: &age})
	require.Error(t, err)
	assert.True(t, aidb.IsValidation(err))

	var ve *aidb.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Field("first_name"))
	assert.NotEmpty(t, ve.Field("age"))
	assert.Zero(t, srv.Calls(http.MethodPost, "/contacts"))
}

func TestGetMissingContactIsNotFound(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")

	_, err := c.Contacts.Get(testContext(t), 404)
	require.Error(t, err)
	assert.True(t, aidb.IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, aidb.StatusCode(err))
	assert.Equal(t, "contact 404 not found", err.Error())
}

func TestDeleteTwiceSurfacesNotFound(t *testing.T) {
	srv := aidbtest.New(t)
	ctx := testContext(t)
	c := newClient(t, srv, "")
	ada := srv.AddContact(aidb.Contact{FirstName: "Ada"})

	require.NoError(t, c.Contacts.Delete(ctx, ada.ID))
	err := c.Contacts.Delete(ctx, ada.ID)
	assert.True(t, aidb.IsNotFound(err))
}

func TestUpdateContactReplacesInterests(t *testing.T) {
	srv := aidbtest.New(t)
	ctx := testContext(t)
	c := newClient(t, srv, "")
	ada := srv.AddContact(aidb.Contact{FirstName: "Ada", Interests: []aidb.ContactInterest{{Category: "Music", Value: "Jazz"}}})

	draft := aidb.DraftFromContact(ada)
	draft.Interests = append(draft.Interests, aidb.ContactInterest{Value: "Chess"})
	got, err := c.Contacts.Update(ctx, ada.ID, draft)
	require.NoError(t, err)
	require.Len(t, got.Interests, 2)
	assert.Equal(t, aidb.DefaultInterestCategory, got.Interests[1].Category)
}

func TestListContactsPassesSearch(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	srv.AddContact(aidb.Contact{FirstName: "Ada", Company: "Analytical"})
	srv.AddContact(aidb.Contact{FirstName: "Grace", Company: "Navy"})

	got, err := c.Contacts.List(testContext(t), aidb.ContactFilter{Search: "navy"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Grace", got[0].FirstName)
}

func TestSimilarContacts(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	ada := srv.AddContact(aidb.Contact{FirstName: "Ada"})
	srv.AddContact(aidb.Contact{FirstName: "Grace"})

	got, err := c.Contacts.Similar(testContext(t), ada.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.Original.ID)
	assert.Len(t, got.Similar, 1)
}

func TestEventParticipants(t *testing.T) {
	srv := aidbtest.New(t)
	ctx := testContext(t)
	c := newClient(t, srv, "")
	ada := srv.AddContact(aidb.Contact{FirstName: "Ada", Email: "ada@example.com"})
	grace := srv.AddContact(aidb.Contact{FirstName: "Grace"})
	ev, err := c.Events.Create(ctx, aidb.EventDraft{Name: "Meetup", EventDate: "2026-11-01 18:30"})
	require.NoError(t, err)
	assert.Equal(t, aidb.EventPlanned, ev.Status)
	assert.Equal(t, "2026-11-01T18:30:00", ev.EventDate)

	_, err = c.Events.AddParticipant(ctx, ev.ID, aidb.ParticipantDraft{ContactID: ada.ID})
	require.NoError(t, err)

	level := 8
	_, err = c.Events.UpdateParticipant(ctx, ev.ID, ada.ID, aidb.ParticipantUpdate{
		ParticipationStatus: aidb.ParticipationConfirmed,
		InterestLevel:       &level,
	})
	require.NoError(t, err)

	got, err := c.Events.Get(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.ParticipantCount)
	assert.Equal(t, aidb.ParticipationConfirmed, got.Participants[0].ParticipationStatus)
	require.NotNil(t, got.Participants[0].InterestLevel)
	assert.Equal(t, 8, *got.Participants[0].InterestLevel)

	recs, err := c.Events.RecommendParticipants(ctx, ev.ID, 5)
	require.NoError(t, err)
	require.Len(t, recs.Recommendations, 1)
	assert.Equal(t, grace.ID, recs.Recommendations[0].Contact.ID)

	require.NoError(t, c.Events.RemoveParticipant(ctx, ev.ID, ada.ID))
	err = c.Events.RemoveParticipant(ctx, ev.ID, ada.ID)
	assert.True(t, aidb.IsNotFound(err))
}

func TestEventStatusFilterIsCanonicalized(t *testing.T) {
	var gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":5,"name":"Old","status":"ongoing"},{"id":9,"name":"New","status":"upcoming"}]`))
	}))
	t.Cleanup(srv.Close)

	c, err := aidb.NewClient(srv.URL)
	require.NoError(t, err)
	events, err := c.Events.List(testContext(t), aidb.EventFilter{Status: "Upcoming"})
	require.NoError(t, err)

	assert.Equal(t, "planned", gotStatus)
	require.Len(t, events, 2)
	assert.Equal(t, aidb.EventActive, events[0].Status)
	assert.Equal(t, aidb.EventPlanned, events[1].Status)
}

func TestUploadAndProcessRecording(t *testing.T) {
	srv := aidbtest.New(t)
	ctx := testContext(t)
	c := newClient(t, srv, "")

	up, err := c.Audio.Upload(ctx, "call.mp3", strings.NewReader("ID3..."), nil)
	require.NoError(t, err)
	assert.Equal(t, "call.mp3", up.FileName)

	res, err := c.Audio.Process(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, "Transcript of call.mp3", res.Transcription.Transcription)
	require.NotNil(t, res.Extraction.ContactID)
	assert.JSONEq(t, `{"first_name":"Extracted","last_name":"call"}`, string(res.Extraction.ExtractedData))

	detail, err := c.Audio.Get(ctx, up.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsDetail())
	assert.True(t, detail.HasTranscription)

	list, err := c.Audio.List(ctx, aidb.AudioFilter{ContactID: *res.Extraction.ContactID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Transcription)
	assert.False(t, list[0].IsDetail())
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")

	_, err := c.Audio.Upload(testContext(t), "notes.txt", strings.NewReader("x"), nil)
	assert.True(t, aidb.IsValidation(err))
	assert.Zero(t, srv.Calls(http.MethodPost, "/audio/upload"))
}

func TestProcessStopsWhenTranscribeFails(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	rec := srv.AddRecording(aidb.AudioRecording{FileName: "memo.wav"})
	srv.Fail(http.MethodPost, "/audio/transcribe/{id}", http.StatusInternalServerError, "whisper down")

	_, err := c.Audio.Process(testContext(t), rec.ID)
	require.Error(t, err)

	var stepErr *viewstate.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, aidb.StepTranscribe, stepErr.Step)
	assert.Equal(t, http.StatusInternalServerError, aidb.StatusCode(err))
	assert.Zero(t, srv.Calls(http.MethodPost, "/audio/extract/{id}"))
}

func TestDuplicateTranscribeIssuesOneRequest(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	rec := srv.AddRecording(aidb.AudioRecording{FileName: "memo.wav"})
	release := srv.Hold(http.MethodPost, "/audio/transcribe/{id}")

	pipeline := viewstate.NewPipeline(viewstate.NewActions[int64]())
	transcribe := viewstate.Step{Name: aidb.StepTranscribe, Run: func(ctx context.Context) error {
		_, err := c.Audio.Transcribe(ctx, rec.ID)
		return err
	}}

	run, ok := pipeline.Begin(rec.ID, transcribe)
	require.True(t, ok)
	ctx := testContext(t)
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	_, ok = pipeline.Begin(rec.ID, transcribe)
	assert.False(t, ok)

	release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/audio/transcribe/{id}"))
	assert.Equal(t, viewstate.Done, pipeline.Actions().Get(rec.ID).Phase)
}

func TestSearchKeepsServerOrder(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	srv.SetSearchResult(aidb.QueryResult{
		Results: []aidb.SearchResult{
			{Contact: aidb.Contact{ID: 2, FirstName: "Low"}, SimilarityScore: 0.4},
			{Contact: aidb.Contact{ID: 1, FirstName: "High"}, SimilarityScore: 0.9},
		},
		ResultsCount: 2,
		SearchMethod: "vector",
	})

	got, err := c.Query.Search(testContext(t), "music therapists in LA", 10, true)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ResultsCount)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "Low", got.Results[0].Contact.FirstName)
	assert.Equal(t, "High", got.Results[1].Contact.FirstName)

	history, err := c.Query.History(testContext(t), 0, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "music therapists in LA", history[0].QueryText)

	_, err = c.Query.Search(testContext(t), "   ", 10, true)
	assert.True(t, aidb.IsValidation(err))
}

func TestLoginAndChangePassword(t *testing.T) {
	srv := aidbtest.New(t)
	ctx := testContext(t)
	anon := newClient(t, srv, "")

	_, err := anon.Auth.Login(ctx, aidbtest.DefaultEmail, "wrong")
	require.Error(t, err)
	assert.True(t, aidb.IsUnauthorized(err))
	var se *aidb.HTTPStatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Incorrect email or password", se.Detail())

	login, err := anon.Auth.Login(ctx, aidbtest.DefaultEmail, aidbtest.DefaultPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", login.TokenType)
	assert.Equal(t, aidbtest.DefaultEmail, login.UserEmail)

	authed := newClient(t, srv, login.AccessToken)
	_, err = authed.Auth.ChangePassword(ctx, aidb.PasswordChange{Current: aidbtest.DefaultPassword, New: "abc", Confirm: "abc"})
	assert.True(t, aidb.IsValidation(err))

	_, err = authed.Auth.ChangePassword(ctx, aidb.PasswordChange{Current: aidbtest.DefaultPassword, New: "hunter2", Confirm: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "hunter2", srv.Password())
}

func TestNetworkAndDecodeErrors(t *testing.T) {
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	t.Cleanup(garbage.Close)

	c, err := aidb.NewClient(garbage.URL)
	require.NoError(t, err)
	_, err = c.Contacts.Get(testContext(t), 1)
	var de *aidb.DecodeError
	assert.ErrorAs(t, err, &de)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	c, err = aidb.NewClient(closed.URL)
	require.NoError(t, err)
	_, err = c.Contacts.List(testContext(t), aidb.ContactFilter{})
	assert.True(t, aidb.IsNetwork(err))
	assert.Zero(t, aidb.StatusCode(err))
}

func TestServerErrorIsNotRetried(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, srv.Token())
	srv.Fail(http.MethodGet, "/contacts", http.StatusServiceUnavailable, "maintenance")

	_, err := c.Contacts.List(testContext(t), aidb.ContactFilter{})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, aidb.StatusCode(err))
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/contacts"))
}

func TestCancelledContextIsNetworkError(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Contacts.List(ctx, aidb.ContactFilter{})
	assert.True(t, aidb.IsNetwork(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDashboardStats(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	for _, name := range []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Dennis"} {
		srv.AddContact(aidb.Contact{FirstName: name, Location: "London"})
	}
	srv.AddEvent(aidb.Event{Name: "Meetup"})
	srv.AddEvent(aidb.Event{Name: "Done", Status: aidb.EventCompleted})
	srv.AddRecording(aidb.AudioRecording{FileName: "a.mp3", Transcription: "hi"})

	stats, err := c.DashboardStats(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalContacts)
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 1, stats.TotalRecordings)
	assert.Len(t, stats.RecentContacts, 5)
	require.Len(t, stats.PlannedEvents, 1)
	assert.Equal(t, "Meetup", stats.PlannedEvents[0].Name)
	require.NotEmpty(t, stats.TopLocations)
	assert.Equal(t, "London", stats.TopLocations[0].Location)
}

func TestDashboardStatsFailsAsAWhole(t *testing.T) {
	srv := aidbtest.New(t)
	c := newClient(t, srv, "")
	srv.Fail(http.MethodGet, "/events", http.StatusServiceUnavailable, "db down")

	_, err := c.DashboardStats(testContext(t))
	assert.Equal(t, http.StatusServiceUnavailable, aidb.StatusCode(err))
}
