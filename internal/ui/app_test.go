package ui

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/aidb/aidbtest"
	"github.com/padbhq/padb/internal/prefs"
	"github.com/padbhq/padb/internal/session"
)

// settleTimeout is how long the driver waits for the next message before
// treating the model as idle. Timer commands (flash, blink, refresh) take
// longer and are abandoned.
const settleTimeout = 300 * time.Millisecond

// driver feeds a Model its own command output, the way tea.Program would.
type driver struct {
	t     *testing.T
	m     Model
	srv   *aidbtest.Server
	store *session.MemoryStore
	gate  *session.Gate
	prefs string
}

func newDriver(t *testing.T, signedIn bool) *driver {
	t.Helper()
	srv := aidbtest.New(t)

	creds := session.Credentials{}
	if signedIn {
		creds = session.Credentials{AccessToken: srv.Token(), UserEmail: aidbtest.DefaultEmail, IsLoggedIn: true}
	}
	store := session.NewMemoryStore(creds)

	var client *aidb.Client
	gate := session.NewGate(store, session.VerifierFunc(func(ctx context.Context, token string) (string, error) {
		res, err := client.Auth.Verify(ctx, token)
		return res.Email, err
	}))
	client, err := aidb.NewClient(srv.BaseURL(), aidb.WithTimeout(5*time.Second), aidb.WithTokenSource(gate))
	require.NoError(t, err)

	d := &driver{
		t:     t,
		srv:   srv,
		store: store,
		gate:  gate,
		prefs: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	d.m = New(Options{
		Context:   context.Background(),
		Client:    client,
		Gate:      gate,
		PrefsPath: d.prefs,
		LogFile:   filepath.Join(t.TempDir(), "padb.log"),
	})
	d.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	d.settle(d.m.Init())
	return d
}

func (d *driver) update(msg tea.Msg) tea.Cmd {
	next, cmd := d.m.Update(msg)
	d.m = next.(Model)
	return cmd
}

func (d *driver) send(msg tea.Msg) { d.settle(d.update(msg)) }

func (d *driver) keys(s string) {
	for _, r := range s {
		d.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (d *driver) typeText(s string) {
	d.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (d *driver) press(k tea.KeyType) { d.send(tea.KeyMsg{Type: k}) }

// settle runs cmd and everything it produces until nothing arrives for
// settleTimeout.
func (d *driver) settle(cmd tea.Cmd) {
	msgs := make(chan tea.Msg, 64)
	start := func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() { msgs <- c() }()
	}
	start(cmd)
	for {
		select {
		case msg := <-msgs:
			switch msg := msg.(type) {
			case nil:
			case tea.BatchMsg:
				for _, c := range msg {
					start(c)
				}
			case spinner.TickMsg, cursor.BlinkMsg, clearFlashMsg:
			case scopedMsg:
				if _, ok := msg.msg.(tickMsg); ok {
					continue
				}
				start(d.update(msg))
			default:
				start(d.update(msg))
			}
		case <-time.After(settleTimeout):
			return
		}
	}
}

func (d *driver) route() Route {
	d.t.Helper()
	require.NotNil(d.t, d.m.screen, "no screen open")
	return d.m.screen.route()
}

func TestLoginReachesDashboard(t *testing.T) {
	d := newDriver(t, false)
	assert.Equal(t, RouteLogin, d.route())
	assert.Contains(t, d.m.View(), "Sign in to continue")

	d.typeText(aidbtest.DefaultEmail)
	d.press(tea.KeyTab)
	d.typeText(aidbtest.DefaultPassword)
	d.press(tea.KeyEnter)

	assert.Equal(t, RouteDashboard, d.route())
	assert.Equal(t, session.Authenticated, d.gate.Status())
	assert.True(t, d.store.Present())
	assert.Equal(t, "Bearer "+d.srv.Token(), d.srv.LastAuthorization())
	assert.Contains(t, d.m.View(), aidbtest.DefaultEmail)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	d := newDriver(t, false)

	d.typeText(aidbtest.DefaultEmail)
	d.press(tea.KeyTab)
	d.typeText("nope")
	d.press(tea.KeyEnter)

	assert.Equal(t, RouteLogin, d.route())
	assert.Equal(t, session.Unauthenticated, d.gate.Status())
	assert.Contains(t, d.m.View(), "Incorrect email or password")
}

func TestStoredSessionIsRestored(t *testing.T) {
	d := newDriver(t, true)
	assert.Equal(t, RouteDashboard, d.route())
	assert.Equal(t, session.Authenticated, d.gate.Status())
	assert.Equal(t, 1, d.srv.Calls(http.MethodGet, "/auth/verify"))
}

func TestRevokedStoredSessionGoesToLogin(t *testing.T) {
	d := newDriver(t, false)
	// Seed a token the server no longer accepts and restart the model.
	require.NoError(t, d.store.Save(session.Credentials{AccessToken: "stale", UserEmail: aidbtest.DefaultEmail, IsLoggedIn: true}))
	d.m = New(Options{Client: d.m.env.client, Gate: d.gate, PrefsPath: d.prefs})
	d.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	d.settle(d.m.Init())

	assert.Equal(t, RouteLogin, d.route())
	assert.False(t, d.store.Present())
}

func TestMissingContactShowsNotFound(t *testing.T) {
	d := newDriver(t, true)
	d.send(navigateMsg{route: RouteContact, id: 999})

	assert.Equal(t, RouteContact, d.route())
	assert.Contains(t, d.m.View(), "Contact not found")
	assert.Equal(t, session.Authenticated, d.gate.Status())
}

func TestSearchKeepsServerOrder(t *testing.T) {
	d := newDriver(t, true)
	d.srv.SetSearchResult(aidb.QueryResult{
		Results: []aidb.SearchResult{
			{Contact: aidb.Contact{ID: 7, FirstName: "Zed", LastName: "Low"}, SimilarityScore: 0.41, MatchReason: "Mentions hiking"},
			{Contact: aidb.Contact{ID: 3, FirstName: "Ada", LastName: "High"}, SimilarityScore: 0.93, MatchReason: "Hiking club"},
		},
		ResultsCount:    2,
		ExecutionTimeMS: 12,
		SearchMethod:    "vector",
	})

	d.keys("5")
	require.Equal(t, RouteSearch, d.route())
	d.typeText("who likes hiking")
	d.press(tea.KeyEnter)

	s, ok := d.m.screen.(*searchScreen)
	require.True(t, ok)
	res, ok := s.results.Value()
	require.True(t, ok)
	require.Len(t, res.Results, 2)
	assert.Equal(t, int64(7), res.Results[0].Contact.ID)
	assert.Equal(t, int64(3), res.Results[1].Contact.ID)

	view := d.m.View()
	assert.Contains(t, view, "2 results via vector")
	assert.Less(t, strings.Index(view, "Zed Low"), strings.Index(view, "Ada High"))

	// Opening the first result goes to that contact.
	d.press(tea.KeyEnter)
	assert.Equal(t, RouteContact, d.route())
}

func TestStaleResultIsDropped(t *testing.T) {
	d := newDriver(t, true)
	d.keys("2")
	require.Equal(t, RouteContacts, d.route())
	stale := d.m.screen.scopeID()

	d.keys("1")
	require.Equal(t, RouteDashboard, d.route())

	d.send(scopedMsg{screen: stale, err: &aidb.HTTPStatusError{Op: "list contacts", Status: http.StatusUnauthorized}})
	assert.Equal(t, RouteDashboard, d.route())
	assert.Equal(t, session.Authenticated, d.gate.Status())
}

func TestUnauthorizedExpiresSession(t *testing.T) {
	d := newDriver(t, true)
	d.srv.Fail(http.MethodGet, "/contacts", http.StatusUnauthorized, "Could not validate credentials")

	d.keys("2")

	assert.Equal(t, RouteLogin, d.route())
	assert.Equal(t, session.Unauthenticated, d.gate.Status())
	assert.False(t, d.store.Present())
	view := d.m.View()
	assert.Contains(t, view, "Session expired")
}

func TestLogoutReturnsToLogin(t *testing.T) {
	d := newDriver(t, true)
	d.keys("L")

	assert.Equal(t, RouteLogin, d.route())
	assert.False(t, d.store.Present())
	assert.Contains(t, d.m.View(), "Signed out")

	// Protected routes redirect while signed out.
	d.send(navigateMsg{route: RouteContacts})
	assert.Equal(t, RouteLogin, d.route())
}

func TestDuplicateProcessIsIgnored(t *testing.T) {
	d := newDriver(t, true)
	rec := d.srv.AddRecording(aidb.AudioRecording{FileName: "standup.wav"})
	release := d.srv.Hold(http.MethodPost, "/audio/transcribe/{id}")
	t.Cleanup(release)

	d.keys("4")
	require.Equal(t, RouteAudio, d.route())

	d.keys("p")
	d.keys("p")

	assert.Equal(t, 1, d.srv.Calls(http.MethodPost, "/audio/transcribe/{id}"))
	s, ok := d.m.screen.(*audioScreen)
	require.True(t, ok)
	state := s.pipeline.Actions().Get(rec.ID)
	assert.Equal(t, aidb.StepTranscribe, state.Step)
}

func TestThemeCyclePersists(t *testing.T) {
	d := newDriver(t, true)
	d.keys("T")

	assert.Equal(t, "Kanagawa", d.m.theme.Name)
	p, err := prefs.Load(d.prefs)
	require.NoError(t, err)
	assert.Equal(t, "Kanagawa", p.Theme)
}

func TestGlobalKeysIgnoredWhileTyping(t *testing.T) {
	d := newDriver(t, true)
	d.keys("5")
	require.Equal(t, RouteSearch, d.route())

	// The query input has focus, so "2" and "T" are text.
	d.keys("2T")
	assert.Equal(t, RouteSearch, d.route())
	assert.Equal(t, "Nightfox", d.m.theme.Name)
	s := d.m.screen.(*searchScreen)
	assert.Equal(t, "2T", s.input.Value())
}

func TestSettingsSavesPreferences(t *testing.T) {
	d := newDriver(t, true)
	d.keys("6")
	require.Equal(t, RouteSettings, d.route())

	d.press(tea.KeyEnter)
	d.press(tea.KeyCtrlU)
	d.typeText("slate")
	d.press(tea.KeyCtrlS)

	assert.Equal(t, "Slate", d.m.theme.Name)
	assert.Equal(t, "Slate", d.m.env.prefs.Theme)
	p, err := prefs.Load(d.prefs)
	require.NoError(t, err)
	assert.Equal(t, "Slate", p.Theme)
	assert.Contains(t, d.m.View(), "Preferences saved")
}

func TestSettingsChangesPassword(t *testing.T) {
	d := newDriver(t, true)
	d.keys("6")
	d.keys("j")
	d.press(tea.KeyEnter)

	d.typeText(aidbtest.DefaultPassword)
	d.press(tea.KeyTab)
	d.typeText("hunter22")
	d.press(tea.KeyTab)
	d.typeText("hunter22")
	d.press(tea.KeyEnter)

	assert.Equal(t, "hunter22", d.srv.Password())
	assert.Equal(t, 1, d.srv.Calls(http.MethodPost, "/auth/change-password"))
}

func TestSettingsRejectsMismatchedPassword(t *testing.T) {
	d := newDriver(t, true)
	d.keys("6")
	d.keys("j")
	d.press(tea.KeyEnter)

	d.typeText(aidbtest.DefaultPassword)
	d.press(tea.KeyTab)
	d.typeText("hunter22")
	d.press(tea.KeyTab)
	d.typeText("hunter23")
	d.press(tea.KeyCtrlS)

	assert.Zero(t, d.srv.Calls(http.MethodPost, "/auth/change-password"))
	assert.Equal(t, aidbtest.DefaultPassword, d.srv.Password())
}
