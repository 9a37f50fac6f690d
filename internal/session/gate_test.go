package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/aidb/aidbtest"
	"github.com/padbhq/padb/internal/session"
)

func apiVerifier(c *aidb.Client) session.Verifier {
	return session.VerifierFunc(func(ctx context.Context, token string) (string, error) {
		res, err := c.Auth.Verify(ctx, token)
		return res.Email, err
	})
}

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestStartWithoutCredentialsIsUnauthenticated(t *testing.T) {
	called := false
	gate := session.NewGate(session.NewMemoryStore(session.Credentials{}),
		session.VerifierFunc(func(context.Context, string) (string, error) {
			called = true
			return "", nil
		}))

	snap := gate.Start(context.Background())
	assert.Equal(t, session.Unauthenticated, snap.Status)
	assert.False(t, called)
	assert.Empty(t, gate.Token())
}

func TestBeginEntersVerifying(t *testing.T) {
	store := session.NewMemoryStore(session.Credentials{AccessToken: "tok", UserEmail: "a@b.c", IsLoggedIn: true})
	gate := session.NewGate(store, nil)

	token, verify := gate.Begin()
	assert.True(t, verify)
	assert.Equal(t, "tok", token)
	assert.Equal(t, session.Verifying, gate.Status())
	assert.Empty(t, gate.Token(), "no bearer while verifying")
}

func TestRejectedTokenClearsCredentials(t *testing.T) {
	srv := aidbtest.New(t)
	client, err := aidb.NewClient(srv.BaseURL())
	require.NoError(t, err)

	store := session.NewFileStore(filepath.Join(t.TempDir(), "credentials.toml"))
	require.NoError(t, store.Save(session.Credentials{AccessToken: "revoked", UserEmail: "a@b.c", IsLoggedIn: true}))

	gate := session.NewGate(store, apiVerifier(client))
	snap := gate.Start(context.Background())

	assert.Equal(t, session.Unauthenticated, snap.Status)
	_, statErr := os.Stat(store.Path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "credentials file should be removed")
	creds, err := store.Load()
	require.NoError(t, err)
	assert.False(t, creds.Valid())
}

func TestValidTokenRestoresSession(t *testing.T) {
	srv := aidbtest.New(t)
	client, err := aidb.NewClient(srv.BaseURL())
	require.NoError(t, err)

	store := session.NewMemoryStore(session.Credentials{AccessToken: srv.Token(), UserEmail: "old@example.com", IsLoggedIn: true})
	gate := session.NewGate(store, apiVerifier(client))
	snap := gate.Start(context.Background())

	require.Equal(t, session.Authenticated, snap.Status)
	assert.Equal(t, aidbtest.DefaultEmail, snap.Email)
	assert.Equal(t, srv.Token(), gate.Token())
	assert.False(t, snap.ExpiresAt.IsZero())
}

func TestNetworkFailureDuringVerifyIsUnauthenticated(t *testing.T) {
	store := session.NewMemoryStore(session.Credentials{AccessToken: "tok", IsLoggedIn: true})
	gate := session.NewGate(store, session.VerifierFunc(func(context.Context, string) (string, error) {
		return "", &aidb.NetworkError{Op: "verify token", Err: errors.New("connection refused")}
	}))

	snap := gate.Start(context.Background())
	assert.Equal(t, session.Unauthenticated, snap.Status)
	assert.False(t, store.Present())
}

func TestLateVerificationAfterLoginIsIgnored(t *testing.T) {
	store := session.NewMemoryStore(session.Credentials{AccessToken: "old", IsLoggedIn: true})
	gate := session.NewGate(store, nil)

	token, _ := gate.Begin()
	require.NoError(t, gate.Login("new@example.com", "fresh"))

	snap := gate.Resolve(token, "", errors.New("rejected"))
	assert.Equal(t, session.Authenticated, snap.Status)
	assert.Equal(t, "fresh", gate.Token())
	assert.True(t, store.Present())
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.toml"))
	gate := session.NewGate(store, nil)
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token := signedToken(t, "ada@example.com", exp)

	require.NoError(t, gate.Login("ada@example.com", token))
	snap := gate.Snapshot()
	assert.Equal(t, session.Authenticated, snap.Status)
	assert.True(t, snap.ExpiresAt.Equal(exp))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, session.Credentials{AccessToken: token, UserEmail: "ada@example.com", IsLoggedIn: true}, creds)

	require.NoError(t, gate.Logout())
	assert.Equal(t, session.Unauthenticated, gate.Status())
	assert.Empty(t, gate.Token())
	creds, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, session.Credentials{}, creds)
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	gate := session.NewGate(nil, nil)
	assert.Error(t, gate.Login("a@b.c", " "))
	assert.Equal(t, session.Unauthenticated, gate.Status())
}

func TestExpireKeepsNotice(t *testing.T) {
	gate := session.NewGate(nil, nil)
	require.NoError(t, gate.Login("a@b.c", "tok"))
	require.NoError(t, gate.Expire("Session expired"))

	snap := gate.Snapshot()
	assert.Equal(t, session.Unauthenticated, snap.Status)
	assert.Equal(t, "Session expired", snap.Notice)
}

func TestGateIsTokenSource(t *testing.T) {
	srv := aidbtest.New(t)
	gate := session.NewGate(nil, nil)
	client, err := aidb.NewClient(srv.BaseURL(), aidb.WithTokenSource(gate))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.Contacts.List(ctx, aidb.ContactFilter{})
	require.NoError(t, err)
	assert.Empty(t, srv.LastAuthorization())

	require.NoError(t, gate.Login(aidbtest.DefaultEmail, srv.Token()))
	_, err = client.Contacts.List(ctx, aidb.ContactFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+srv.Token(), srv.LastAuthorization())
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := session.ParseClaims(signedToken(t, "ada@example.com", exp))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Subject)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Second)))

	_, err = session.ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestPolicyDecide(t *testing.T) {
	p := session.Policy{LoginRoute: "login", HomeRoute: "dashboard"}
	tests := []struct {
		status session.Status
		route  string
		want   session.Decision
	}{
		{session.Verifying, "contacts", session.Decision{Loading: true}},
		{session.Verifying, "login", session.Decision{Loading: true}},
		{session.Unauthenticated, "contacts", session.Decision{Redirect: "login"}},
		{session.Unauthenticated, "login", session.Decision{}},
		{session.Authenticated, "login", session.Decision{Redirect: "dashboard"}},
		{session.Authenticated, "events", session.Decision{}},
	}
	for _, tt := range tests {
		got := p.Decide(tt.status, tt.route)
		assert.Equal(t, tt.want, got, "%s %s", tt.status, tt.route)
	}
	assert.Equal(t, "login", session.Decision{Redirect: "login"}.Target("contacts"))
	assert.Equal(t, "contacts", session.Decision{}.Target("contacts"))
}
