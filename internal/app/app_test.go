package app

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/aidb/aidbtest"
	"github.com/padbhq/padb/internal/config"
	"github.com/padbhq/padb/internal/session"
)

func testConfig(t *testing.T, srv *aidbtest.Server) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = srv.BaseURL()
	cfg.Timeout = 5 * time.Second
	cfg.CredentialsFile = filepath.Join(t.TempDir(), "credentials.toml")
	return cfg
}

func TestLoginPersistsAndRestores(t *testing.T) {
	srv := aidbtest.New(t)
	cfg := testConfig(t, srv)
	ctx := context.Background()

	env, err := Connect(cfg)
	require.NoError(t, err)
	snap, err := env.Login(ctx, aidbtest.DefaultEmail, aidbtest.DefaultPassword)
	require.NoError(t, err)
	assert.Equal(t, session.Authenticated, snap.Status)
	assert.Equal(t, aidbtest.DefaultEmail, snap.Email)

	// A second process picks the session up from the credentials file.
	restored, err := Connect(cfg)
	require.NoError(t, err)
	snap = restored.Gate.Start(ctx)
	require.Equal(t, session.Authenticated, snap.Status)

	_, err = restored.Client.Contacts.List(ctx, aidb.ContactFilter{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+srv.Token(), srv.LastAuthorization())
}

func TestLoginWrongPassword(t *testing.T) {
	srv := aidbtest.New(t)
	env, err := Connect(testConfig(t, srv))
	require.NoError(t, err)

	_, err = env.Login(context.Background(), aidbtest.DefaultEmail, "wrong")
	require.Error(t, err)
	assert.True(t, aidb.IsUnauthorized(err))
	assert.Equal(t, session.Unauthenticated, env.Gate.Status())
}

func TestRevokedTokenIsCleared(t *testing.T) {
	srv := aidbtest.New(t)
	cfg := testConfig(t, srv)
	ctx := context.Background()

	env, err := Connect(cfg)
	require.NoError(t, err)
	_, err = env.Login(ctx, aidbtest.DefaultEmail, aidbtest.DefaultPassword)
	require.NoError(t, err)

	srv.RevokeToken()
	restored, err := Connect(cfg)
	require.NoError(t, err)
	snap := restored.Gate.Start(ctx)
	assert.Equal(t, session.Unauthenticated, snap.Status)

	creds, err := session.NewFileStore(cfg.CredentialsFile).Load()
	require.NoError(t, err)
	assert.False(t, creds.Valid())
}

func TestConnectRejectsBadURL(t *testing.T) {
	cfg := config.Default()
	cfg.APIURL = "://nope"
	_, err := Connect(cfg)
	require.Error(t, err)
}

func TestServeMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := ServeMetrics(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}
