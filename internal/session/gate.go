package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Status is the authentication state of the process.
type Status int

const (
	Unauthenticated Status = iota
	Verifying
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Verifying:
		return "verifying"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session at one point in time.
type Snapshot struct {
	Status    Status
	Token     string
	Email     string
	ExpiresAt time.Time // zero when the token carries no exp claim
	Notice    string    // why the session last ended, e.g. "Session expired"
}

// Verifier checks a token against the API and returns the account email.
type Verifier interface {
	Verify(ctx context.Context, token string) (email string, err error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (string, error)

// Verify implements Verifier.
func (f VerifierFunc) Verify(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// Gate owns the process-wide session. It is constructed once and passed to
// the API client (as its TokenSource) and to the screens.
type Gate struct {
	mu       sync.RWMutex
	snapshot Snapshot
	store    Store
	verifier Verifier
}

// NewGate wires a gate to its credential store and verifier.
func NewGate(store Store, verifier Verifier) *Gate {
	if store == nil {
		store = NewMemoryStore(Credentials{})
	}
	return &Gate{store: store, verifier: verifier}
}

// Begin loads persisted credentials. With a stored token the gate enters
// Verifying and returns the token to check; otherwise it is Unauthenticated.
func (g *Gate) Begin() (token string, verify bool) {
	creds, err := g.store.Load()
	if err != nil {
		log.Warn().Err(err).Str("component", "session").Msg("load credentials failed")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil || !creds.Valid() {
		g.snapshot = Snapshot{Status: Unauthenticated}
		return "", false
	}
	g.snapshot = Snapshot{Status: Verifying, Token: creds.AccessToken, Email: creds.UserEmail}
	return creds.AccessToken, true
}

// Resolve completes a verification started by Begin. Results for a token
// the gate is no longer verifying (a login happened meanwhile) are ignored.
// Any failure, network errors included, ends Unauthenticated with the
// persisted credentials cleared.
func (g *Gate) Resolve(token, email string, verifyErr error) Snapshot {
	g.mu.Lock()
	if g.snapshot.Status != Verifying || g.snapshot.Token != token {
		snap := g.snapshot
		g.mu.Unlock()
		return snap
	}
	if verifyErr != nil {
		g.snapshot = Snapshot{Status: Unauthenticated}
		snap := g.snapshot
		g.mu.Unlock()

		log.Info().Err(verifyErr).Str("component", "session").Msg("stored token rejected")
		g.clearStore()
		return snap
	}
	if strings.TrimSpace(email) == "" {
		email = g.snapshot.Email
	}
	g.snapshot = Snapshot{
		Status:    Authenticated,
		Token:     token,
		Email:     email,
		ExpiresAt: expiryOf(token),
	}
	snap := g.snapshot
	g.mu.Unlock()

	log.Info().Str("component", "session").Str("email", email).Msg("session restored")
	return snap
}

// Verify runs the verifier for token and resolves the result.
func (g *Gate) Verify(ctx context.Context, token string) Snapshot {
	if g.verifier == nil {
		return g.Resolve(token, "", fmt.Errorf("no verifier configured"))
	}
	email, err := g.verifier.Verify(ctx, token)
	return g.Resolve(token, email, err)
}

// Start performs Begin and, when needed, Verify.
func (g *Gate) Start(ctx context.Context) Snapshot {
	token, verify := g.Begin()
	if !verify {
		return g.Snapshot()
	}
	return g.Verify(ctx, token)
}

// Login moves any state to Authenticated and persists the credentials.
func (g *Gate) Login(email, token string) error {
	email = strings.TrimSpace(email)
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("login: empty token")
	}

	g.mu.Lock()
	g.snapshot = Snapshot{
		Status:    Authenticated,
		Token:     token,
		Email:     email,
		ExpiresAt: expiryOf(token),
	}
	g.mu.Unlock()

	log.Info().Str("component", "session").Str("email", email).Msg("logged in")
	if err := g.store.Save(Credentials{AccessToken: token, UserEmail: email, IsLoggedIn: true}); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// Logout ends the session and clears persisted credentials.
func (g *Gate) Logout() error {
	return g.end("")
}

// Expire ends the session after the API rejected the token. notice is shown
// on the login screen.
func (g *Gate) Expire(notice string) error {
	return g.end(notice)
}

func (g *Gate) end(notice string) error {
	g.mu.Lock()
	was := g.snapshot.Status
	g.snapshot = Snapshot{Status: Unauthenticated, Notice: notice}
	g.mu.Unlock()

	log.Info().Str("component", "session").Str("from", was.String()).Str("notice", notice).Msg("session ended")
	if err := g.store.Clear(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (g *Gate) clearStore() {
	if err := g.store.Clear(); err != nil {
		log.Warn().Err(err).Str("component", "session").Msg("clear credentials failed")
	}
}

// Token returns the bearer token while Authenticated. It satisfies
// aidb.TokenSource.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.snapshot.Status != Authenticated {
		return ""
	}
	return g.snapshot.Token
}

// Snapshot returns a copy of the current session.
func (g *Gate) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshot
}

// Status returns the current status.
func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshot.Status
}

func expiryOf(token string) time.Time {
	claims, err := ParseClaims(token)
	if err != nil {
		return time.Time{}
	}
	return claims.ExpiresAt
}
