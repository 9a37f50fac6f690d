package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/config"
	"github.com/padbhq/padb/internal/logging"
	"github.com/padbhq/padb/internal/prefs"
	"github.com/padbhq/padb/internal/session"
	"github.com/padbhq/padb/internal/ui"
)

// Options configure the padb console.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses the config's prefs_file
}

// Env is the wired API client and session shared by the console and the
// one-shot CLI commands.
type Env struct {
	Config config.Config
	Client *aidb.Client
	Gate   *session.Gate
}

// Connect builds the API client and the session gate for cfg. The client
// reads its bearer token from the gate, and the gate verifies stored tokens
// through the client.
func Connect(cfg config.Config, extra ...aidb.Option) (*Env, error) {
	env := &Env{Config: cfg}
	env.Gate = session.NewGate(session.NewFileStore(cfg.CredentialsFile), session.VerifierFunc(env.verify))

	opts := []aidb.Option{
		aidb.WithTimeout(cfg.Timeout),
		aidb.WithTokenSource(env.Gate),
		aidb.WithDebugLogging(cfg.Debug),
	}
	client, err := aidb.NewClient(cfg.APIURL, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}
	env.Client = client
	return env, nil
}

func (e *Env) verify(ctx context.Context, token string) (string, error) {
	res, err := e.Client.Auth.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	return res.Email, nil
}

// Login exchanges credentials for a token and persists the session.
func (e *Env) Login(ctx context.Context, email, password string) (session.Snapshot, error) {
	res, err := e.Client.Auth.Login(ctx, email, password)
	if err != nil {
		return session.Snapshot{}, err
	}
	if res.UserEmail != "" {
		email = res.UserEmail
	}
	if err := e.Gate.Login(email, res.AccessToken); err != nil {
		return session.Snapshot{}, fmt.Errorf("save credentials: %w", err)
	}
	return e.Gate.Snapshot(), nil
}

// Run boots the console until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closeQuietly(closer)

	log.Info().
		Str("component", "app").
		Str("api_url", cfg.APIURL).
		Str("log_level", cfg.LogLevel).
		Msg("padb console starting")

	if cfg.MetricsAddr != "" {
		addr, err := ServeMetrics(ctx, cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("start metrics listener: %w", err)
		}
		log.Info().Str("component", "app").Str("addr", addr).Msg("metrics listener started")
	}

	env, err := Connect(cfg)
	if err != nil {
		return err
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = cfg.PrefsFile
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("load prefs failed, using defaults")
		userPrefs = prefs.Default()
	}

	err = ui.Run(ui.Options{
		Context:   ctx,
		Client:    env.Client,
		Gate:      env.Gate,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		LogFile:   cfg.LogFile,
	})
	log.Info().Str("component", "app").Msg("padb console stopped")
	return err
}

func closeQuietly(c io.Closer) {
	if c == nil {
		return
	}
	_ = c.Close()
}
