package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/padbhq/padb/internal/app"
	"github.com/padbhq/padb/internal/config"
	"github.com/padbhq/padb/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configFlag string
	prefsFlag  string
	rootCmd    = &cobra.Command{
		Use:           "padb",
		Short:         "Terminal console for the Personal AI Database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConsole,
	}
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "config file (default ~/.config/padb/config.toml)")
	rootCmd.PersistentFlags().StringVar(&prefsFlag, "prefs", "", "preferences file (default from config)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "console",
		Short: "Run the terminal console",
		Args:  cobra.NoArgs,
		RunE:  runConsole,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the padb version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "padb %s\n", version)
		},
	})

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "padb: %v\n", err)
		return 1
	}
	return 0
}

func runConsole(cmd *cobra.Command, _ []string) error {
	return app.Run(cmd.Context(), app.Options{ConfigPath: configFlag, PrefsPath: prefsFlag})
}

// connect loads config for a one-shot command. Logs go to stderr since no
// TUI owns the terminal.
func connect() (*app.Env, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.SetupConsole(cfg.LogLevel, os.Stderr); err != nil {
		return nil, err
	}
	return app.Connect(cfg)
}
