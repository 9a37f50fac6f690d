package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/padbhq/padb/internal/session"
)

func init() {
	var email, password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("PADB_PASSWORD")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return fmt.Errorf("--email and --password (or PADB_PASSWORD) required")
			}
			env, err := connect()
			if err != nil {
				return err
			}
			snap, err := env.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s%s\n", snap.Email, expirySuffix(snap))
			return nil
		},
	}
	loginCmd.Flags().StringVarP(&email, "email", "e", "", "account email (required)")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $PADB_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			if err := env.Gate.Logout(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Verify the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			snap, err := signedIn(cmd, env.Gate)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", snap.Email, expirySuffix(snap))
			return nil
		},
	})
}

var errNotSignedIn = errors.New("not signed in; run padb login")

// signedIn verifies the stored token and fails unless the session is live.
func signedIn(cmd *cobra.Command, gate *session.Gate) (session.Snapshot, error) {
	snap := gate.Start(cmd.Context())
	if snap.Status != session.Authenticated {
		return snap, errNotSignedIn
	}
	return snap, nil
}

func expirySuffix(snap session.Snapshot) string {
	if snap.ExpiresAt.IsZero() {
		return ""
	}
	return " (expires " + snap.ExpiresAt.Local().Format("2006-01-02 15:04") + ")"
}
