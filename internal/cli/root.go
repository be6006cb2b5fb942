// Package cli implements senseictl, a terminal companion to the dashboard
// that drives the same backend API with a file-backed session.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sensei/dashboard/internal/sensei"
	"github.com/sensei/dashboard/internal/session"
)

type rootFlags struct {
	APIURL      string
	SessionFile string
}

var rf rootFlags

func Execute() error {
	rootCmd := &cobra.Command{
		Use:           "senseictl",
		Short:         "Command line client for the Sensei chatbot testing API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&rf.APIURL, "api-url", envOr("SENSEI_API_BASE_URL", "http://localhost:8000"), "Backend API base URL")
	rootCmd.PersistentFlags().StringVar(&rf.SessionFile, "session-file", defaultSessionFile(), "Path of the session state file")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(testcasesCmd())
	rootCmd.AddCommand(connectorsCmd())
	rootCmd.AddCommand(apikeysCmd())
	rootCmd.AddCommand(uploadCmd())

	return rootCmd.Execute()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sensei-session.json"
	}
	return filepath.Join(home, ".sensei", "session.json")
}

// newAPI builds a client against the configured backend with the session
// loaded from disk. The session file is created on first use.
func newAPI() (sensei.API, session.Store, error) {
	if err := os.MkdirAll(filepath.Dir(rf.SessionFile), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create session directory: %w", err)
	}
	sessions, err := session.NewFileStore(rf.SessionFile, zerolog.Nop())
	if err != nil {
		return nil, nil, fmt.Errorf("open session file: %w", err)
	}
	api := sensei.NewClient(rf.APIURL, sessions,
		sensei.WithSessionExpiredHook(func() {
			fmt.Fprintln(os.Stderr, "session expired, run `senseictl login` again")
		}),
	)
	return api, sessions, nil
}
