package cli

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/qa-forum/internal/auth"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sign-in sessions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "issue <email>",
			Short: "Issue a session for a user",
			Long:  "Issue a session for a user and print a sign-in link for the web UI.",
			Args:  cobra.ExactArgs(1),
			RunE:  runSessionIssue,
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Delete expired sessions",
			Args:  cobra.NoArgs,
			RunE:  runSessionCleanup,
		},
	)

	return cmd
}

type issuedSession struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	LoginURL  string    `json:"login_url"`
}

func runSessionIssue(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	store := auth.NewSessionStore(database, false)
	id, expiresAt, err := store.Issue(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	issued := issuedSession{
		ID:        id,
		Email:     strings.ToLower(strings.TrimSpace(args[0])),
		ExpiresAt: expiresAt,
		LoginURL:  loginURL(getServerURL(), id),
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, issued)
	}
	fmt.Fprintf(out, "Session for %s (expires %s)\n", issued.Email, expiresAt.Format("2006-01-02"))
	fmt.Fprintf(out, "  ID:    %s\n", id)
	fmt.Fprintf(out, "  Login: %s\n", issued.LoginURL)
	return nil
}

func runSessionCleanup(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if err := auth.NewSessionStore(database, false).Cleanup(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Expired sessions removed.")
	return nil
}

// loginURL builds the sign-in link for session id.
func loginURL(serverURL, id string) string {
	return strings.TrimRight(serverURL, "/") + auth.LoginPath + "?" + url.Values{"session": {id}}.Encode()
}
