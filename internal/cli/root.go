// Package cli defines the cobra command tree for qa.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/qa-forum/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qa",
		Short:         "A small question and answer forum",
		Long:          "A question and answer forum. Serve the web UI, manage questions and sessions, and recalculate question reputation from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/qa/forum.db)")

	root.AddCommand(
		newServeCmd(),
		newQuestionCmd(),
		newSessionCmd(),
		newReputationCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// resolveDBPath picks the database path: --db, then QA_DB_PATH, then the
// CLI config file, then the default.
func resolveDBPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	if v := os.Getenv("QA_DB_PATH"); v != "" {
		return v, nil
	}
	cfg, err := loadConfig()
	if err == nil && cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return db.DefaultPath()
}

// openDB opens the SQLite database at the resolved path.
func openDB() (*sql.DB, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	return db.Open(path)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
