// Package cmd contains the CLI commands for synergyctl.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/synergy/internal/storage"
)

// defaultDBPath is the default database path, can be overridden via SYNERGY_DB_PATH env var
var defaultDBPath = "./data/synergy.db"

var (
	// Used for flags
	verbose bool
	output  string
	dbPath  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "synergyctl",
	Short: "synergyctl - Synergy administration tool",
	Long: `synergyctl manages a Synergy database directly, without going
through the HTTP API. It is intended for operators: creating the first
accounts, resetting passwords and inspecting projects.

Examples:
  # List all users
  synergyctl user list

  # Create a user
  synergyctl user create --email jane@example.com --first-name Jane --last-name Doe

  # Show the members of a project
  synergyctl project members --id 6f1c...`,
	SilenceUsage: true,
	// Run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if envPath := os.Getenv("SYNERGY_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath, "path to SQLite database file")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(w io.Writer, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// openDatabase opens an existing SQLite database and applies pending
// migrations.
func openDatabase(path string) (*storage.SQLiteStorage, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", path)
	}

	store := storage.NewSQLiteStorage(path)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return store, nil
}
