// Package cli implements the nodeset-import CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/nodeset-import/internal/config"
	"github.com/rcliao/nodeset-import/internal/ctxlog"
	"github.com/rcliao/nodeset-import/internal/store"
)

var (
	dbPath     string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "nodeset-import",
	Short: "Import and check OPC UA nodeset files",
	Long: "Validate, deduplicate and load OPC UA nodeset XML files into a workspace. " +
		"SQLite-backed by default; pass a postgres:// DSN to --db to use PostgreSQL.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := ctxlog.New(os.Stderr, verbose)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path or postgres DSN (default: $NODESET_DB or ~/.nodeset-import/workspace.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")
}

func openStore() (*store.SQLStore, error) {
	return store.Open(config.DBPath(dbPath))
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
