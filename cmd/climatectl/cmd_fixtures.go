package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"surfsup-server/internal/db"
	"surfsup-server/internal/fixtures"
)

func newFixturesCmd(state *cliState) *cobra.Command {
	var schemaOnly bool
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Create the demo store and load the sample dataset",
		Long: `fixtures opens the configured SQLite store read-write, creating it if
needed, and applies any pending fixture versions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if state.cfg.Driver != "sqlite3" {
				return fmt.Errorf("fixtures: only sqlite3 stores are supported, got %q", state.cfg.Driver)
			}
			conn, _, err := db.Open(state.cfg, db.ReadWrite, slog.Default())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := conn.Close(); closeErr != nil {
					slog.Error("db close", "error", closeErr)
				}
			}()

			last := fixtures.Sample
			if schemaOnly {
				last = fixtures.Schema
			}
			if err := fixtures.ApplyUpTo(conn, last); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fixtures applied to %s\n", state.cfg.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "create the tables without sample rows")
	return cmd
}
