package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"surfsup-server/internal/config"
)

type cliState struct {
	cfg     config.Config
	verbose bool
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	rootCmd := &cobra.Command{
		Use:   "climatectl",
		Short: "Inspect and query the Hawaii climate store",
		Long: `climatectl reads the same store as the surfsup API, using the same
environment configuration, and prints what the API would return.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			state.cfg = cfg

			level := slog.LevelWarn
			if state.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
				Level:      level,
				TimeFormat: time.Kitchen,
			})))
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "log every SQL statement to stderr")

	rootCmd.AddCommand(
		newSchemaCmd(state),
		newStationsCmd(state),
		newPrecipitationCmd(state),
		newTOBSCmd(state),
		newTempsCmd(state),
		newFixturesCmd(state),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
