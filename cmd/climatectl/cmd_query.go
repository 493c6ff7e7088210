package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/schema"
)

// withService connects read-only, runs fn and closes the store.
func withService(ctx context.Context, state *cliState, fn func(*service.Service, *schema.Store) error) error {
	store, err := schema.Connect(ctx, state.cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	repo, err := repository.NewRepository(store)
	if err != nil {
		return err
	}
	return fn(service.NewService(repo), store)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSchemaCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the reflected tables and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), state, func(_ *service.Service, store *schema.Store) error {
				for _, t := range store.Schema().Tables() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", t.Name)
					for _, c := range t.Columns {
						fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", c)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nmeasurement -> %s, station -> %s\n", store.Measurement.Name, store.Station.Name)
				return nil
			})
		},
	}
}

func newStationsCmd(state *cliState) *cobra.Command {
	var count, mostActive bool
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Print station identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), state, func(svc *service.Service, _ *schema.Store) error {
				switch {
				case count:
					n, err := svc.StationCount(cmd.Context())
					if err != nil {
						return err
					}
					return printJSON(cmd, map[string]int{"stations": n})
				case mostActive:
					a, ok, err := svc.MostActiveStation(cmd.Context())
					if err != nil {
						return err
					}
					if !ok {
						return printJSON(cmd, nil)
					}
					return printJSON(cmd, a)
				}
				ids, err := svc.Stations(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, ids)
			})
		},
	}
	cmd.Flags().BoolVar(&count, "count", false, "print the number of distinct stations")
	cmd.Flags().BoolVar(&mostActive, "most-active", false, "print the station with the most measurements")
	cmd.MarkFlagsMutuallyExclusive("count", "most-active")
	return cmd
}

func newPrecipitationCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "precipitation",
		Short: "Print the trailing year of precipitation by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), state, func(svc *service.Service, _ *schema.Store) error {
				prcp, err := svc.Precipitation(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, prcp)
			})
		},
	}
}

func newTOBSCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "tobs",
		Short: "Print the trailing year of temperatures of the most active station",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), state, func(svc *service.Service, _ *schema.Store) error {
				tobs, err := svc.TOBS(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, tobs)
			})
		},
	}
}

func newTempsCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "temps START [END]",
		Short: "Print [min, avg, max] temperature from START, optionally up to END",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var end *string
			if len(args) == 2 {
				end = &args[1]
			}
			return withService(cmd.Context(), state, func(svc *service.Service, _ *schema.Store) error {
				stats, err := svc.TemperatureRange(cmd.Context(), args[0], end)
				if err != nil {
					return err
				}
				return printJSON(cmd, stats)
			})
		},
	}
}
