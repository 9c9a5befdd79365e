package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"clinicbench/benchmark"
	"clinicbench/benchmark/engines"
	engine "clinicbench/benchmark/engines/abstract"
	dbutils "clinicbench/dbUtils"
	"clinicbench/report"
	"clinicbench/seed"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	dbBackends    []string
	olderThanDays int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the clinic tables of every backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return forEachStore(cmd.Context(), func(ctx context.Context, name string, store engine.Store) error {
			return dbutils.Migrate(ctx, store, name)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replaces the data of every backend with a generated dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return seedAll(cmd.Context())
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Measures deleting the patients first seen before a cutoff",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteOlderThan(cmd.Context(), cmd.OutOrStdout(), olderThanDays)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{migrateCmd, seedCmd, deleteCmd} {
		cmd.Flags().StringSliceVar(&dbBackends, "backends", nil, "Backends to use, overrides the config")
		rootCmd.AddCommand(cmd)
	}
	deleteCmd.Flags().IntVar(&olderThanDays, "older-than", 365, "Age in days of the first visit")
}

// Opens the store of each selected backend in turn and calls fn with it
func forEachStore(ctx context.Context, fn func(ctx context.Context, name string, store engine.Store) error) error {
	backends, err := selectBackends(dbBackends)
	if err != nil {
		return err
	}
	for _, name := range backends {
		store, err := engines.OpenStore(ctx, name, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		err = fn(ctx, name, store)
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func seedAll(ctx context.Context) error {
	return forEachStore(ctx, func(ctx context.Context, name string, store engine.Store) error {
		zlog.Info().Str("backend", name).Msg("Seeding started")
		if _, err := seed.New(store, cfg.Seed, cfg.RandomSeed).Run(ctx); err != nil {
			return err
		}
		return dbutils.VacuumAnalyze(ctx, store)
	})
}

func deleteOlderThan(ctx context.Context, out io.Writer, days int) error {
	if days < 0 {
		return fmt.Errorf("--older-than must not be negative, got %d", days)
	}
	backends, err := selectBackends(dbBackends)
	if err != nil {
		return err
	}

	plan := []benchmark.Step{{
		Label: benchmark.BulkDeleteLabel(days),
		Run: func(ctx context.Context, s *benchmark.Suite) (benchmark.Result, error) {
			return s.BulkDelete(ctx, days)
		},
	}}

	reporter := report.New(cfg.ResultsDir)
	var errs []error
	for _, name := range backends {
		e, err := engines.New(name, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results, err := benchmark.NewSuite(e, newGenerator(runSeed(), 0)).RunPlan(ctx, plan)
		reporter.Add(results...)
		errs = append(errs, err)
	}

	reporter.Print(out)
	return errors.Join(errs...)
}
