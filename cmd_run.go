package main

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"time"

	"clinicbench/benchmark"
	"clinicbench/benchmark/engines"
	"clinicbench/report"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	runBackends []string
	runPrefix   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the benchmark sequence against every backend and reports the results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmarks(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runBackends, "backends", nil, "Backends to run, overrides the config")
	runCmd.Flags().StringVar(&runPrefix, "prefix", "", "Output file name prefix (default benchmark-<time>)")
	rootCmd.AddCommand(runCmd)
}

func outputPrefix(prefix string, now time.Time) string {
	if prefix != "" {
		return prefix
	}
	return "benchmark-" + now.Format("20060102-150405")
}

// Writes the enabled output files
func saveOutputs(reporter *report.Reporter, prefix string) error {
	var errs []error
	if cfg.Outputs.JSON {
		_, err := reporter.SaveJSON(prefix + ".json")
		errs = append(errs, err)
	}
	if cfg.Outputs.CSV {
		_, err := reporter.SaveCSV(prefix + ".csv")
		errs = append(errs, err)
	}
	if cfg.Outputs.Markdown {
		_, err := reporter.SaveMarkdown(prefix + ".md")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Runs each backend in turn. A failing backend keeps its partial results and
// does not stop the others, unless the run was interrupted.
func runBenchmarks(ctx context.Context, out io.Writer) error {
	backends, err := selectBackends(runBackends)
	if err != nil {
		return err
	}
	lane, err := suiteLane(cfg, rand.IntN)
	if err != nil {
		return err
	}
	dataSeed := runSeed()
	reporter := report.New(cfg.ResultsDir)
	prefix := outputPrefix(runPrefix, time.Now())

	zlog.Info().Strs("backends", backends).Uint64("seed", dataSeed).Int("phone_lane", lane).Msg("Run started")

	var errs []error
	for _, name := range backends {
		e, err := engines.New(name, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		results, err := benchmark.NewSuite(e, newGenerator(dataSeed, lane)).RunAll(ctx)
		reporter.Add(results...)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	reporter.Print(out)
	reporter.PrintRankings(out)
	errs = append(errs, saveOutputs(reporter, prefix))

	zlog.Info().Int("results", len(reporter.Results())).Float64("duration_ms", reporter.TotalDuration()).Msg("Run ended")
	return errors.Join(errs...)
}
