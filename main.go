package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"os/signal"
	"slices"
	"time"

	"clinicbench/config"
	"clinicbench/generator"
	"clinicbench/seed"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Used when --conf is not given and the file exists
const defaultConfigFile = "clinicbench.yaml"

var (
	disableLog bool
	configFile string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "clinicbench",
	Short:         "Benchmarks database access libraries on a clinic workload",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(disableLog, logLevel)
		var err error
		cfg, err = loadConfig(configFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&disableLog, "no-log", false, "Disables the log")
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "Benchmark config file (default "+defaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "level", "debug", "Log level (info|debug)")
}

// Prepare zerolog
func setupLogging(disableLog bool, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var zlevel zerolog.Level
	if disableLog {
		zlevel = zerolog.Disabled
	} else if level == "info" {
		zlevel = zerolog.InfoLevel
	} else {
		zlevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(zlevel)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: colorable.NewColorableStderr(), TimeFormat: time.TimeOnly})
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return config.Load(path)
}

// Returns the backends given on the command line, or the configured ones
func selectBackends(override []string) ([]string, error) {
	if len(override) == 0 {
		return cfg.Backends, nil
	}
	for _, b := range override {
		if !slices.Contains(config.KnownBackends, b) {
			return nil, fmt.Errorf("unknown backend %q", b)
		}
	}
	return override, nil
}

// Returns the data seed shared by every backend of a run, so that all of
// them receive the same payloads
func runSeed() uint64 {
	if cfg.RandomSeed != 0 {
		return cfg.RandomSeed
	}
	return rand.Uint64() | 1
}

// Returns the phone lane of the benchmark generator. Lanes used by the seeder
// are skipped so benchmark writes never collide with seeded patients.
func suiteLane(c *config.Config, intn func(int) int) (int, error) {
	if c.PhoneLane != 0 {
		return c.PhoneLane, nil
	}
	batches, err := seed.New(nil, c.Seed, 0).Batches()
	if err != nil {
		return 0, err
	}
	first := max(len(batches), 1)
	if first >= 10000 {
		return 0, fmt.Errorf("no phone lane left after %d seeded lanes, set phoneLane", first)
	}
	return first + intn(10000-first), nil
}

func newGenerator(dataSeed uint64, lane int) *generator.Generator {
	return generator.New(generator.WithSeed(dataSeed), generator.WithPhoneLane(lane))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		zlog.Error().Err(err).Msg("Failed")
		if disableLog {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
