package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "crucible"
	version = "v0.3.0"
)

func main() {
	setupLogging()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Paper-trading fill simulation and portfolio risk toolkit",
		Version: version,
		Long: `Crucible is an algorithmic-trading research toolkit: it replays strategies
over candle data, simulates fills with slippage and randomized failure, and
tracks portfolio capital against a hard drawdown floor.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config (defaults apply when empty)")

	rootCmd.AddCommand(newDrillCmd())
	rootCmd.AddCommand(newStressCmd())
	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// setupLogging picks console output on a TTY and structured JSON otherwise.
func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// addSimFlags registers the simulator tuning flags shared by the drill
// subcommands.
func addSimFlags(fs *pflag.FlagSet) {
	fs.Float64("slippage", 0.001, "Fractional slippage applied to fill prices")
	fs.Float64("error-rate", 0.25, "Probability of an injected exchange error per call")
	fs.Float64("partial-min", 0.5, "Minimum fill fraction when partial")
	fs.Int64("seed", 0, "RNG seed (0 seeds from the wall clock)")
}
