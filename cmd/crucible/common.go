package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quantfall/crucible/internal/config"
	"github.com/quantfall/crucible/internal/data"
	"github.com/quantfall/crucible/internal/sim"
)

// loadConfig resolves the --config flag; an empty flag yields the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

// simFromFlags builds a simulator from the shared drill flags. A zero seed
// leaves the RNG wall-clock seeded.
func simFromFlags(cmd *cobra.Command) (*sim.Simulator, error) {
	slippage, _ := cmd.Flags().GetFloat64("slippage")
	errorRate, _ := cmd.Flags().GetFloat64("error-rate")
	partialMin, _ := cmd.Flags().GetFloat64("partial-min")
	seed, _ := cmd.Flags().GetInt64("seed")

	cfg := sim.Config{
		SlippagePct:    slippage,
		ErrorRate:      errorRate,
		PartialFillMin: partialMin,
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}
	return sim.New(cfg, rng)
}

// loadCandles reads a JSON candle batch from disk and validates every entry.
func loadCandles(path string) ([]data.Candle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candle file: %w", err)
	}

	var candles []data.Candle
	if err := json.Unmarshal(raw, &candles); err != nil {
		return nil, fmt.Errorf("failed to parse candle file: %w", err)
	}
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
	}
	return candles, nil
}

// printJSON renders a result to stdout for piping into jq or a notebook.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// percentile returns the q-th percentile (q in [0,1]) of the values using
// nearest-rank on a sorted copy.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}
