package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfall/crucible/internal/stress"
)

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Monte Carlo stress test over historical candle returns",
		RunE:  runStress,
	}

	cmd.Flags().String("candles", "", "Path to a JSON candle file (required)")
	cmd.Flags().Int("sims", 0, "Number of simulated paths (0 uses config)")
	cmd.Flags().Int64("seed", 0, "Resampling seed (0 uses config)")
	cmd.Flags().Float64("shock", 0, "Black-swan return shock to inject, e.g. -0.3")
	cmd.Flags().String("shock-at", "", "RFC3339 timestamp of the return to shock")
	cmd.MarkFlagRequired("candles")

	return cmd
}

// stressReport summarizes the distribution of final capital across paths.
type stressReport struct {
	Sims           int     `json:"sims"`
	Periods        int     `json:"periods"`
	InitialCapital float64 `json:"initial_capital"`
	Worst          float64 `json:"worst"`
	P05            float64 `json:"p05"`
	Median         float64 `json:"median"`
	P95            float64 `json:"p95"`
	Best           float64 `json:"best"`
	BreachFraction float64 `json:"breach_fraction"` // paths ending below the drawdown floor
}

func runStress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("candles")
	candles, err := loadCandles(path)
	if err != nil {
		return err
	}

	series := stress.ReturnsFromCandles(candles)
	if len(series) == 0 {
		return fmt.Errorf("candle file %s yields no usable returns", path)
	}

	if shock, _ := cmd.Flags().GetFloat64("shock"); shock != 0 {
		atRaw, _ := cmd.Flags().GetString("shock-at")
		at, err := time.Parse(time.RFC3339, atRaw)
		if err != nil {
			return fmt.Errorf("invalid --shock-at: %w", err)
		}
		series, err = stress.InjectBlackSwan(series, shock, at)
		if err != nil {
			return err
		}
	}

	nSims := cfg.Stress.NSims
	if n, _ := cmd.Flags().GetInt("sims"); n > 0 {
		nSims = n
	}
	seed := cfg.Stress.Seed
	if s, _ := cmd.Flags().GetInt64("seed"); s != 0 {
		seed = s
	}

	matrix, err := stress.MonteCarloReturns(series, nSims, seed)
	if err != nil {
		return err
	}
	finals, err := stress.SimulatePnL(matrix, cfg.Portfolio.InitialCapital)
	if err != nil {
		return err
	}

	floor := cfg.Portfolio.InitialCapital * (1 - cfg.Portfolio.MaxDrawdown)
	var breached int
	for _, f := range finals {
		if f < floor {
			breached++
		}
	}

	return printJSON(stressReport{
		Sims:           matrix.Sims(),
		Periods:        matrix.Periods(),
		InitialCapital: cfg.Portfolio.InitialCapital,
		Worst:          percentile(finals, 0),
		P05:            percentile(finals, 0.05),
		Median:         percentile(finals, 0.5),
		P95:            percentile(finals, 0.95),
		Best:           percentile(finals, 1),
		BreachFraction: float64(breached) / float64(len(finals)),
	})
}
