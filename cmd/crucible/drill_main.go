package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfall/crucible/internal/drills"
	"github.com/quantfall/crucible/internal/journal"
	"github.com/quantfall/crucible/internal/sim"
)

func newDrillCmd() *cobra.Command {
	drillCmd := &cobra.Command{
		Use:   "drill",
		Short: "Run failure drills against the simulated exchange",
	}

	addSimFlags(drillCmd.PersistentFlags())
	drillCmd.PersistentFlags().String("symbol", "BTC/USDT", "Symbol for drill orders")
	drillCmd.PersistentFlags().Float64("amount", 1.0, "Order amount")
	drillCmd.PersistentFlags().Float64("price", 100.0, "Reference price")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Probe order placement against an unreliable exchange with retries",
		RunE:  runDrillDown,
	}
	downCmd.Flags().Int("attempts", 3, "Retry attempts before giving up")

	partialCmd := &cobra.Command{
		Use:   "partial",
		Short: "Analyze fill ratios across a batch of orders",
		RunE:  runDrillPartial,
	}
	partialCmd.Flags().Int("orders", 20, "Number of orders in the batch")
	partialCmd.Flags().Bool("journal", false, "Journal fills to the Redis event stream")

	breakerCmd := &cobra.Command{
		Use:   "breaker",
		Short: "Push calls through a circuit breaker and report its behavior",
		RunE:  runDrillBreaker,
	}
	breakerCmd.Flags().Int("calls", 10, "Calls to push through the breaker")

	drillCmd.AddCommand(downCmd, partialCmd, breakerCmd)
	return drillCmd
}

func drillOrder(cmd *cobra.Command) sim.OrderRequest {
	symbol, _ := cmd.Flags().GetString("symbol")
	amount, _ := cmd.Flags().GetFloat64("amount")
	price, _ := cmd.Flags().GetFloat64("price")
	return sim.OrderRequest{
		Symbol: symbol,
		Type:   sim.OrderMarket,
		Side:   sim.SideBuy,
		Amount: amount,
		Price:  price,
	}
}

func runDrillDown(cmd *cobra.Command, args []string) error {
	simulator, err := simFromFlags(cmd)
	if err != nil {
		return err
	}
	attempts, _ := cmd.Flags().GetInt("attempts")

	ok := drills.ExchangeDown(simulator, drillOrder(cmd), attempts)
	return printJSON(map[string]interface{}{"drill": "down", "succeeded": ok, "attempts": attempts})
}

func runDrillPartial(cmd *cobra.Command, args []string) error {
	simulator, err := simFromFlags(cmd)
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("orders")
	useJournal, _ := cmd.Flags().GetBool("journal")

	orders := make([]sim.OrderRequest, n)
	base := drillOrder(cmd)
	for i := range orders {
		orders[i] = base
	}

	results := drills.PartialFillAnalysis(simulator, orders)

	var failed int
	var ratioSum float64
	for _, r := range results {
		if r.Failed() {
			failed++
			continue
		}
		ratioSum += r.FilledRatio
	}
	filled := len(results) - failed

	if useJournal && filled > 0 {
		if err := journalDrillFills(cmd, simulator, base, filled); err != nil {
			log.Warn().Err(err).Msg("Journaling drill fills failed")
		}
	}

	out := map[string]interface{}{
		"drill":  "partial",
		"orders": len(results),
		"failed": failed,
	}
	if filled > 0 {
		out["mean_filled_ratio"] = ratioSum / float64(filled)
	}
	return printJSON(out)
}

// journalDrillFills replays a handful of fills onto the Redis event stream so
// downstream consumers can be exercised alongside the drill.
func journalDrillFills(cmd *cobra.Command, simulator *sim.Simulator, order sim.OrderRequest, count int) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()
	jnl := journal.New(rdb, cfg.Redis.Stream)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	for i := 0; i < count; i++ {
		fill, err := simulator.CreateOrder(order)
		if err != nil {
			continue
		}
		if err := jnl.RecordFill(ctx, fill); err != nil {
			return err
		}
	}
	return nil
}

func runDrillBreaker(cmd *cobra.Command, args []string) error {
	simulator, err := simFromFlags(cmd)
	if err != nil {
		return err
	}
	calls, _ := cmd.Flags().GetInt("calls")

	report := drills.BreakerProbe(simulator, drillOrder(cmd), calls)
	return printJSON(report)
}
