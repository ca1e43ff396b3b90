package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfall/crucible/internal/backtest"
	"github.com/quantfall/crucible/internal/config"
	"github.com/quantfall/crucible/internal/data"
	"github.com/quantfall/crucible/internal/persistence"
	"github.com/quantfall/crucible/internal/persistence/postgres"
	"github.com/quantfall/crucible/internal/portfolio"
	"github.com/quantfall/crucible/internal/strategy"
)

// cacheWriteRPS throttles warm-cache writes; drills are bursty, the cache
// should not be.
const cacheWriteRPS = 4

func newBacktestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay the momentum strategy over candle history",
		RunE:  runBacktest,
	}

	cmd.Flags().String("candles", "", "Path to a JSON candle file (falls back to the Redis cache)")
	cmd.Flags().String("symbol", "", "Symbol to backtest (defaults to the first universe symbol)")
	cmd.Flags().Float64("size", 1.0, "Units per signal")
	cmd.Flags().Int("span-short", 20, "Short EMA span")
	cmd.Flags().Int("span-long", 50, "Long EMA span")
	cmd.Flags().Bool("warm-cache", false, "Store file candles into the Redis cache after loading")
	cmd.Flags().Bool("persist", false, "Record the run in Postgres")

	return cmd
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	symbol, _ := cmd.Flags().GetString("symbol")
	exchange, timeframe := "sim", "1h"
	if cfg.Universe != "" {
		u, err := data.LoadUniverse(cfg.Universe)
		if err != nil {
			return err
		}
		exchange, timeframe = u.Exchange, u.Timeframe
		if symbol == "" {
			symbol = u.Symbols[0]
		}
	}
	if symbol == "" {
		symbol = "BTC/USDT"
	}

	ctx := cmd.Context()
	candles, err := resolveCandles(ctx, cmd, cfg, exchange, symbol, timeframe)
	if err != nil {
		return err
	}
	if len(candles) < 2 {
		return fmt.Errorf("need at least 2 candles, got %d", len(candles))
	}

	pf, err := portfolio.New(cfg.Portfolio.InitialCapital, cfg.Portfolio.MaxDrawdown)
	if err != nil {
		return err
	}

	size, _ := cmd.Flags().GetFloat64("size")
	spanShort, _ := cmd.Flags().GetInt("span-short")
	spanLong, _ := cmd.Flags().GetInt("span-long")
	strat := strategy.NewMomentum(size, spanShort, spanLong)

	engine, err := backtest.NewEngine(strat, pf, cfg.Backtest.SlippagePct, cfg.Backtest.Latency())
	if err != nil {
		return err
	}

	summary, err := engine.Run(candles)
	if err != nil && !errors.Is(err, portfolio.ErrDrawdownBreached) {
		return err
	}

	if persist, _ := cmd.Flags().GetBool("persist"); persist {
		if err := persistRun(ctx, cfg.Postgres.DSN, symbol, summary); err != nil {
			log.Warn().Err(err).Msg("Persisting backtest run failed")
		}
	}

	return printJSON(summary)
}

// resolveCandles prefers the --candles file and falls back to the Redis cache.
// With --warm-cache, file candles are written through to the cache for the
// next run.
func resolveCandles(ctx context.Context, cmd *cobra.Command, cfg *config.Config, exchange, symbol, timeframe string) ([]data.Candle, error) {
	path, _ := cmd.Flags().GetString("candles")

	if path == "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		cache := data.NewCache(rdb, cfg.Redis.CacheTTL(), cacheWriteRPS, 1)

		candles, ok, err := cache.GetCandles(ctx, exchange, symbol, timeframe)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no cached candles for %s %s %s; supply --candles", exchange, symbol, timeframe)
		}
		return candles, nil
	}

	candles, err := loadCandles(path)
	if err != nil {
		return nil, err
	}

	if warm, _ := cmd.Flags().GetBool("warm-cache"); warm {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		cache := data.NewCache(rdb, cfg.Redis.CacheTTL(), cacheWriteRPS, 1)
		if err := cache.PutCandles(ctx, exchange, symbol, timeframe, candles); err != nil {
			log.Warn().Err(err).Msg("Warming candle cache failed")
		}
	}
	return candles, nil
}

func persistRun(ctx context.Context, dsn, symbol string, summary *backtest.Summary) error {
	if dsn == "" {
		return fmt.Errorf("postgres.dsn is not configured")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	repo := postgres.NewRunsRepo(db, 5*time.Second)
	id, err := repo.Insert(ctx, persistence.RunRecord{
		Strategy:     summary.Strategy,
		Symbol:       symbol,
		Trades:       summary.Trades,
		RealizedPnL:  summary.RealizedPnL,
		FinalCapital: summary.FinalCapital,
		Halted:       summary.Halted,
	})
	if err != nil {
		return err
	}
	log.Info().Int64("run_id", id).Msg("Backtest run persisted")
	return nil
}
