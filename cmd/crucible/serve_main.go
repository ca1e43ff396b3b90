package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfall/crucible/internal/config"
	"github.com/quantfall/crucible/internal/journal"
	"github.com/quantfall/crucible/internal/metrics"
	"github.com/quantfall/crucible/internal/persistence"
	"github.com/quantfall/crucible/internal/persistence/postgres"
	"github.com/quantfall/crucible/internal/portfolio"
	"github.com/quantfall/crucible/internal/server"
	"github.com/quantfall/crucible/internal/sim"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics, and a live event stream of simulated fills",
		RunE:  runServe,
	}

	cmd.Flags().Duration("tick", time.Second, "Interval between simulated orders")
	cmd.Flags().Bool("journal", false, "Journal events to the Redis stream")
	cmd.Flags().Bool("persist", false, "Persist fills to Postgres")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}, reg)

	simulator, err := sim.New(cfg.Sim, nil)
	if err != nil {
		return err
	}
	pf, err := portfolio.New(cfg.Portfolio.InitialCapital, cfg.Portfolio.MaxDrawdown)
	if err != nil {
		return err
	}

	var jnl *journal.Journal
	if useJournal, _ := cmd.Flags().GetBool("journal"); useJournal {
		rdb := redisv9.NewClient(&redisv9.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		jnl = journal.New(rdb, cfg.Redis.Stream)
	}

	var fillsRepo persistence.FillsRepo
	if persist, _ := cmd.Flags().GetBool("persist"); persist {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		fillsRepo = postgres.NewFillsRepo(db, 5*time.Second)
	}

	tick, _ := cmd.Flags().GetDuration("tick")
	go paperLoop(ctx, cfg, simulator, pf, reg, srv, jnl, fillsRepo, tick)

	return srv.ListenAndServe(ctx)
}

// paperLoop places one simulated order per tick and fans the outcome out to
// metrics, the event stream, and the optional journal and fill store. It is a
// smoke feed for consumers, not a trading loop: capital only moves on a
// drawdown-relevant loss injected by the simulator's slippage.
func paperLoop(ctx context.Context, cfg *config.Config, simulator *sim.Simulator,
	pf *portfolio.Portfolio, reg *metrics.Registry, srv *server.Server,
	jnl *journal.Journal, fillsRepo persistence.FillsRepo, tick time.Duration) {

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	price := 100.0
	side := sim.SideBuy
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		size, err := pf.PositionSize(price, cfg.Portfolio.RiskPct)
		if err != nil {
			log.Error().Err(err).Msg("Position sizing failed")
			continue
		}

		fill, err := simulator.CreateOrder(sim.OrderRequest{
			Symbol: "BTC/USDT",
			Type:   sim.OrderMarket,
			Side:   side,
			Amount: size,
			Price:  price,
		})
		if err != nil {
			reg.RecordSimError()
			srv.Publish(server.Event{Type: "drill", Payload: map[string]interface{}{"error": err.Error()}})
			continue
		}

		reg.RecordFill(string(fill.Status))
		srv.Publish(server.Event{Type: "fill", Timestamp: fill.Timestamp, Payload: fill})

		// Round-trip cost of crossing the spread both ways.
		if side == sim.SideSell {
			cost := -2 * cfg.Sim.SlippagePct * price * fill.Filled
			if err := pf.Update(cost); err != nil && errors.Is(err, portfolio.ErrDrawdownBreached) {
				log.Error().Msg("Paper loop halted on drawdown breach")
				publishSnapshot(pf, reg, srv, jnl)
				return
			}
			side = sim.SideBuy
		} else {
			side = sim.SideSell
		}

		publishSnapshot(pf, reg, srv, jnl)

		if jnl != nil {
			if err := jnl.RecordFill(ctx, fill); err != nil {
				log.Warn().Err(err).Msg("Journaling fill failed")
			}
		}
		if fillsRepo != nil {
			if err := fillsRepo.Insert(ctx, fillRecord(fill)); err != nil {
				log.Warn().Err(err).Msg("Persisting fill failed")
			}
		}
	}
}

func publishSnapshot(pf *portfolio.Portfolio, reg *metrics.Registry, srv *server.Server, jnl *journal.Journal) {
	snap := pf.Snapshot()
	reg.SetPortfolio(snap.Capital, snap.Drawdown, snap.Breached)
	srv.Publish(server.Event{Type: "portfolio", Payload: snap})
	if jnl != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := jnl.RecordSnapshot(ctx, snap); err != nil {
			log.Warn().Err(err).Msg("Journaling snapshot failed")
		}
	}
}

func fillRecord(fill *sim.Fill) persistence.FillRecord {
	return persistence.FillRecord{
		ID:        fill.ID,
		Timestamp: fill.Timestamp,
		Symbol:    fill.Symbol,
		OrderType: string(fill.Type),
		Side:      string(fill.Side),
		Amount:    fill.Amount,
		Filled:    fill.Filled,
		Price:     fill.Price,
		Status:    string(fill.Status),
	}
}
