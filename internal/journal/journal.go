package journal

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/quantfall/crucible/internal/portfolio"
	"github.com/quantfall/crucible/internal/sim"
)

// Journal appends fill and portfolio events to a Redis stream: the hot-tier
// sink consumed by dashboards and alerting.
type Journal struct {
	rdb    *redis.Client
	stream string
}

// New creates a journal writing to the given stream.
func New(rdb *redis.Client, stream string) *Journal {
	return &Journal{rdb: rdb, stream: stream}
}

// RecordFill appends a fill event.
func (j *Journal) RecordFill(ctx context.Context, fill *sim.Fill) error {
	if err := j.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: j.stream,
		Values: fillFields(fill),
	}).Err(); err != nil {
		return fmt.Errorf("failed to journal fill %s: %w", fill.ID, err)
	}
	log.Debug().Str("fill_id", fill.ID).Str("stream", j.stream).Msg("Journaled fill")
	return nil
}

// RecordSnapshot appends a portfolio snapshot event.
func (j *Journal) RecordSnapshot(ctx context.Context, snap portfolio.Snapshot) error {
	if err := j.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: j.stream,
		Values: snapshotFields(snap),
	}).Err(); err != nil {
		return fmt.Errorf("failed to journal portfolio snapshot: %w", err)
	}
	log.Debug().Float64("capital", snap.Capital).Str("stream", j.stream).Msg("Journaled portfolio snapshot")
	return nil
}

func fillFields(fill *sim.Fill) map[string]interface{} {
	return map[string]interface{}{
		"event":     "fill",
		"id":        fill.ID,
		"symbol":    fill.Symbol,
		"type":      string(fill.Type),
		"side":      string(fill.Side),
		"amount":    fill.Amount,
		"filled":    fill.Filled,
		"price":     fill.Price,
		"status":    string(fill.Status),
		"timestamp": fill.Timestamp.UnixMilli(),
	}
}

func snapshotFields(snap portfolio.Snapshot) map[string]interface{} {
	breached := 0
	if snap.Breached {
		breached = 1
	}
	return map[string]interface{}{
		"event":           "portfolio",
		"initial_capital": snap.InitialCapital,
		"capital":         snap.Capital,
		"floor":           snap.Floor,
		"drawdown":        snap.Drawdown,
		"breached":        breached,
	}
}
