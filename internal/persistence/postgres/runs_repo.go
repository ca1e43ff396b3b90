package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quantfall/crucible/internal/persistence"
)

// runsRepo implements RunsRepo for PostgreSQL.
type runsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunsRepo creates a PostgreSQL backtest-runs repository.
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) persistence.RunsRepo {
	return &runsRepo{db: db, timeout: timeout}
}

// Insert stores a backtest run summary and returns its assigned id.
func (r *runsRepo) Insert(ctx context.Context, run persistence.RunRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO backtest_runs (strategy, symbol, trades, realized_pnl, final_capital, halted)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		run.Strategy, run.Symbol, run.Trades, run.RealizedPnL, run.FinalCapital, run.Halted).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert backtest run: %w", err)
	}
	return id, nil
}
