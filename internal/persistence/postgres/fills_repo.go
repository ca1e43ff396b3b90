package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quantfall/crucible/internal/persistence"
)

// fillsRepo implements FillsRepo for PostgreSQL.
type fillsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFillsRepo creates a PostgreSQL fills repository.
func NewFillsRepo(db *sqlx.DB, timeout time.Duration) persistence.FillsRepo {
	return &fillsRepo{db: db, timeout: timeout}
}

// Insert stores a single fill record.
func (r *fillsRepo) Insert(ctx context.Context, fill persistence.FillRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO fills (id, ts, symbol, order_type, side, amount, filled, price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		fill.ID, fill.Timestamp, fill.Symbol, fill.OrderType, fill.Side,
		fill.Amount, fill.Filled, fill.Price, fill.Status)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate fill %s: %w", fill.ID, err)
		}
		return fmt.Errorf("failed to insert fill: %w", err)
	}
	return nil
}

// ListBySymbol retrieves the most recent fills for a symbol, newest first.
func (r *fillsRepo) ListBySymbol(ctx context.Context, symbol string, limit int) ([]persistence.FillRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, symbol, order_type, side, amount, filled, price, status, created_at
		FROM fills
		WHERE symbol = $1
		ORDER BY ts DESC
		LIMIT $2`

	var fills []persistence.FillRecord
	if err := r.db.SelectContext(ctx, &fills, query, symbol, limit); err != nil {
		return nil, fmt.Errorf("failed to list fills for %s: %w", symbol, err)
	}
	return fills, nil
}
