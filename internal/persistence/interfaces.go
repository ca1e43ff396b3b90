package persistence

import (
	"context"
	"time"
)

// FillRecord is a simulated fill as persisted for later analysis.
type FillRecord struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"ts" db:"ts"`
	Symbol    string    `json:"symbol" db:"symbol"`
	OrderType string    `json:"order_type" db:"order_type"`
	Side      string    `json:"side" db:"side"`
	Amount    float64   `json:"amount" db:"amount"`
	Filled    float64   `json:"filled" db:"filled"`
	Price     float64   `json:"price" db:"price"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RunRecord is a completed backtest run summary.
type RunRecord struct {
	ID           int64     `json:"id" db:"id"`
	Strategy     string    `json:"strategy" db:"strategy"`
	Symbol       string    `json:"symbol" db:"symbol"`
	Trades       int       `json:"trades" db:"trades"`
	RealizedPnL  float64   `json:"realized_pnl" db:"realized_pnl"`
	FinalCapital float64   `json:"final_capital" db:"final_capital"`
	Halted       bool      `json:"halted" db:"halted"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// FillsRepo persists simulated fills.
type FillsRepo interface {
	Insert(ctx context.Context, fill FillRecord) error
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]FillRecord, error)
}

// RunsRepo persists backtest run summaries.
type RunsRepo interface {
	Insert(ctx context.Context, run RunRecord) (int64, error)
}
