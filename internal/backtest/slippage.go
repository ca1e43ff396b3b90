package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/quantfall/crucible/internal/sim"
)

// ErrInvalidSide marks a slippage request with an unknown order side.
var ErrInvalidSide = errors.New("side must be buy or sell")

// ApplySlippage adjusts a quoted price by the slippage fraction: buys fill
// higher, sells fill lower.
func ApplySlippage(price, slippagePct float64, side sim.Side) (float64, error) {
	switch side {
	case sim.SideBuy:
		return price * (1 + slippagePct), nil
	case sim.SideSell:
		return price * (1 - slippagePct), nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrInvalidSide, side)
	}
}

// ApplyLatency shifts an event timestamp forward by the simulated latency.
func ApplyLatency(ts time.Time, latency time.Duration) time.Time {
	return ts.Add(latency)
}

// SignalOrder is a raw order descriptor produced by a strategy signal before
// fill adjustment.
type SignalOrder struct {
	Timestamp time.Time `json:"timestamp"`
	Side      sim.Side  `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
}

// SimulateFillOrders maps raw orders to adjusted fills, applying slippage to
// the price and latency to the timestamp of each. The input slice is never
// mutated; the result has the same length and order.
func SimulateFillOrders(orders []SignalOrder, slippagePct float64, latency time.Duration) ([]SignalOrder, error) {
	fills := make([]SignalOrder, len(orders))
	for i, order := range orders {
		adjPrice, err := ApplySlippage(order.Price, slippagePct, order.Side)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		fill := order
		fill.Price = adjPrice
		fill.Timestamp = ApplyLatency(order.Timestamp, latency)
		fills[i] = fill
	}
	return fills, nil
}
