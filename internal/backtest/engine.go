package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantfall/crucible/internal/data"
	"github.com/quantfall/crucible/internal/portfolio"
	"github.com/quantfall/crucible/internal/sim"
	"github.com/quantfall/crucible/internal/strategy"
)

// Engine replays a strategy over candle history, adjusts its signals through
// the fill model, and realizes PnL through the portfolio ledger.
type Engine struct {
	strategy    strategy.Strategy
	pf          *portfolio.Portfolio
	slippagePct float64
	latency     time.Duration
}

// Summary reports the outcome of a backtest run.
type Summary struct {
	Strategy     string  `json:"strategy"`
	Signals      int     `json:"signals"`
	Trades       int     `json:"trades"`
	RealizedPnL  float64 `json:"realized_pnl"`
	FinalCapital float64 `json:"final_capital"`
	Halted       bool    `json:"halted"` // true when the drawdown floor was breached
}

// NewEngine wires a strategy to a portfolio with the given fill-model
// parameters.
func NewEngine(strat strategy.Strategy, pf *portfolio.Portfolio, slippagePct float64, latency time.Duration) (*Engine, error) {
	if strat == nil {
		return nil, fmt.Errorf("engine requires a strategy")
	}
	if pf == nil {
		return nil, fmt.Errorf("engine requires a portfolio")
	}
	if slippagePct < 0 {
		return nil, fmt.Errorf("slippage_pct must be non-negative, got %v", slippagePct)
	}
	return &Engine{strategy: strat, pf: pf, slippagePct: slippagePct, latency: latency}, nil
}

// Run generates signals over the candles, simulates their fills, and applies
// realized PnL from closed positions to the portfolio. A drawdown breach
// halts the run; the summary up to the breach is returned with the error.
func (e *Engine) Run(candles []data.Candle) (*Summary, error) {
	closes := make(map[time.Time]float64, len(candles))
	for _, c := range candles {
		closes[c.Timestamp] = c.Close
	}

	signals := e.strategy.GenerateSignals(candles)
	orders := make([]SignalOrder, 0, len(signals))
	for _, sig := range signals {
		price, ok := closes[sig.Timestamp]
		if !ok {
			return nil, fmt.Errorf("signal at %s has no matching candle", sig.Timestamp.Format(time.RFC3339))
		}
		orders = append(orders, SignalOrder{
			Timestamp: sig.Timestamp,
			Side:      sig.Side,
			Price:     price,
			Size:      sig.Size,
		})
	}

	fills, err := SimulateFillOrders(orders, e.slippagePct, e.latency)
	if err != nil {
		return nil, fmt.Errorf("fill simulation failed: %w", err)
	}

	summary := &Summary{Strategy: e.strategy.Name(), Signals: len(signals)}

	// Single-position long book: buys accumulate at average entry, sells
	// realize against it.
	var posQty, avgEntry float64
	for _, fill := range fills {
		switch fill.Side {
		case sim.SideBuy:
			total := posQty + fill.Size
			avgEntry = (avgEntry*posQty + fill.Price*fill.Size) / total
			posQty = total
			summary.Trades++
		case sim.SideSell:
			if posQty <= 0 {
				log.Warn().Time("ts", fill.Timestamp).Msg("Sell signal with no open position, skipping")
				continue
			}
			closed := fill.Size
			if closed > posQty {
				closed = posQty
			}
			realized := (fill.Price - avgEntry) * closed
			posQty -= closed
			summary.Trades++
			summary.RealizedPnL += realized

			if err := e.pf.Update(realized); err != nil {
				if errors.Is(err, portfolio.ErrDrawdownBreached) {
					summary.Halted = true
					summary.FinalCapital = e.pf.Capital()
					log.Error().Float64("realized", realized).Msg("Backtest halted on drawdown breach")
					return summary, err
				}
				return nil, err
			}
		}
	}

	summary.FinalCapital = e.pf.Capital()
	log.Info().
		Str("strategy", summary.Strategy).
		Int("trades", summary.Trades).
		Float64("realized_pnl", summary.RealizedPnL).
		Float64("final_capital", summary.FinalCapital).
		Msg("Backtest complete")
	return summary, nil
}
