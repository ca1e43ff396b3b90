package portfolio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidInput marks out-of-range construction or sizing arguments.
	ErrInvalidInput = errors.New("invalid portfolio input")

	// ErrDrawdownBreached is fatal to the trading session. The breaching
	// capital value is persisted before the error is returned, so forensic
	// inspection shows the exact overshoot.
	ErrDrawdownBreached = errors.New("max drawdown breached")
)

// Portfolio is the single authoritative capital ledger. All realized PnL
// passes through Update; no other write path to capital exists.
type Portfolio struct {
	mu          sync.Mutex
	initial     float64
	capital     float64
	maxDrawdown float64
	floor       float64
	breached    bool
}

// Snapshot is a point-in-time view of the ledger for journaling and the
// event stream.
type Snapshot struct {
	InitialCapital float64 `json:"initial_capital"`
	Capital        float64 `json:"capital"`
	Floor          float64 `json:"floor"`
	Drawdown       float64 `json:"drawdown"`
	Breached       bool    `json:"breached"`
}

// New creates a portfolio with the given starting capital and maximum
// drawdown fraction. The drawdown floor is derived once from the initial
// capital and never recomputed.
func New(capital, maxDrawdown float64) (*Portfolio, error) {
	if capital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidInput, capital)
	}
	if maxDrawdown < 0 || maxDrawdown >= 1 {
		return nil, fmt.Errorf("%w: max_drawdown must be in [0,1), got %v", ErrInvalidInput, maxDrawdown)
	}

	p := &Portfolio{
		initial:     capital,
		capital:     capital,
		maxDrawdown: maxDrawdown,
		floor:       capital * (1 - maxDrawdown),
	}
	log.Info().
		Float64("capital", capital).
		Float64("max_drawdown", maxDrawdown).
		Float64("floor", p.floor).
		Msg("Portfolio initialized")
	return p, nil
}

// PositionSize returns the number of units to trade so that riskPct of the
// current capital is at risk at the given price. Read-only with respect to
// ledger state; sizing shrinks as capital erodes.
func (p *Portfolio) PositionSize(price, riskPct float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("%w: price must be positive, got %v", ErrInvalidInput, price)
	}
	if riskPct <= 0 || riskPct > 1 {
		return 0, fmt.Errorf("%w: risk_pct must be in (0,1], got %v", ErrInvalidInput, riskPct)
	}

	p.mu.Lock()
	capital := p.capital
	p.mu.Unlock()

	size := capital * riskPct / price
	log.Debug().
		Float64("size", size).
		Float64("price", price).
		Float64("risk_pct", riskPct).
		Msg("Computed position size")
	return size, nil
}

// Update applies signed realized PnL to capital and enforces the drawdown
// floor. The mutation and the floor check are atomic: concurrent updates
// cannot cross the floor undetected. On breach the breaching value persists
// and ErrDrawdownBreached is returned; the session must be treated as halted.
func (p *Portfolio) Update(pnl float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.capital
	p.capital += pnl
	log.Info().
		Float64("pnl", pnl).
		Float64("prev", prev).
		Float64("capital", p.capital).
		Msg("Portfolio updated")

	if p.capital < p.floor {
		p.breached = true
		log.Error().
			Float64("capital", p.capital).
			Float64("floor", p.floor).
			Msg("Max drawdown breached")
		return fmt.Errorf("capital %.2f below floor %.2f: %w", p.capital, p.floor, ErrDrawdownBreached)
	}
	return nil
}

// Capital returns the current capital.
func (p *Portfolio) Capital() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capital
}

// InitialCapital returns the immutable starting capital.
func (p *Portfolio) InitialCapital() float64 {
	return p.initial
}

// Floor returns the fixed drawdown floor.
func (p *Portfolio) Floor() float64 {
	return p.floor
}

// Breached reports whether the ledger has entered the terminal breached state.
func (p *Portfolio) Breached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.breached
}

// Snapshot captures the ledger state for downstream consumers.
func (p *Portfolio) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		InitialCapital: p.initial,
		Capital:        p.capital,
		Floor:          p.floor,
		Drawdown:       1 - p.capital/p.initial,
		Breached:       p.breached,
	}
}
