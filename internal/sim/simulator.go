package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two accepted values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
)

// OrderStatus describes the outcome of a simulated fill.
type OrderStatus string

const (
	StatusClosed  OrderStatus = "closed"
	StatusPartial OrderStatus = "partial"
)

var (
	// ErrInvalidOrder marks a malformed order request. Never retried.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrExchangeUnavailable is the injected transient failure. Callers are
	// expected to retry or record it per item.
	ErrExchangeUnavailable = errors.New("simulated exchange unavailable")
)

// OrderRequest describes a single order handed to the simulator. Price is the
// reference price for MARKET orders and the limit price for LIMIT orders; it
// is required either way so slippage always has a real base to work from.
type OrderRequest struct {
	Symbol string    `json:"symbol"`
	Type   OrderType `json:"type"`
	Side   Side      `json:"side"`
	Amount float64   `json:"amount"`
	Price  float64   `json:"price"`
}

// Validate checks the request against the simulator's order contract.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if r.Type != OrderMarket && r.Type != OrderLimit {
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, r.Type)
	}
	if !r.Side.Valid() {
		return fmt.Errorf("%w: side must be %q or %q, got %q", ErrInvalidOrder, SideBuy, SideSell, r.Side)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidOrder, r.Amount)
	}
	if r.Price <= 0 {
		return fmt.Errorf("%w: reference price must be positive, got %v", ErrInvalidOrder, r.Price)
	}
	return nil
}

// Fill is the realized outcome of an accepted order request. Created exactly
// once per accepted request and never mutated afterwards.
type Fill struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Type      OrderType   `json:"type"`
	Side      Side        `json:"side"`
	Amount    float64     `json:"amount"`
	Filled    float64     `json:"filled"`
	Price     float64     `json:"price"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// FilledRatio is the executed fraction of the requested amount.
func (f *Fill) FilledRatio() float64 {
	if f.Amount == 0 {
		return 0
	}
	return f.Filled / f.Amount
}

// Config parameterizes the simulator's randomized behavior.
type Config struct {
	SlippagePct    float64 `yaml:"slippage_pct"`     // Fractional slippage applied to the fill price
	ErrorRate      float64 `yaml:"error_rate"`       // Probability [0,1] of a transient failure per call
	PartialFillMin float64 `yaml:"partial_fill_min"` // Minimum fill fraction when partial
}

// DefaultConfig mirrors the tuning used for resilience drills.
func DefaultConfig() Config {
	return Config{
		SlippagePct:    0.001,
		ErrorRate:      0.01,
		PartialFillMin: 0.5,
	}
}

// Validate ensures the simulator parameters are in range.
func (c Config) Validate() error {
	if c.SlippagePct < 0 {
		return fmt.Errorf("slippage_pct must be non-negative, got %v", c.SlippagePct)
	}
	if c.ErrorRate < 0 || c.ErrorRate > 1 {
		return fmt.Errorf("error_rate must be in [0,1], got %v", c.ErrorRate)
	}
	if c.PartialFillMin < 0 || c.PartialFillMin > 1 {
		return fmt.Errorf("partial_fill_min must be in [0,1], got %v", c.PartialFillMin)
	}
	return nil
}

// Simulator stands in for a live exchange order endpoint. Each call draws
// independently from the instance's own RNG stream, so concurrent instances
// never share random state.
type Simulator struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a simulator with the given config and RNG. Passing a nil RNG
// seeds a fresh one from the wall clock.
func New(cfg Config, rng *rand.Rand) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulator config: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{cfg: cfg, rng: rng, now: time.Now}, nil
}

// CreateOrder simulates placing an order: exactly one fill or one error per
// call, no partial side effects.
func (s *Simulator) CreateOrder(req OrderRequest) (*Fill, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	errDraw := s.rng.Float64()
	fracDraw := s.rng.Float64()
	s.mu.Unlock()

	if errDraw < s.cfg.ErrorRate {
		log.Warn().Str("symbol", req.Symbol).Msg("Simulated exchange error")
		return nil, ErrExchangeUnavailable
	}

	frac := s.cfg.PartialFillMin + fracDraw*(1.0-s.cfg.PartialFillMin)
	filled := round8(req.Amount * frac)

	execPrice := req.Price
	if req.Side == SideBuy {
		execPrice *= 1 + s.cfg.SlippagePct
	} else {
		execPrice *= 1 - s.cfg.SlippagePct
	}

	status := StatusPartial
	if filled >= req.Amount {
		status = StatusClosed
	}

	fill := &Fill{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Type:      req.Type,
		Side:      req.Side,
		Amount:    req.Amount,
		Filled:    filled,
		Price:     execPrice,
		Status:    status,
		Timestamp: s.now().UTC(),
	}

	log.Info().
		Str("symbol", fill.Symbol).
		Float64("filled", fill.Filled).
		Float64("amount", fill.Amount).
		Float64("price", fill.Price).
		Str("status", string(fill.Status)).
		Msg("Simulated fill")

	return fill, nil
}

// round8 rounds to 8 decimal places, the usual exchange amount precision.
func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
