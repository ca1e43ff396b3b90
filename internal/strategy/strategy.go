package strategy

import (
	"time"

	"github.com/quantfall/crucible/internal/data"
	"github.com/quantfall/crucible/internal/sim"
)

// Signal is a single trade instruction emitted by a strategy.
type Signal struct {
	Timestamp time.Time `json:"timestamp"`
	Side      sim.Side  `json:"side"`
	Size      float64   `json:"size"`
}

// Strategy turns candle history into trade signals. Implementations must not
// mutate the input candles.
type Strategy interface {
	Name() string
	GenerateSignals(candles []data.Candle) []Signal
}
