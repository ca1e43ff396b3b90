package strategy

import (
	"github.com/rs/zerolog/log"

	"github.com/quantfall/crucible/internal/data"
	"github.com/quantfall/crucible/internal/sim"
)

// Momentum is an EMA crossover strategy: buy on golden cross, sell on death
// cross, fixed size per signal.
type Momentum struct {
	size      float64
	spanShort int
	spanLong  int
}

// NewMomentum creates a momentum strategy. Zero values fall back to the
// defaults (size 1.0, spans 20/50).
func NewMomentum(size float64, spanShort, spanLong int) *Momentum {
	if size <= 0 {
		size = 1.0
	}
	if spanShort <= 0 {
		spanShort = 20
	}
	if spanLong <= 0 {
		spanLong = 50
	}
	return &Momentum{size: size, spanShort: spanShort, spanLong: spanLong}
}

func (m *Momentum) Name() string { return "momentum" }

// GenerateSignals emits a buy when the short EMA crosses above the long EMA
// and a sell when it crosses below.
func (m *Momentum) GenerateSignals(candles []data.Candle) []Signal {
	if len(candles) < 2 {
		return nil
	}

	emaShort := ema(candles, m.spanShort)
	emaLong := ema(candles, m.spanLong)

	var signals []Signal
	for i := 1; i < len(candles); i++ {
		prevShort, prevLong := emaShort[i-1], emaLong[i-1]
		currShort, currLong := emaShort[i], emaLong[i]

		switch {
		case prevShort < prevLong && currShort > currLong:
			signals = append(signals, Signal{Timestamp: candles[i].Timestamp, Side: sim.SideBuy, Size: m.size})
		case prevShort > prevLong && currShort < currLong:
			signals = append(signals, Signal{Timestamp: candles[i].Timestamp, Side: sim.SideSell, Size: m.size})
		}
	}

	log.Debug().Int("signals", len(signals)).Int("candles", len(candles)).Msg("Momentum signals generated")
	return signals
}

// ema computes an exponential moving average over candle closes, seeded at
// the first close (alpha = 2/(span+1)).
func ema(candles []data.Candle, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(candles))
	out[0] = candles[0].Close
	for i := 1; i < len(candles); i++ {
		out[i] = alpha*candles[i].Close + (1-alpha)*out[i-1]
	}
	return out
}
