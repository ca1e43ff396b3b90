package strategy

import (
	"fmt"
	"math"

	"github.com/quantfall/crucible/internal/data"
)

// Regime is a discrete market-condition label used to select among
// strategies.
type Regime string

const (
	RegimeHigh Regime = "high"
	RegimeLow  Regime = "low"
)

// DetectVolatilityRegime labels each candle by rolling close-price volatility:
// standard deviation at or above the threshold is "high", otherwise "low".
// Positions without a full window yet are labeled "low".
func DetectVolatilityRegime(candles []data.Candle, window int, threshold float64) ([]Regime, error) {
	if window < 2 {
		return nil, fmt.Errorf("window must be at least 2, got %d", window)
	}

	regimes := make([]Regime, len(candles))
	for i := range candles {
		vol := 0.0
		if i >= window-1 {
			vol = rollingStd(candles, i-window+1, window)
		}
		if vol >= threshold {
			regimes[i] = RegimeHigh
		} else {
			regimes[i] = RegimeLow
		}
	}
	return regimes, nil
}

// rollingStd is the sample standard deviation of closes over
// candles[start:start+n].
func rollingStd(candles []data.Candle, start, n int) float64 {
	sum := 0.0
	for i := start; i < start+n; i++ {
		sum += candles[i].Close
	}
	mean := sum / float64(n)

	ss := 0.0
	for i := start; i < start+n; i++ {
		d := candles[i].Close - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
