package stress

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantfall/crucible/internal/data"
)

var (
	// ErrInvalidInput marks out-of-range stress-test arguments.
	ErrInvalidInput = errors.New("invalid stress input")

	// ErrIndexNotFound is returned when a shock timestamp is absent from the
	// return series.
	ErrIndexNotFound = errors.New("timestamp not in return series")
)

// Point is one period return observed at a timestamp.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"` // Signed fraction, e.g. 0.01 for +1%
}

// ReturnSeries is a time-ordered sequence of period returns. Treated as
// immutable input by every function in this package.
type ReturnSeries []Point

// Values extracts the raw return values in series order.
func (rs ReturnSeries) Values() []float64 {
	vals := make([]float64, len(rs))
	for i, p := range rs {
		vals[i] = p.Value
	}
	return vals
}

// ReturnsFromCandles derives a close-to-close return series from candles.
func ReturnsFromCandles(candles []data.Candle) ReturnSeries {
	if len(candles) < 2 {
		return nil
	}
	series := make(ReturnSeries, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		series = append(series, Point{
			Timestamp: candles[i].Timestamp,
			Value:     candles[i].Close/prev - 1,
		})
	}
	return series
}

// SimMatrix holds Monte Carlo resampled returns: one row per period, one
// column per simulated path.
type SimMatrix [][]float64

// Periods returns the number of rows (time steps per path).
func (m SimMatrix) Periods() int { return len(m) }

// Sims returns the number of columns (independent paths).
func (m SimMatrix) Sims() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// MonteCarloReturns resamples the historical returns with replacement into
// nSims independent paths of the same length as the input. The resampling is
// not time-ordered: autocorrelation is deliberately discarded. A given seed
// always produces identical output.
func MonteCarloReturns(series ReturnSeries, nSims int, seed int64) (SimMatrix, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: return series is empty", ErrInvalidInput)
	}
	if nSims <= 0 {
		return nil, fmt.Errorf("%w: n_sims must be positive, got %d", ErrInvalidInput, nSims)
	}

	rng := rand.New(rand.NewSource(seed))
	values := series.Values()

	matrix := make(SimMatrix, len(series))
	for i := range matrix {
		row := make([]float64, nSims)
		for j := range row {
			row[j] = values[rng.Intn(len(values))]
		}
		matrix[i] = row
	}

	log.Info().Int("n_sims", nSims).Int("periods", len(series)).Msg("Generated Monte Carlo simulations")
	return matrix, nil
}

// SimulatePnL compounds each simulated path from the initial capital and
// returns the final capital per path. Compounding is a cumulative product of
// (1 + r), never a sum.
func SimulatePnL(m SimMatrix, initialCapital float64) ([]float64, error) {
	if initialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidInput, initialCapital)
	}
	if m.Periods() == 0 {
		return nil, fmt.Errorf("%w: simulation matrix is empty", ErrInvalidInput)
	}

	finals := make([]float64, m.Sims())
	for j := range finals {
		capital := initialCapital
		for i := 0; i < m.Periods(); i++ {
			capital *= 1 + m[i][j]
		}
		finals[j] = capital
	}

	log.Info().Int("n_sims", len(finals)).Msg("Computed final capital for all simulations")
	return finals, nil
}

// InjectBlackSwan returns a copy of the series with shockPct added to the
// return at the given timestamp. Only that one index changes.
func InjectBlackSwan(series ReturnSeries, shockPct float64, at time.Time) (ReturnSeries, error) {
	shocked := make(ReturnSeries, len(series))
	copy(shocked, series)

	for i := range shocked {
		if shocked[i].Timestamp.Equal(at) {
			shocked[i].Value += shockPct
			log.Info().
				Float64("shock_pct", shockPct).
				Time("at", at).
				Msg("Injected black-swan shock")
			return shocked, nil
		}
	}
	return nil, fmt.Errorf("shock timestamp %s: %w", at.Format(time.RFC3339), ErrIndexNotFound)
}
