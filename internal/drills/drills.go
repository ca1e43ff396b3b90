package drills

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/quantfall/crucible/internal/sim"
)

// OrderPlacer is the slice of the simulated exchange the drills need.
type OrderPlacer interface {
	CreateOrder(req sim.OrderRequest) (*sim.Fill, error)
}

// ExchangeDown retries an order up to attempts times, stopping at the first
// success. Failures are logged, never propagated: this is a probe, not a
// delivery guarantee. Returns whether any attempt succeeded.
func ExchangeDown(placer OrderPlacer, order sim.OrderRequest, attempts int) bool {
	for i := 1; i <= attempts; i++ {
		fill, err := placer.CreateOrder(order)
		if err == nil {
			log.Info().
				Int("attempt", i).
				Str("fill_id", fill.ID).
				Str("status", string(fill.Status)).
				Msg("Drill success")
			return true
		}
		log.Warn().Int("attempt", i).Err(err).Msg("Drill attempt failed")
	}
	log.Error().Int("attempts", attempts).Msg("Drill failed after all attempts")
	return false
}

// Result is the per-order outcome of a partial-fill analysis: either a fill
// ratio or the captured error, never both.
type Result struct {
	Order       sim.OrderRequest `json:"order"`
	FilledRatio float64          `json:"filled_ratio"`
	Err         error            `json:"-"`
}

// Failed reports whether this order's attempt was captured as an error.
func (r Result) Failed() bool { return r.Err != nil }

// PartialFillAnalysis attempts each order once and records the fill ratio or
// the error. Always returns exactly one result per input order, in input
// order; it never returns an error itself.
func PartialFillAnalysis(placer OrderPlacer, orders []sim.OrderRequest) []Result {
	results := make([]Result, 0, len(orders))
	for _, order := range orders {
		fill, err := placer.CreateOrder(order)
		if err != nil {
			log.Error().Str("symbol", order.Symbol).Err(err).Msg("Drill order error")
			results = append(results, Result{Order: order, Err: err})
			continue
		}

		amount := order.Amount
		if amount == 0 {
			amount = 1.0
		}
		ratio := fill.Filled / amount
		log.Info().Str("symbol", order.Symbol).Float64("filled_ratio", ratio).Msg("Drill order filled")
		results = append(results, Result{Order: order, FilledRatio: ratio})
	}
	return results
}

// BreakerReport characterizes how a circuit breaker behaves in front of an
// unreliable exchange.
type BreakerReport struct {
	Calls      int    `json:"calls"`
	Successes  int    `json:"successes"`
	Failures   int    `json:"failures"`
	Rejected   int    `json:"rejected"` // short-circuited by the open breaker
	FinalState string `json:"final_state"`
}

// BreakerProbe pushes calls through a circuit breaker wrapped around the
// simulator and reports how many were served, failed, or shed once the
// breaker opened.
func BreakerProbe(placer OrderPlacer, order sim.OrderRequest, calls int) BreakerReport {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sim-exchange",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	report := BreakerReport{Calls: calls}
	for i := 0; i < calls; i++ {
		_, err := cb.Execute(func() (any, error) {
			return placer.CreateOrder(order)
		})
		switch {
		case err == nil:
			report.Successes++
		case errors.Is(err, gobreaker.ErrOpenState):
			report.Rejected++
		default:
			report.Failures++
		}
	}
	report.FinalState = cb.State().String()

	log.Info().
		Int("calls", report.Calls).
		Int("successes", report.Successes).
		Int("failures", report.Failures).
		Int("rejected", report.Rejected).
		Str("final_state", report.FinalState).
		Msg("Breaker probe complete")
	return report
}
