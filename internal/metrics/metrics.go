package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry holds the Prometheus metrics for the paper-trading core. Each
// Registry owns its own prometheus.Registry so tests can build as many as
// they like without collisions.
type Registry struct {
	reg *prometheus.Registry

	// Simulated exchange
	FillsTotal     *prometheus.CounterVec
	SimErrorsTotal prometheus.Counter

	// Failure drills
	DrillOutcomes *prometheus.CounterVec

	// Portfolio ledger
	Capital  prometheus.Gauge
	Drawdown prometheus.Gauge
	Breached prometheus.Gauge
}

// NewRegistry creates and registers all core metrics.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		FillsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crucible_fills_total",
				Help: "Total simulated fills by status",
			},
			[]string{"status"},
		),

		SimErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crucible_sim_errors_total",
				Help: "Total injected simulated exchange errors",
			},
		),

		DrillOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crucible_drill_outcomes_total",
				Help: "Total failure-drill outcomes by drill and result",
			},
			[]string{"drill", "outcome"},
		),

		Capital: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crucible_portfolio_capital",
				Help: "Current portfolio capital",
			},
		),

		Drawdown: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crucible_portfolio_drawdown",
				Help: "Current drawdown fraction from initial capital",
			},
		),

		Breached: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crucible_portfolio_breached",
				Help: "1 when the drawdown floor has been breached",
			},
		),
	}

	r.reg.MustRegister(
		r.FillsTotal,
		r.SimErrorsTotal,
		r.DrillOutcomes,
		r.Capital,
		r.Drawdown,
		r.Breached,
	)

	log.Debug().Msg("Prometheus metrics registry initialized")
	return r
}

// RecordFill counts a simulated fill by status.
func (r *Registry) RecordFill(status string) {
	r.FillsTotal.WithLabelValues(status).Inc()
}

// RecordSimError counts an injected exchange error.
func (r *Registry) RecordSimError() {
	r.SimErrorsTotal.Inc()
}

// RecordDrill counts a drill outcome.
func (r *Registry) RecordDrill(drill, outcome string) {
	r.DrillOutcomes.WithLabelValues(drill, outcome).Inc()
}

// SetPortfolio updates the ledger gauges from a snapshot.
func (r *Registry) SetPortfolio(capital, drawdown float64, breached bool) {
	r.Capital.Set(capital)
	r.Drawdown.Set(drawdown)
	if breached {
		r.Breached.Set(1)
	} else {
		r.Breached.Set(0)
	}
}

// Gather exposes the underlying registry for inspection.
func (r *Registry) Gather() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
