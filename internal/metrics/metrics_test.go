package metrics

import (
	"testing"

	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatherValue finds a metric family by name and returns the value of its
// first metric.
func gatherValue(t *testing.T, r *Registry, name string) float64 {
	t.Helper()
	families, err := r.Gather().Gather()
	require.NoError(t, err)

	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		require.NotEmpty(t, fam.GetMetric())
		m := fam.GetMetric()[0]
		switch fam.GetType() {
		case io_prometheus_client.MetricType_COUNTER:
			return m.GetCounter().GetValue()
		case io_prometheus_client.MetricType_GAUGE:
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric family %s not found", name)
	return 0
}

func TestRegistry_FillAndErrorCounters(t *testing.T) {
	r := NewRegistry()

	r.RecordFill("closed")
	r.RecordFill("closed")
	r.RecordFill("partial")
	r.RecordSimError()

	assert.InDelta(t, 1.0, gatherValue(t, r, "crucible_sim_errors_total"), 1e-9)

	families, err := r.Gather().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, fam := range families {
		if fam.GetName() != "crucible_fills_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 3.0, total, 1e-9)
}

func TestRegistry_PortfolioGauges(t *testing.T) {
	r := NewRegistry()

	r.SetPortfolio(950.0, 0.05, false)
	assert.InDelta(t, 950.0, gatherValue(t, r, "crucible_portfolio_capital"), 1e-9)
	assert.InDelta(t, 0.05, gatherValue(t, r, "crucible_portfolio_drawdown"), 1e-9)
	assert.InDelta(t, 0.0, gatherValue(t, r, "crucible_portfolio_breached"), 1e-9)

	r.SetPortfolio(800.0, 0.2, true)
	assert.InDelta(t, 1.0, gatherValue(t, r, "crucible_portfolio_breached"), 1e-9)
}

func TestRegistry_Independent(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.RecordSimError()
	assert.InDelta(t, 1.0, gatherValue(t, a, "crucible_sim_errors_total"), 1e-9)
	assert.InDelta(t, 0.0, gatherValue(t, b, "crucible_sim_errors_total"), 1e-9)
}
