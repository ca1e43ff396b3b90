package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfall/crucible/internal/sim"
)

func TestApplySlippage(t *testing.T) {
	buy, err := ApplySlippage(100.0, 0.01, sim.SideBuy)
	require.NoError(t, err)
	assert.InDelta(t, 101.0, buy, 1e-9)

	sell, err := ApplySlippage(100.0, 0.02, sim.SideSell)
	require.NoError(t, err)
	assert.InDelta(t, 98.0, sell, 1e-9)
}

func TestApplySlippage_Direction(t *testing.T) {
	// Positive slippage strictly worsens the price; zero slippage is neutral.
	buy, err := ApplySlippage(250.0, 0.005, sim.SideBuy)
	require.NoError(t, err)
	assert.Greater(t, buy, 250.0)

	sell, err := ApplySlippage(250.0, 0.005, sim.SideSell)
	require.NoError(t, err)
	assert.Less(t, sell, 250.0)

	flat, err := ApplySlippage(250.0, 0, sim.SideBuy)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, flat, 1e-9)
}

func TestApplySlippage_InvalidSide(t *testing.T) {
	_, err := ApplySlippage(100.0, 0.01, "hold")
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestApplyLatency(t *testing.T) {
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, ts.Add(500*time.Millisecond), ApplyLatency(ts, 500*time.Millisecond))
}

func TestSimulateFillOrders(t *testing.T) {
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []SignalOrder{
		{Timestamp: ts, Price: 100.0, Side: sim.SideBuy, Size: 1},
		{Timestamp: ts.Add(time.Hour), Price: 200.0, Side: sim.SideSell, Size: 2},
	}

	fills, err := SimulateFillOrders(orders, 0.01, time.Second)
	require.NoError(t, err)
	require.Len(t, fills, 2)

	assert.InDelta(t, 101.0, fills[0].Price, 1e-9)
	assert.Equal(t, ts.Add(time.Second), fills[0].Timestamp)
	assert.InDelta(t, 198.0, fills[1].Price, 1e-9)
	assert.Equal(t, ts.Add(time.Hour).Add(time.Second), fills[1].Timestamp)

	// Inputs untouched.
	assert.InDelta(t, 100.0, orders[0].Price, 1e-9)
	assert.Equal(t, ts, orders[0].Timestamp)
}

func TestSimulateFillOrders_InvalidSide(t *testing.T) {
	orders := []SignalOrder{{Price: 100.0, Side: "hold"}}
	_, err := SimulateFillOrders(orders, 0.01, 0)
	assert.ErrorIs(t, err, ErrInvalidSide)
}
