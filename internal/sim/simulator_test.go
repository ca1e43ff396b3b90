package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T, cfg Config, seed int64) *Simulator {
	t.Helper()
	s, err := New(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return s
}

func TestCreateOrder_FullFill(t *testing.T) {
	cfg := Config{SlippagePct: 0.01, ErrorRate: 0, PartialFillMin: 1.0}
	s := newTestSimulator(t, cfg, 1)

	fill, err := s.CreateOrder(OrderRequest{
		Symbol: "BTC/USDT", Type: OrderLimit, Side: SideBuy, Amount: 2.0, Price: 100.0,
	})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, fill.Filled, 1e-9)
	assert.Equal(t, StatusClosed, fill.Status)
	assert.InDelta(t, 101.0, fill.Price, 1e-9) // 100 * (1 + 0.01)
	assert.NotEmpty(t, fill.ID)
	assert.False(t, fill.Timestamp.IsZero())
}

func TestCreateOrder_SellSlippage(t *testing.T) {
	cfg := Config{SlippagePct: 0.02, ErrorRate: 0, PartialFillMin: 1.0}
	s := newTestSimulator(t, cfg, 1)

	fill, err := s.CreateOrder(OrderRequest{
		Symbol: "ETH/USDT", Type: OrderMarket, Side: SideSell, Amount: 5.0, Price: 50.0,
	})
	require.NoError(t, err)

	assert.InDelta(t, 49.0, fill.Price, 1e-9) // 50 * (1 - 0.02)
	assert.Equal(t, StatusClosed, fill.Status)
}

func TestCreateOrder_AlwaysErrors(t *testing.T) {
	cfg := Config{ErrorRate: 1.0, PartialFillMin: 0.5}
	s := newTestSimulator(t, cfg, 7)

	req := OrderRequest{Symbol: "BTC/USDT", Type: OrderMarket, Side: SideBuy, Amount: 1.0, Price: 100.0}
	for i := 0; i < 100; i++ {
		fill, err := s.CreateOrder(req)
		require.ErrorIs(t, err, ErrExchangeUnavailable)
		assert.Nil(t, fill)
	}
}

func TestCreateOrder_NeverErrors(t *testing.T) {
	cfg := Config{ErrorRate: 0.0, PartialFillMin: 1.0}
	s := newTestSimulator(t, cfg, 7)

	req := OrderRequest{Symbol: "BTC/USDT", Type: OrderMarket, Side: SideBuy, Amount: 1.5, Price: 100.0}
	for i := 0; i < 100; i++ {
		fill, err := s.CreateOrder(req)
		require.NoError(t, err)
		assert.Equal(t, StatusClosed, fill.Status)
		assert.InDelta(t, 1.5, fill.Filled, 1e-9)
	}
}

func TestCreateOrder_PartialFillBounds(t *testing.T) {
	cfg := Config{ErrorRate: 0.0, PartialFillMin: 0.5}
	s := newTestSimulator(t, cfg, 42)

	req := OrderRequest{Symbol: "BTC/USDT", Type: OrderLimit, Side: SideBuy, Amount: 4.0, Price: 250.0}
	for i := 0; i < 200; i++ {
		fill, err := s.CreateOrder(req)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, fill.Filled, 2.0) // amount * partial_fill_min
		assert.LessOrEqual(t, fill.Filled, 4.0)
		if fill.Filled < req.Amount {
			assert.Equal(t, StatusPartial, fill.Status)
		} else {
			assert.Equal(t, StatusClosed, fill.Status)
		}
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig(), 1)

	tests := []struct {
		name string
		req  OrderRequest
	}{
		{"missing symbol", OrderRequest{Type: OrderMarket, Side: SideBuy, Amount: 1, Price: 100}},
		{"bad type", OrderRequest{Symbol: "BTC/USDT", Type: "STOP", Side: SideBuy, Amount: 1, Price: 100}},
		{"bad side", OrderRequest{Symbol: "BTC/USDT", Type: OrderMarket, Side: "hold", Amount: 1, Price: 100}},
		{"zero amount", OrderRequest{Symbol: "BTC/USDT", Type: OrderMarket, Side: SideBuy, Amount: 0, Price: 100}},
		{"negative amount", OrderRequest{Symbol: "BTC/USDT", Type: OrderMarket, Side: SideBuy, Amount: -1, Price: 100}},
		{"missing reference price", OrderRequest{Symbol: "BTC/USDT", Type: OrderMarket, Side: SideBuy, Amount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fill, err := s.CreateOrder(tt.req)
			assert.ErrorIs(t, err, ErrInvalidOrder)
			assert.Nil(t, fill)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{ErrorRate: 1.5}.Validate())
	assert.Error(t, Config{ErrorRate: -0.1}.Validate())
	assert.Error(t, Config{PartialFillMin: 2}.Validate())
	assert.Error(t, Config{SlippagePct: -0.01}.Validate())
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{ErrorRate: 2}, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestFill_FilledRatio(t *testing.T) {
	f := &Fill{Amount: 2.0, Filled: 1.0}
	assert.InDelta(t, 0.5, f.FilledRatio(), 1e-9)

	empty := &Fill{}
	assert.Zero(t, empty.FilledRatio())
}
