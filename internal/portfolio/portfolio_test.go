package portfolio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionSize(t *testing.T) {
	p, err := New(1000.0, 0.1)
	require.NoError(t, err)

	size, err := p.PositionSize(50.0, 0.01)
	require.NoError(t, err)
	// 1% of 1000 = 10 at risk; 10 / 50 = 0.2 units.
	assert.InDelta(t, 0.2, size, 1e-9)
}

func TestPositionSize_UsesCurrentCapital(t *testing.T) {
	p, err := New(1000.0, 0.5)
	require.NoError(t, err)
	require.NoError(t, p.Update(-500.0))

	size, err := p.PositionSize(50.0, 0.01)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, size, 1e-9) // sized off 500, not 1000
}

func TestUpdate_DrawdownEnforcement(t *testing.T) {
	p, err := New(1000.0, 0.1)
	require.NoError(t, err)

	require.NoError(t, p.Update(100.0))
	assert.InDelta(t, 1100.0, p.Capital(), 1e-9)

	require.NoError(t, p.Update(-100.0))
	assert.InDelta(t, 1000.0, p.Capital(), 1e-9)

	// Floor is 1000*(1-0.1)=900; dropping to 800 breaches.
	err = p.Update(-200.0)
	require.ErrorIs(t, err, ErrDrawdownBreached)

	// The overshoot persists for forensic inspection.
	assert.InDelta(t, 800.0, p.Capital(), 1e-9)
	assert.True(t, p.Breached())
}

func TestFloor_FixedFromInitialCapital(t *testing.T) {
	p, err := New(1000.0, 0.1)
	require.NoError(t, err)
	require.NoError(t, p.Update(500.0))

	// Gains never move the floor.
	assert.InDelta(t, 900.0, p.Floor(), 1e-9)
	require.NoError(t, p.Update(-550.0)) // 950 >= 900, still fine
	assert.InDelta(t, 950.0, p.Capital(), 1e-9)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		capital     float64
		maxDrawdown float64
	}{
		{"zero capital", 0, 0.1},
		{"negative capital", -100, 0.1},
		{"drawdown at one", 1000, 1.0},
		{"drawdown above one", 1000, 1.5},
		{"negative drawdown", 1000, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.capital, tt.maxDrawdown)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPositionSize_Validation(t *testing.T) {
	p, err := New(1000.0, 0.1)
	require.NoError(t, err)

	_, err = p.PositionSize(0, 0.01)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.PositionSize(-5, 0.01)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.PositionSize(50, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.PositionSize(50, 1.5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdate_ConcurrentFloorCheck(t *testing.T) {
	p, err := New(1000.0, 0.5)
	require.NoError(t, err)

	// 100 concurrent -10 updates: exactly the updates that take capital
	// below 500 must fail, and the final value must reflect every update.
	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- p.Update(-10.0)
		}()
	}
	wg.Wait()
	close(errs)

	failures := 0
	for err := range errs {
		if err != nil {
			failures++
		}
	}
	assert.Equal(t, 50, failures) // updates 51..100 land below the floor
	assert.InDelta(t, 0.0, p.Capital(), 1e-9)
	assert.True(t, p.Breached())
}

func TestSnapshot(t *testing.T) {
	p, err := New(1000.0, 0.2)
	require.NoError(t, err)
	require.NoError(t, p.Update(-100.0))

	snap := p.Snapshot()
	assert.InDelta(t, 1000.0, snap.InitialCapital, 1e-9)
	assert.InDelta(t, 900.0, snap.Capital, 1e-9)
	assert.InDelta(t, 800.0, snap.Floor, 1e-9)
	assert.InDelta(t, 0.1, snap.Drawdown, 1e-9)
	assert.False(t, snap.Breached)
}
