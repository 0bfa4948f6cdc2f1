package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSampleStaysWithinBounds(t *testing.T) {
	c, err := NewController(Config{
		Search:  Bounds{Min: 0.05, Max: 0.2},
		Contact: Bounds{Min: 1, Max: 1},
		Decrypt: Bounds{Min: 0, Max: 0.1},
		Range:   Bounds{Min: 0.5, Max: 2},
	})
	require.NoError(t, err)

	cases := []struct {
		kind Kind
		min  time.Duration
		max  time.Duration
	}{
		{KindSearch, 50 * time.Millisecond, 200 * time.Millisecond},
		{KindContact, time.Second, time.Second},
		{KindDecrypt, 0, 100 * time.Millisecond},
		{KindRange, 500 * time.Millisecond, 2 * time.Second},
	}
	for _, tc := range cases {
		for i := 0; i < 200; i++ {
			d := c.Sample(tc.kind)
			require.GreaterOrEqual(t, d, tc.min, "kind %s", tc.kind)
			require.LessOrEqual(t, d, tc.max, "kind %s", tc.kind)
		}
	}
}

func TestDegenerateBounds(t *testing.T) {
	c, err := NewController(Config{
		Search: Bounds{Min: 0.25, Max: 0.25},
	})
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, c.Sample(KindSearch))
}

func TestValidation(t *testing.T) {
	_, err := NewController(Config{
		Search: Bounds{Min: 2, Max: 1},
	})
	require.Error(t, err)

	_, err = NewController(Config{
		Contact: Bounds{Min: -1, Max: 1},
	})
	require.Error(t, err)
}

func TestWaitHonorsCancellation(t *testing.T) {
	c, err := NewController(Config{
		Range: Bounds{Min: 30, Max: 60},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Wait(ctx, KindRange)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPresetsAreValid(t *testing.T) {
	for name, cfg := range Presets {
		require.NoError(t, cfg.Validate(), "preset %s", name)
	}
}
