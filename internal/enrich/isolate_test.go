package enrich

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapIsolated(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6}
	results := MapIsolated(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
		switch n {
		case 3:
			return 0, errors.New("three")
		case 5:
			panic("five")
		}
		return n * 10, nil
	})

	require.Len(t, results, len(items))
	assert.Equal(t, 10, results[0].Value)
	assert.Equal(t, 20, results[1].Value)
	assert.EqualError(t, results[2].Err, "three")
	assert.Equal(t, 40, results[3].Value)
	assert.False(t, results[4].OK())
	var pe *PanicError
	require.ErrorAs(t, results[4].Err, &pe)
	assert.Equal(t, "five", pe.Value)
	assert.Equal(t, "panic: five", pe.Error())
	assert.NotEmpty(t, pe.Stack)
	assert.Equal(t, 60, results[5].Value)
}

func TestMapIsolated_RespectsLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	items := make([]int, 50)
	MapIsolated(context.Background(), items, 4, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestMapIsolated_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	results := MapIsolated(ctx, []string{"a", "b"}, 0, func(_ context.Context, s string) (string, error) {
		called = true
		return s, nil
	})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.False(t, called)
}

func TestMapIsolated_Empty(t *testing.T) {
	t.Parallel()
	results := MapIsolated(context.Background(), []int(nil), 4, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	assert.Empty(t, results)
}
