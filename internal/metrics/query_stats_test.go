package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryStats_Snapshot(t *testing.T) {
	stats := NewQueryStats(100)

	for ms := 1; ms <= 20; ms++ {
		stats.ObserveQuery("warehouse", time.Duration(ms)*time.Millisecond, ms%10 == 0)
	}
	stats.ObserveQuery("local", 5*time.Millisecond, false)

	snap := stats.Snapshot()
	require.Len(t, snap, 2)

	assert.Equal(t, "local", snap[0].Connection)
	assert.Equal(t, int64(1), snap[0].Queries)
	assert.Equal(t, 5.0, snap[0].AvgMs)
	assert.Equal(t, 5.0, snap[0].P95Ms)

	wh := snap[1]
	assert.Equal(t, "warehouse", wh.Connection)
	assert.Equal(t, int64(20), wh.Queries)
	assert.Equal(t, int64(2), wh.Errors)
	assert.Equal(t, 19.0, wh.P95Ms)
	assert.Equal(t, 20.0, wh.MaxMs)
	assert.Greater(t, wh.AvgMs, 1.0)
	assert.Less(t, wh.AvgMs, 20.0)
	assert.False(t, wh.LastAt.IsZero())
}

func TestQueryStats_Empty(t *testing.T) {
	assert.Empty(t, NewQueryStats(0).Snapshot())
}

func TestQueryStats_Concurrent(t *testing.T) {
	stats := NewQueryStats(10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.ObserveQuery("c", time.Millisecond, false)
				_ = stats.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := stats.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(800), snap[0].Queries)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 0.0, percentile(nil, 0.95))
	assert.Equal(t, 3.0, percentile([]float64{3}, 0.95))
	assert.Equal(t, 10.0, percentile([]float64{10, 1, 5, 7, 2, 3, 4, 6, 8, 9}, 0.95))
	assert.Equal(t, 5.0, percentile([]float64{10, 1, 5, 7, 2, 3, 4, 6, 8, 9}, 0.5))
}
