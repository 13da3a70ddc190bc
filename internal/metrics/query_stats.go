package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
)

// ConnectionStats summarizes the queries run on one connection.
type ConnectionStats struct {
	Connection string    `json:"connection"`
	Queries    int64     `json:"queries"`
	Errors     int64     `json:"errors"`
	AvgMs      float64   `json:"avg_ms"`
	P95Ms      float64   `json:"p95_ms"`
	MaxMs      float64   `json:"max_ms"`
	LastAt     time.Time `json:"last_at"`
}

type connStats struct {
	samples *SampleBuffer
	avg     ewma.MovingAverage
	queries int64
	errors  int64
}

// QueryStats tracks query latency per connection name. The average is an
// exponentially weighted moving average; percentiles and the maximum cover
// the most recent samples only. It is safe for concurrent use.
type QueryStats struct {
	mu       sync.RWMutex
	conns    map[string]*connStats
	capacity int
}

// NewQueryStats creates stats keeping capacity samples per connection.
func NewQueryStats(capacity int) *QueryStats {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &QueryStats{
		conns:    make(map[string]*connStats),
		capacity: capacity,
	}
}

// ObserveQuery records one executed query.
func (q *QueryStats) ObserveQuery(connection string, d time.Duration, failed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cs, ok := q.conns[connection]
	if !ok {
		cs = &connStats{
			samples: NewSampleBuffer(q.capacity),
			avg:     ewma.NewMovingAverage(),
		}
		q.conns[connection] = cs
	}

	cs.queries++
	if failed {
		cs.errors++
	}
	cs.avg.Add(float64(d) / float64(time.Millisecond))
	cs.samples.Push(Sample{At: time.Now(), Duration: d, Failed: failed})
}

// Snapshot returns the stats of every connection sorted by name.
func (q *QueryStats) Snapshot() []ConnectionStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]ConnectionStats, 0, len(q.conns))
	for name, cs := range q.conns {
		durations := cs.samples.Durations()
		stats := ConnectionStats{
			Connection: name,
			Queries:    cs.queries,
			Errors:     cs.errors,
			AvgMs:      cs.avg.Value(),
			P95Ms:      percentile(durations, 0.95),
			MaxMs:      maxOf(durations),
		}
		if latest, ok := cs.samples.Latest(); ok {
			stats.LastAt = latest.At
		}
		out = append(out, stats)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Connection < out[j].Connection })
	return out
}

// percentile returns the nearest-rank percentile of values.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	rank = max(0, min(rank, len(sorted)-1))
	return sorted[rank]
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = max(m, v)
	}
	return m
}
