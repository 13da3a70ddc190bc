package metrics

// DefaultBufferCapacity is the default number of samples kept per connection.
const DefaultBufferCapacity = 256

// SampleBuffer is a fixed-size ring buffer of samples that evicts the
// oldest entry when full. It is not safe for concurrent use.
type SampleBuffer struct {
	data     []Sample
	capacity int
	head     int // Next write position
	size     int // Current element count
}

// NewSampleBuffer creates a buffer with the given capacity.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &SampleBuffer{
		data:     make([]Sample, capacity),
		capacity: capacity,
	}
}

// Push adds a sample, evicting the oldest if at capacity.
func (b *SampleBuffer) Push(s Sample) {
	if !s.IsValid() {
		return
	}

	b.data[b.head] = s
	b.head = (b.head + 1) % b.capacity

	if b.size < b.capacity {
		b.size++
	}
}

// Recent returns the n most recent samples in chronological order.
func (b *SampleBuffer) Recent(n int) []Sample {
	if n <= 0 || b.size == 0 {
		return nil
	}
	if n > b.size {
		n = b.size
	}

	result := make([]Sample, n)
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		result[i] = b.data[(start+i)%b.capacity]
	}
	return result
}

// Durations returns the duration of every buffered sample, oldest first.
func (b *SampleBuffer) Durations() []float64 {
	samples := b.Recent(b.size)
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s.Duration) / float64(1e6)
	}
	return out
}

// Latest returns the most recent sample.
func (b *SampleBuffer) Latest() (Sample, bool) {
	if b.size == 0 {
		return Sample{}, false
	}
	return b.data[(b.head-1+b.capacity)%b.capacity], true
}

// Len returns the current number of samples.
func (b *SampleBuffer) Len() int {
	return b.size
}

// Cap returns the capacity of the buffer.
func (b *SampleBuffer) Cap() int {
	return b.capacity
}
