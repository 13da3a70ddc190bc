// Package metrics keeps in-memory query latency statistics per connection.
package metrics

import "time"

// Sample is one executed query.
type Sample struct {
	At       time.Time
	Duration time.Duration
	Failed   bool
}

// IsValid reports whether the sample can be recorded.
// A sample is invalid if the timestamp is zero or the duration is negative.
func (s Sample) IsValid() bool {
	return !s.At.IsZero() && s.Duration >= 0
}
