package metrics

import (
	"testing"
	"time"
)

func sampleAt(ms int) Sample {
	return Sample{At: time.Now(), Duration: time.Duration(ms) * time.Millisecond}
}

func TestSampleBuffer_Push(t *testing.T) {
	buf := NewSampleBuffer(3)

	buf.Push(sampleAt(1))
	if buf.Len() != 1 {
		t.Errorf("expected len 1, got %d", buf.Len())
	}

	buf.Push(sampleAt(2))
	buf.Push(sampleAt(3))
	if buf.Len() != 3 {
		t.Errorf("expected len 3, got %d", buf.Len())
	}
}

func TestSampleBuffer_Eviction(t *testing.T) {
	buf := NewSampleBuffer(3)

	for ms := 1; ms <= 4; ms++ {
		buf.Push(sampleAt(ms))
	}

	if buf.Len() != 3 {
		t.Errorf("expected len 3 after eviction, got %d", buf.Len())
	}

	values := buf.Durations()
	expected := []float64{2, 3, 4}
	for i, v := range values {
		if v != expected[i] {
			t.Errorf("expected value[%d]=%f, got %f", i, expected[i], v)
		}
	}
}

func TestSampleBuffer_Recent(t *testing.T) {
	buf := NewSampleBuffer(5)
	for ms := 1; ms <= 5; ms++ {
		buf.Push(sampleAt(ms))
	}

	recent := buf.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(recent))
	}
	if recent[0].Duration != 4*time.Millisecond || recent[1].Duration != 5*time.Millisecond {
		t.Errorf("unexpected recent samples: %+v", recent)
	}

	if got := buf.Recent(10); len(got) != 5 {
		t.Errorf("expected Recent to cap at len, got %d", len(got))
	}
	if got := buf.Recent(0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}

func TestSampleBuffer_Latest(t *testing.T) {
	buf := NewSampleBuffer(2)

	if _, ok := buf.Latest(); ok {
		t.Error("expected no latest sample in empty buffer")
	}

	buf.Push(sampleAt(1))
	buf.Push(sampleAt(2))
	buf.Push(sampleAt(3))

	latest, ok := buf.Latest()
	if !ok || latest.Duration != 3*time.Millisecond {
		t.Errorf("expected latest 3ms, got %v (ok=%v)", latest.Duration, ok)
	}
}

func TestSampleBuffer_RejectsInvalid(t *testing.T) {
	buf := NewSampleBuffer(2)

	buf.Push(Sample{Duration: time.Millisecond})
	buf.Push(Sample{At: time.Now(), Duration: -time.Millisecond})

	if buf.Len() != 0 {
		t.Errorf("expected invalid samples to be dropped, got len %d", buf.Len())
	}
}

func TestSampleBuffer_DefaultCapacity(t *testing.T) {
	if got := NewSampleBuffer(0).Cap(); got != DefaultBufferCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultBufferCapacity, got)
	}
}
