package waveform

import (
	"errors"
	"testing"
	"time"
)

func TestSineGeneratorBounds(t *testing.T) {
	gen := NewSineGenerator(-1, 1, time.Second, 10*time.Millisecond)
	if gen.SamplePeriod() != 10*time.Millisecond {
		t.Fatalf("sample period = %v", gen.SamplePeriod())
	}

	samples, err := gen.Produce(200)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(samples) != 200 {
		t.Fatalf("got %d samples, want 200", len(samples))
	}
	for i, v := range samples {
		if v < -1.0000001 || v > 1.0000001 {
			t.Fatalf("sample %d = %v, outside [-1, 1]", i, v)
		}
	}
	// One full cycle repeats exactly.
	if samples[0] != samples[100] {
		t.Fatalf("cycle does not repeat: %v vs %v", samples[0], samples[100])
	}
}

func TestSawtoothGeneratorRamps(t *testing.T) {
	gen := NewSawtoothGenerator(0, 100, time.Second, 100*time.Millisecond)

	samples, err := gen.Produce(10)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if samples[0] != 0 {
		t.Fatalf("ramp starts at %v, want 0", samples[0])
	}
	for i := 1; i < len(samples); i++ {
		if samples[i] <= samples[i-1] {
			t.Fatalf("ramp not increasing at %d: %v", i, samples)
		}
	}

	// Next cycle drops back to min.
	next, err := gen.Produce(1)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if next[0] != 0 {
		t.Fatalf("second cycle starts at %v, want 0", next[0])
	}
}

func TestTriangleGeneratorUpDown(t *testing.T) {
	gen := NewTriangleGenerator(0, 10, time.Second, 100*time.Millisecond)

	samples, err := gen.Produce(10)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	peak := 0
	for i, v := range samples {
		if v > samples[peak] {
			peak = i
		}
		if v < 0 || v > 10 {
			t.Fatalf("sample %d = %v, outside [0, 10]", i, v)
		}
	}
	if peak == 0 || peak == len(samples)-1 {
		t.Fatalf("no interior peak: %v", samples)
	}
	for i := 1; i <= peak; i++ {
		if samples[i] < samples[i-1] {
			t.Fatalf("not rising before peak: %v", samples)
		}
	}
	for i := peak + 1; i < len(samples); i++ {
		if samples[i] > samples[i-1] {
			t.Fatalf("not falling after peak: %v", samples)
		}
	}
}

func TestGeneratorContinuityAcrossCalls(t *testing.T) {
	whole := NewSawtoothGenerator(0, 100, time.Second, 100*time.Millisecond)
	split := NewSawtoothGenerator(0, 100, time.Second, 100*time.Millisecond)

	want, _ := whole.Produce(7)
	first, _ := split.Produce(3)
	second, _ := split.Produce(4)
	got := append(first, second...)

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("split production diverges at %d: %v vs %v", i, got, want)
		}
	}
}

func TestGeneratorNegativeCount(t *testing.T) {
	gen := NewSineGenerator(-1, 1, time.Second, 10*time.Millisecond)
	if _, err := gen.Produce(-1); !errors.Is(err, ErrNegativeSampleCount) {
		t.Fatalf("error = %v, want ErrNegativeSampleCount", err)
	}
}

func TestGeneratorZeroCount(t *testing.T) {
	gen := NewSineGenerator(-1, 1, time.Second, 10*time.Millisecond)
	samples, err := gen.Produce(0)
	if err != nil {
		t.Fatalf("Produce(0): %v", err)
	}
	if len(samples) != 0 {
		t.Fatalf("got %d samples, want 0", len(samples))
	}
}
