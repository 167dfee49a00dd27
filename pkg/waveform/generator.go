package waveform

import (
	"math"
	"time"
)

// Generator is an external signal source. A generator exposes a fixed sample
// period and produces values on demand; it can be swapped on a running
// channel without disturbing the channel's pacing state.
type Generator interface {
	// SamplePeriod returns the time between two produced samples. Constant
	// for the generator's lifetime.
	SamplePeriod() time.Duration

	// Produce returns exactly count values in chronological order.
	Produce(count int) ([]float64, error)
}

// curveGenerator emits a precomputed single-cycle value table cyclically.
// The built-in demo waveforms are all instances of it.
type curveGenerator struct {
	period time.Duration
	values []float64
	cursor int
}

func (g *curveGenerator) SamplePeriod() time.Duration { return g.period }

func (g *curveGenerator) Produce(count int) ([]float64, error) {
	if count < 0 {
		return nil, ErrNegativeSampleCount
	}
	out := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.values[g.cursor])
		g.cursor = (g.cursor + 1) % len(g.values)
	}
	return out, nil
}

// samplesPerCycle returns the table length for one waveform cycle, at least 1.
func samplesPerCycle(waveformPeriod, samplePeriod time.Duration) int {
	n := int(waveformPeriod / samplePeriod)
	if n < 1 {
		n = 1
	}
	return n
}

// NewSineGenerator returns a generator that produces a sine wave oscillating
// between min and max with the given waveform period, sampled at samplePeriod.
func NewSineGenerator(min, max float64, waveformPeriod, samplePeriod time.Duration) Generator {
	n := samplesPerCycle(waveformPeriod, samplePeriod)
	amplitude := (max - min) / 2
	offset := min + amplitude
	values := make([]float64, n)
	for i := range values {
		values[i] = offset + amplitude*math.Sin(2*math.Pi*float64(i)/float64(n))
	}
	return &curveGenerator{period: samplePeriod, values: values}
}

// NewSawtoothGenerator returns a generator that ramps linearly from min to max
// once per waveform period, then drops back to min.
func NewSawtoothGenerator(min, max float64, waveformPeriod, samplePeriod time.Duration) Generator {
	n := samplesPerCycle(waveformPeriod, samplePeriod)
	values := make([]float64, n)
	step := (max - min) / float64(n)
	for i := range values {
		values[i] = min + step*float64(i)
	}
	return &curveGenerator{period: samplePeriod, values: values}
}

// NewTriangleGenerator returns a generator that ramps from min to max over the
// first half of the waveform period and back down over the second half.
func NewTriangleGenerator(min, max float64, waveformPeriod, samplePeriod time.Duration) Generator {
	n := samplesPerCycle(waveformPeriod, samplePeriod)
	half := n / 2
	if half < 1 {
		half = 1
	}
	values := make([]float64, 0, n)
	step := (max - min) / float64(half)
	for i := 0; i < half; i++ {
		values = append(values, min+step*float64(i))
	}
	for i := 0; len(values) < n; i++ {
		values = append(values, max-step*float64(i))
	}
	return &curveGenerator{period: samplePeriod, values: values}
}
