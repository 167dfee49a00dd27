package waveform

import (
	"math"
	"time"
)

// ChannelSampler converts elapsed wall time into a sample count and wraps one
// external generator, producing a SampleBatch per update cycle.
//
// Pacing is drift-free: lastTimestamp advances by the exact duration covered
// by the emitted samples rather than snapping to "now", so a residual
// fraction of a sample period left unconsumed in one cycle is picked up by a
// later one instead of being lost. Over many irregularly spaced polls the
// cumulative emitted sample count therefore tracks floor(elapsed/period)
// exactly.
type ChannelSampler struct {
	channelID  string
	generator  Generator
	activation Activation

	// lastTimestamp marks the end of the last emitted batch's coverage, in
	// unix seconds. Owned exclusively by this sampler. Nil until the first
	// active batch.
	lastTimestamp *float64

	current *SampleBatch
	clock   Clock
}

// SamplerOption configures a ChannelSampler.
type SamplerOption func(*ChannelSampler)

// WithClock substitutes the time source, for tests.
func WithClock(c Clock) SamplerOption {
	return func(s *ChannelSampler) { s.clock = c }
}

// NewChannelSampler creates a sampler for channelID backed by generator.
// The sampler starts in the On state with pacing anchored at the current time.
func NewChannelSampler(channelID string, generator Generator, opts ...SamplerOption) *ChannelSampler {
	s := &ChannelSampler{
		channelID:  channelID,
		generator:  generator,
		activation: ActivationOn,
		clock:      SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	now := unixSeconds(s.clock.Now())
	s.lastTimestamp = &now
	return s
}

// ChannelID returns the channel this sampler feeds.
func (s *ChannelSampler) ChannelID() string { return s.channelID }

// Active reports whether the sampler currently produces samples.
func (s *ChannelSampler) Active() bool { return s.activation == ActivationOn }

// Activation returns the current activation state.
func (s *ChannelSampler) Activation() Activation { return s.activation }

// SamplePeriod returns the sample period of the current generator.
func (s *ChannelSampler) SamplePeriod() time.Duration { return s.generator.SamplePeriod() }

// SetActivation changes the activation state. Switching to On re-anchors
// pacing at "now", discarding any backlog accrued while inactive. Leaving On
// keeps lastTimestamp untouched; it is simply not consulted until
// reactivation.
func (s *ChannelSampler) SetActivation(state Activation) {
	s.activation = state
	if state == ActivationOn {
		now := unixSeconds(s.clock.Now())
		s.lastTimestamp = &now
	}
}

// SetGenerator swaps the signal source. Pacing state is preserved; only the
// sample period and value production change going forward.
func (s *ChannelSampler) SetGenerator(generator Generator) {
	s.generator = generator
}

// Current returns the batch produced by the most recent NextBatch call, or
// nil before the first call.
func (s *ChannelSampler) Current() *SampleBatch { return s.current }

// NextBatch produces the batch covering the time elapsed since the previous
// one. An inactive sampler yields an empty batch with no determination time
// and performs no generator call. Polling faster than one sample period
// yields an active batch with zero samples; the unconsumed fraction carries
// over.
func (s *ChannelSampler) NextBatch() (*SampleBatch, error) {
	if s.activation != ActivationOn {
		s.current = NewSampleBatch(s.channelID, nil, s.generator.SamplePeriod(), nil, s.activation)
		return s.current, nil
	}

	now := unixSeconds(s.clock.Now())
	observationTime := now
	if s.lastTimestamp != nil {
		observationTime = *s.lastTimestamp
	}
	period := s.generator.SamplePeriod().Seconds()
	count := int(math.Floor((now - observationTime) / period))
	if count < 0 {
		count = 0
	}
	samples, err := s.generator.Produce(count)
	if err != nil {
		return nil, err
	}
	advanced := observationTime + period*float64(count)
	s.lastTimestamp = &advanced

	dt := observationTime
	s.current = NewSampleBatch(s.channelID, &dt, s.generator.SamplePeriod(), samples, s.activation)
	return s.current, nil
}
