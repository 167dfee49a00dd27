package waveform

import (
	"math"
	"time"
)

// SampleBatch is one channel's worth of freshly generated samples plus timing
// and annotation metadata. A batch is constructed by a ChannelSampler, mutated
// only by annotation attachment during the same update cycle, and superseded
// at the start of the next cycle.
type SampleBatch struct {
	// ChannelID identifies the channel this batch belongs to.
	ChannelID string `json:"channel_id"`

	// DeterminationTime is the timestamp of the first sample in fractional
	// unix seconds. Nil means the channel was not active; such a batch
	// carries no samples.
	DeterminationTime *float64 `json:"determination_time,omitempty"`

	// SamplePeriod is the time between two consecutive samples.
	SamplePeriod time.Duration `json:"sample_period"`

	// Samples holds the values in chronological order.
	Samples []float64 `json:"samples"`

	// Activation is the channel's activation state at generation time.
	Activation Activation `json:"activation"`

	// Annotations is the append-only list of annotation payloads attached to
	// this batch.
	Annotations []Annotation `json:"annotations,omitempty"`

	// AnnotationRefs maps annotations to sample positions. Every ref indexes
	// validly into both Annotations and Samples.
	AnnotationRefs []AnnotationRef `json:"annotation_refs,omitempty"`
}

// NewSampleBatch constructs a batch. determinationTime is nil for an inactive
// channel.
func NewSampleBatch(channelID string, determinationTime *float64, period time.Duration, samples []float64, activation Activation) *SampleBatch {
	return &SampleBatch{
		ChannelID:         channelID,
		DeterminationTime: determinationTime,
		SamplePeriod:      period,
		Samples:           samples,
		Activation:        activation,
	}
}

// NearestIndex resolves a timestamp to the index of the nearest sample.
// Timestamps up to half a sample period before the first or after the last
// sample are accepted; anything further out resolves to nothing. Ties on the
// continuous position round half-up.
func (b *SampleBatch) NearestIndex(timestamp float64) (int, bool) {
	if b.DeterminationTime == nil {
		return 0, false
	}
	dt := *b.DeterminationTime
	period := b.SamplePeriod.Seconds()
	if period <= 0 {
		return 0, false
	}
	if timestamp < dt-period*0.5 {
		return 0, false
	}
	if timestamp >= dt+float64(len(b.Samples))*period+period*0.5 {
		return 0, false
	}
	pos := (timestamp - dt) / period
	idx := int(math.Floor(pos))
	if pos-math.Floor(pos) >= 0.5 {
		idx++
	}
	// The admission window extends half a period past the last sample, which
	// can round to len(Samples); refs must stay inside the batch.
	if idx < 0 || idx >= len(b.Samples) {
		return 0, false
	}
	return idx, true
}

// AttachAnnotation resolves every timestamp against the batch and, if at
// least one resolves, appends the annotation once plus one ref per resolved
// timestamp. When no timestamp falls inside the batch window the call is a
// no-op: no orphaned annotation entry is created. Returns whether the
// annotation was applied.
func (b *SampleBatch) AttachAnnotation(annotation Annotation, timestamps []float64) bool {
	applied := false
	annotationIndex := len(b.Annotations)
	for _, ts := range timestamps {
		idx, ok := b.NearestIndex(ts)
		if !ok {
			continue
		}
		b.AnnotationRefs = append(b.AnnotationRefs, AnnotationRef{
			AnnotationIndex: annotationIndex,
			SampleIndex:     idx,
		})
		applied = true
	}
	if applied {
		b.Annotations = append(b.Annotations, annotation)
	}
	return applied
}

// Active reports whether the batch carries data.
func (b *SampleBatch) Active() bool {
	return b.DeterminationTime != nil
}
