package waveform

// TriggerDetector inspects one source channel's batch per cycle and yields
// timestamps at which its annotation should be stamped onto the destination
// channels. Implementations are long-lived; internal detector state (such as
// the last seen value) persists across cycles and belongs to the detector,
// not to any batch.
type TriggerDetector interface {
	// Annotation returns the payload carried into destination batches.
	Annotation() Annotation

	// SourceChannel returns the channel whose batches are inspected.
	SourceChannel() string

	// DestinationChannels returns the channels that receive the annotation.
	DestinationChannels() []string

	// TriggerTimestamps analyzes the batch and returns trigger timestamps in
	// unix seconds. May be empty.
	TriggerTimestamps(batch *SampleBatch) []float64
}

// RisingEdgeDetector is the default trigger strategy: it fires whenever the
// signal crosses from <= 0 to > 0. It operates purely on the sequence of
// values it is shown and is agnostic to absolute time, so one detector works
// across batches with differing sample periods.
//
// lastValue deliberately survives deactivation and reactivation of the source
// channel; the first sample after a gap is compared against the last value
// seen before it.
type RisingEdgeDetector struct {
	annotation   Annotation
	source       string
	destinations []string
	lastValue    float64
}

// NewRisingEdgeDetector creates a rising-edge detector that annotates the
// destination channels whenever the source channel's value crosses zero
// upwards.
func NewRisingEdgeDetector(annotation Annotation, source string, destinations ...string) *RisingEdgeDetector {
	return &RisingEdgeDetector{
		annotation:   annotation,
		source:       source,
		destinations: destinations,
	}
}

// Annotation implements TriggerDetector.
func (d *RisingEdgeDetector) Annotation() Annotation { return d.annotation }

// SourceChannel implements TriggerDetector.
func (d *RisingEdgeDetector) SourceChannel() string { return d.source }

// DestinationChannels implements TriggerDetector.
func (d *RisingEdgeDetector) DestinationChannels() []string { return d.destinations }

// TriggerTimestamps implements TriggerDetector. Every sample is consumed even
// when no trigger fires, so lastValue always reflects the true last sample
// seen.
func (d *RisingEdgeDetector) TriggerTimestamps(batch *SampleBatch) []float64 {
	var timestamps []float64
	period := batch.SamplePeriod.Seconds()
	for i, sample := range batch.Samples {
		if d.lastValue <= 0 && sample > 0 && batch.DeterminationTime != nil {
			timestamps = append(timestamps, *batch.DeterminationTime+float64(i)*period)
		}
		d.lastValue = sample
	}
	return timestamps
}
