package waveform

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/metrics"
)

// Orchestrator owns the registered channel samplers and trigger detectors and
// runs the two-phase update cycle: generate and write all batches first, then
// cross-annotate against a snapshot of this cycle's batches. The snapshot
// guarantees a detector reading channel A and annotating channel B always
// sees B's batch from the same cycle, never a stale one.
//
// The orchestrator performs no internal locking. The host must guarantee at
// most one in-flight Update or SetActivation per instance, and registration
// must happen outside an in-flight cycle.
type Orchestrator struct {
	manager   TransactionManager
	samplers  map[string]*ChannelSampler
	order     []string
	detectors map[string]TriggerDetector

	clock   Clock
	log     logger.Logger
	metrics *metrics.Manager
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(log logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithOrchestratorClock sets the time source handed to newly created
// samplers, for tests.
func WithOrchestratorClock(c Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = c }
}

// NewOrchestrator creates an orchestrator writing into the given host model.
func NewOrchestrator(manager TransactionManager, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		manager:   manager,
		samplers:  make(map[string]*ChannelSampler),
		detectors: make(map[string]TriggerDetector),
		clock:     SystemClock(),
		log:       logger.Global(),
		metrics:   metrics.NoOpManager(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterChannel registers a generator for a channel. If the channel already
// has a sampler, its generator is swapped without resetting pacing state.
// When the host descriptor's declared sample period differs from the
// generator's, the descriptor is updated through its own transaction so
// subscribers see the structural change before data conforming to it.
func (o *Orchestrator) RegisterChannel(channelID string, generator Generator) error {
	if generator == nil {
		return ErrNilGenerator
	}

	err := o.manager.WithTransaction(func(tx Transaction) error {
		descriptor, err := tx.Descriptor(channelID)
		if err != nil {
			return err
		}
		if descriptor.SamplePeriod != generator.SamplePeriod() {
			descriptor.SamplePeriod = generator.SamplePeriod()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if sampler, ok := o.samplers[channelID]; ok {
		sampler.SetGenerator(generator)
		o.log.Info("generator replaced", "channel", channelID, "sample_period", generator.SamplePeriod())
		return nil
	}

	o.samplers[channelID] = NewChannelSampler(channelID, generator, WithClock(o.clock))
	o.order = append(o.order, channelID)
	o.log.Info("channel registered", "channel", channelID, "sample_period", generator.SamplePeriod())
	return nil
}

// RegisterDetector registers a trigger detector. A detector registered for
// the same source channel replaces the previous one.
func (o *Orchestrator) RegisterDetector(detector TriggerDetector) {
	o.detectors[detector.SourceChannel()] = detector
	o.log.Info("detector registered",
		"source", detector.SourceChannel(),
		"destinations", detector.DestinationChannels(),
		"annotation", detector.Annotation().Type,
	)
}

// SetActivation changes a channel's activation state, writes the new state
// into the host model, and clears any published value when the channel is no
// longer On. Switching to On re-anchors pacing at "now".
func (o *Orchestrator) SetActivation(channelID string, state Activation) error {
	sampler, ok := o.samplers[channelID]
	if !ok {
		return &UnknownChannelError{ChannelID: channelID}
	}
	sampler.SetActivation(state)

	return o.manager.WithTransaction(func(tx Transaction) error {
		record, err := tx.Record(channelID)
		if err != nil {
			return err
		}
		record.Activation = state
		if !sampler.Active() {
			record.ClearValue()
		}
		return nil
	})
}

// Update runs one update cycle against the supplied transaction scope. The
// caller commits the transaction afterwards; on error the cycle must be
// discarded so partial writes never become visible.
func (o *Orchestrator) Update(ctx context.Context, tx Transaction) error {
	started := time.Now()
	ctx, span := coreTracer().Start(ctx, spanUpdate)
	defer span.End()

	err := o.update(ctx, tx)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.metrics.RecordCycle(status, time.Since(started))
	return err
}

func (o *Orchestrator) update(ctx context.Context, tx Transaction) error {
	// Phase one: every sampler produces this cycle's batch; active channels
	// are written into the host state. Inactive samplers still refresh their
	// empty-batch placeholder so the snapshot below never carries data from a
	// previous cycle.
	records := make(map[string]*StateRecord, len(o.order))
	active := 0
	for _, channelID := range o.order {
		sampler := o.samplers[channelID]
		if !sampler.Active() {
			if _, err := sampler.NextBatch(); err != nil {
				return &CycleError{ChannelID: channelID, Op: "sample", Cause: err}
			}
			continue
		}
		active++

		_, sampleSpan := coreTracer().Start(ctx, spanChannelSample,
			trace.WithAttributes(attribute.String("channel", channelID)))

		// Structural sample-period change must precede value writes.
		descriptor, err := tx.Descriptor(channelID)
		if err != nil {
			sampleSpan.End()
			return &CycleError{ChannelID: channelID, Op: "descriptor", Cause: err}
		}
		if descriptor.SamplePeriod != sampler.SamplePeriod() {
			descriptor.SamplePeriod = sampler.SamplePeriod()
		}

		batch, err := sampler.NextBatch()
		if err != nil {
			sampleSpan.End()
			return &CycleError{ChannelID: channelID, Op: "sample", Cause: err}
		}

		record, err := tx.Record(channelID)
		if err != nil {
			sampleSpan.End()
			return &CycleError{ChannelID: channelID, Op: "record", Cause: err}
		}
		record.ApplyBatch(batch)
		records[channelID] = record

		o.metrics.RecordSamples(channelID, len(batch.Samples))
		sampleSpan.End()
	}
	o.metrics.SetActiveChannels(active)

	// Phase two: snapshot channel -> current batch, then let every detector
	// annotate against the snapshot. Detectors are independent within a
	// cycle; each reads only its own source and mutates only its targets.
	snapshot := make(map[string]*SampleBatch, len(o.order))
	for _, channelID := range o.order {
		if batch := o.samplers[channelID].Current(); batch != nil {
			snapshot[channelID] = batch
		}
	}

	_, annotateSpan := coreTracer().Start(ctx, spanAnnotate)
	for source, detector := range o.detectors {
		sourceBatch, ok := snapshot[source]
		if !ok {
			// No sampler for this source this cycle: nothing to do.
			continue
		}
		timestamps := detector.TriggerTimestamps(sourceBatch)
		if len(timestamps) == 0 {
			continue
		}
		o.metrics.RecordTriggers(source, len(timestamps))
		for _, destination := range detector.DestinationChannels() {
			destinationBatch, ok := snapshot[destination]
			if !ok {
				continue
			}
			if destinationBatch.AttachAnnotation(detector.Annotation(), timestamps) {
				o.metrics.RecordAnnotation(destination)
			}
		}
	}
	annotateSpan.End()

	// Annotation attachment may have grown the batches' annotation slices
	// past the headers staged in phase one; re-stage them.
	for channelID, record := range records {
		batch := o.samplers[channelID].Current()
		record.Annotations = batch.Annotations
		record.AnnotationRefs = batch.AnnotationRefs
	}

	return nil
}

// Channels returns the registered channel ids in registration order.
func (o *Orchestrator) Channels() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Sampler returns the sampler registered for channelID, or nil.
func (o *Orchestrator) Sampler(channelID string) *ChannelSampler {
	return o.samplers[channelID]
}
