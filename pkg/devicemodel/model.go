// Package devicemodel provides the in-process device-state model that the
// waveform core writes into. It holds one state record and one structural
// descriptor per channel, hands out commit-or-discard transaction scopes, and
// publishes one event per touched channel on commit.
package devicemodel

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/waveline/waveline/pkg/eventbus"
	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/waveform"
)

// Model is the in-memory device-state model.
type Model struct {
	mu          sync.RWMutex
	records     map[string]*waveform.StateRecord
	descriptors map[string]*waveform.Descriptor
	sequence    uint64

	bus eventbus.Bus
	log logger.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithBus attaches a commit-notification bus.
func WithBus(bus eventbus.Bus) Option {
	return func(m *Model) { m.bus = bus }
}

// WithModelLogger sets the model's logger.
func WithModelLogger(log logger.Logger) Option {
	return func(m *Model) { m.log = log }
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		records:     make(map[string]*waveform.StateRecord),
		descriptors: make(map[string]*waveform.Descriptor),
		log:         logger.Global(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddChannel declares a channel with its structural descriptor and an empty,
// inactive state record.
func (m *Model) AddChannel(descriptor waveform.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.descriptors[descriptor.ChannelID]; exists {
		return &DuplicateChannelError{ChannelID: descriptor.ChannelID}
	}
	d := descriptor
	m.descriptors[descriptor.ChannelID] = &d
	m.records[descriptor.ChannelID] = &waveform.StateRecord{
		ChannelID:  descriptor.ChannelID,
		Activation: waveform.ActivationOff,
	}
	m.log.Info("channel added", "channel", descriptor.ChannelID, "sample_period", descriptor.SamplePeriod)
	return nil
}

// Channels returns all declared channel ids.
func (m *Model) Channels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.records))
	for id := range m.records {
		out = append(out, id)
	}
	return out
}

// Record returns a copy of a channel's committed state record.
func (m *Model) Record(channelID string) (waveform.StateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[channelID]
	if !ok {
		return waveform.StateRecord{}, &NotFoundError{Entity: "record", ChannelID: channelID}
	}
	return *copyRecord(record), nil
}

// Descriptor returns a copy of a channel's committed descriptor.
func (m *Model) Descriptor(channelID string) (waveform.Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	descriptor, ok := m.descriptors[channelID]
	if !ok {
		return waveform.Descriptor{}, &NotFoundError{Entity: "descriptor", ChannelID: channelID}
	}
	return *descriptor, nil
}

// Begin opens a transaction scope. Reads within the scope see committed state
// plus the scope's own staged writes; nothing becomes visible to other
// readers until Commit.
func (m *Model) Begin() *Tx {
	return &Tx{
		model:       m,
		records:     make(map[string]*waveform.StateRecord),
		descriptors: make(map[string]*waveform.Descriptor),
	}
}

// WithTransaction implements waveform.TransactionManager: fn's staged writes
// are committed if it returns nil and discarded otherwise.
func (m *Model) WithTransaction(fn func(tx waveform.Transaction) error) error {
	tx := m.Begin()
	if err := fn(tx); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}

// commit applies staged writes and publishes commit events.
func (m *Model) commit(tx *Tx) error {
	m.mu.Lock()
	type committed struct {
		record   *waveform.StateRecord
		sequence uint64
	}
	events := make([]committed, 0, len(tx.records))
	for id, staged := range tx.records {
		m.records[id] = staged
		m.sequence++
		events = append(events, committed{record: staged, sequence: m.sequence})
	}
	for id, staged := range tx.descriptors {
		m.descriptors[id] = staged
	}
	m.mu.Unlock()

	if m.bus == nil {
		return nil
	}
	for _, ev := range events {
		envelope, err := eventbus.BuildEnvelope(eventbus.BuildEnvelopeInput{
			EventType: eventbus.EventBatchCommitted,
			ChannelID: ev.record.ChannelID,
			Sequence:  ev.sequence,
			Payload:   ev.record,
		})
		if err != nil {
			return err
		}
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		subject := eventbus.BatchSubject(ev.record.ChannelID)
		if err := m.bus.Publish(context.Background(), subject, payload); err != nil {
			m.log.Warn("commit event publish failed", "subject", subject, "error", err)
		}
	}
	return nil
}

func copyRecord(r *waveform.StateRecord) *waveform.StateRecord {
	c := *r
	c.Samples = append([]float64(nil), r.Samples...)
	c.Annotations = append([]waveform.Annotation(nil), r.Annotations...)
	c.AnnotationRefs = append([]waveform.AnnotationRef(nil), r.AnnotationRefs...)
	if r.DeterminationTime != nil {
		dt := *r.DeterminationTime
		c.DeterminationTime = &dt
	}
	return &c
}
