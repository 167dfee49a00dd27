package waveform

import "time"

// StateRecord is a channel's writable state inside a transaction scope.
// Mutations staged on the record become visible to the host model when the
// caller commits the transaction.
type StateRecord struct {
	ChannelID         string          `json:"channel_id"`
	Samples           []float64       `json:"samples"`
	DeterminationTime *float64        `json:"determination_time,omitempty"`
	Activation        Activation      `json:"activation"`
	Annotations       []Annotation    `json:"annotations,omitempty"`
	AnnotationRefs    []AnnotationRef `json:"annotation_refs,omitempty"`
}

// ClearValue removes any published numeric value from the record. Used when a
// channel is deactivated: no stale samples may remain attached to a state
// that is not On.
func (r *StateRecord) ClearValue() {
	r.Samples = nil
	r.DeterminationTime = nil
	r.Annotations = nil
	r.AnnotationRefs = nil
}

// ApplyBatch stages the batch's samples, timing, annotations and activation
// state onto the record.
func (r *StateRecord) ApplyBatch(batch *SampleBatch) {
	r.Samples = batch.Samples
	r.DeterminationTime = batch.DeterminationTime
	r.Annotations = batch.Annotations
	r.AnnotationRefs = batch.AnnotationRefs
	r.Activation = batch.Activation
}

// Descriptor is a channel's structural description. Changing SamplePeriod is
// a structural write that must be committed before value writes conforming to
// the new period.
type Descriptor struct {
	ChannelID    string        `json:"channel_id"`
	Label        string        `json:"label,omitempty"`
	Unit         string        `json:"unit,omitempty"`
	SamplePeriod time.Duration `json:"sample_period"`
}

// Transaction is the scoped write surface of the host device-state model. The
// host acquires and releases the scope; the core only stages writes through
// it. Both accessors return the staged, mutable copy for the channel.
type Transaction interface {
	// Record returns the writable state record for the channel.
	Record(channelID string) (*StateRecord, error)

	// Descriptor returns the writable structural descriptor for the channel.
	Descriptor(channelID string) (*Descriptor, error)
}

// TransactionManager opens commit-or-discard transaction scopes for
// operations that manage their own commit (registration and activation
// changes). fn's staged writes are committed if it returns nil and discarded
// otherwise.
type TransactionManager interface {
	WithTransaction(fn func(tx Transaction) error) error
}
