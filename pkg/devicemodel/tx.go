package devicemodel

import "github.com/waveline/waveline/pkg/waveform"

// Tx is one commit-or-discard transaction scope. It satisfies
// waveform.Transaction; both accessors hand out the staged mutable copy, so
// mutations made by the caller are picked up on Commit without further
// bookkeeping.
//
// A Tx is not safe for concurrent use and must be finished by exactly one
// Commit or Discard.
type Tx struct {
	model       *Model
	records     map[string]*waveform.StateRecord
	descriptors map[string]*waveform.Descriptor
	done        bool
}

// Record returns the staged, writable state record for the channel.
func (t *Tx) Record(channelID string) (*waveform.StateRecord, error) {
	if staged, ok := t.records[channelID]; ok {
		return staged, nil
	}
	t.model.mu.RLock()
	committed, ok := t.model.records[channelID]
	t.model.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Entity: "record", ChannelID: channelID}
	}
	staged := copyRecord(committed)
	t.records[channelID] = staged
	return staged, nil
}

// Descriptor returns the staged, writable structural descriptor for the
// channel.
func (t *Tx) Descriptor(channelID string) (*waveform.Descriptor, error) {
	if staged, ok := t.descriptors[channelID]; ok {
		return staged, nil
	}
	t.model.mu.RLock()
	committed, ok := t.model.descriptors[channelID]
	t.model.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Entity: "descriptor", ChannelID: channelID}
	}
	staged := *committed
	t.descriptors[channelID] = &staged
	return &staged, nil
}

// Commit applies all staged writes to the model and publishes one commit
// event per touched channel.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTransactionDone
	}
	t.done = true
	return t.model.commit(t)
}

// Discard drops all staged writes.
func (t *Tx) Discard() {
	t.done = true
	t.records = nil
	t.descriptors = nil
}
