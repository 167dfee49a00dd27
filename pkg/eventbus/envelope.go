// Package eventbus carries commit notifications out of the device-state
// model: every committed waveform batch is published as one event on a
// channel-scoped subject.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the initial batch event schema.
	SchemaVersionV1 = "v1"

	// EventBatchCommitted is published once per channel touched by a
	// committed transaction.
	EventBatchCommitted = "batch.committed"
)

// SubjectPrefix is the root of all waveform subjects.
const SubjectPrefix = "waveform"

// BatchSubject returns the subject batch events for channelID are published
// on.
func BatchSubject(channelID string) string {
	return fmt.Sprintf("%s.batch.%s", SubjectPrefix, channelID)
}

// Envelope is the canonical commit event envelope.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	ChannelID     string          `json:"channel_id"`
	Sequence      uint64          `json:"sequence"`
	Payload       json.RawMessage `json:"payload"`
}

// BuildEnvelopeInput is used to construct a new envelope.
type BuildEnvelopeInput struct {
	EventType     string
	SchemaVersion string
	ChannelID     string
	Sequence      uint64
	Payload       any
}

// BuildEnvelope creates a canonical envelope with generated event identity.
func BuildEnvelope(input BuildEnvelopeInput) (Envelope, error) {
	if input.EventType == "" {
		return Envelope{}, fmt.Errorf("eventbus: event type is required")
	}
	if input.ChannelID == "" {
		return Envelope{}, fmt.Errorf("eventbus: channel id is required")
	}
	if input.SchemaVersion == "" {
		input.SchemaVersion = SchemaVersionV1
	}

	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("eventbus: marshal payload: %w", err)
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     input.EventType,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: input.SchemaVersion,
		ChannelID:     input.ChannelID,
		Sequence:      input.Sequence,
		Payload:       payload,
	}, nil
}
