package eventbus

import (
	"encoding/json"
	"testing"
)

func TestBuildEnvelope(t *testing.T) {
	envelope, err := BuildEnvelope(BuildEnvelopeInput{
		EventType: EventBatchCommitted,
		ChannelID: "ecg",
		Sequence:  42,
		Payload:   map[string]int{"samples": 3},
	})
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}

	if envelope.EventID == "" {
		t.Fatal("no event id generated")
	}
	if envelope.SchemaVersion != SchemaVersionV1 {
		t.Fatalf("schema version = %q, want %q", envelope.SchemaVersion, SchemaVersionV1)
	}
	if envelope.ChannelID != "ecg" || envelope.Sequence != 42 {
		t.Fatalf("envelope = %+v", envelope)
	}
	if envelope.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	var payload map[string]int
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["samples"] != 3 {
		t.Fatalf("payload = %v", payload)
	}
}

func TestBuildEnvelopeValidation(t *testing.T) {
	if _, err := BuildEnvelope(BuildEnvelopeInput{ChannelID: "ecg"}); err == nil {
		t.Fatal("missing event type accepted")
	}
	if _, err := BuildEnvelope(BuildEnvelopeInput{EventType: EventBatchCommitted}); err == nil {
		t.Fatal("missing channel id accepted")
	}
}

func TestBatchSubject(t *testing.T) {
	if got := BatchSubject("ecg"); got != "waveform.batch.ecg" {
		t.Fatalf("BatchSubject = %q", got)
	}
}
