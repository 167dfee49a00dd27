package eventbus

import (
	"context"
	"errors"
	"testing"
)

type recordingBus struct {
	subjects []string
	err      error
	closed   bool
}

func (b *recordingBus) Publish(_ context.Context, subject string, _ []byte) error {
	b.subjects = append(b.subjects, subject)
	return b.err
}

func (b *recordingBus) Close() error {
	b.closed = true
	return b.err
}

func TestFanoutPublishesToAllBuses(t *testing.T) {
	first := &recordingBus{}
	second := &recordingBus{}
	fanout := NewFanout(first, second)

	if err := fanout.Publish(context.Background(), "s", []byte("x")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(first.subjects) != 1 || len(second.subjects) != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", len(first.subjects), len(second.subjects))
	}
}

func TestFanoutContinuesPastFailure(t *testing.T) {
	cause := errors.New("redis down")
	failing := &recordingBus{err: cause}
	healthy := &recordingBus{}
	fanout := NewFanout(failing, healthy)

	err := fanout.Publish(context.Background(), "s", []byte("x"))
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want %v", err, cause)
	}
	if len(healthy.subjects) != 1 {
		t.Fatal("healthy bus skipped after earlier failure")
	}

	if err := fanout.Close(); !errors.Is(err, cause) {
		t.Fatalf("Close error = %v, want %v", err, cause)
	}
	if !healthy.closed {
		t.Fatal("healthy bus not closed")
	}
}
