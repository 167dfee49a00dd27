package eventbus

import (
	"context"
	"errors"
)

// Fanout publishes every event to multiple buses, e.g. the in-process memory
// bus plus a Redis bus for out-of-process consumers.
type Fanout struct {
	buses []Bus
}

// NewFanout creates a fanout over the given buses.
func NewFanout(buses ...Bus) *Fanout {
	return &Fanout{buses: buses}
}

// Publish publishes to every bus; all buses are attempted even when one
// fails, and the errors are joined.
func (f *Fanout) Publish(ctx context.Context, subject string, payload []byte) error {
	var errs []error
	for _, b := range f.buses {
		if err := b.Publish(ctx, subject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every bus.
func (f *Fanout) Close() error {
	var errs []error
	for _, b := range f.buses {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
