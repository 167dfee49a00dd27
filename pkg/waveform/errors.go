package waveform

import (
	"errors"
	"fmt"
)

// ErrNegativeSampleCount is returned by generators asked for a negative
// number of samples.
var ErrNegativeSampleCount = errors.New("waveform: negative sample count")

// ErrNilGenerator is returned when a channel is registered without a
// generator.
var ErrNilGenerator = errors.New("waveform: generator is nil")

// UnknownChannelError indicates an operation referenced a channel id with no
// registered sampler.
type UnknownChannelError struct {
	ChannelID string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("waveform: unknown channel: %s", e.ChannelID)
}

// CycleError wraps a failure that aborted one update cycle, identifying the
// channel being processed when it occurred.
type CycleError struct {
	ChannelID string
	Op        string
	Cause     error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("waveform: update cycle failed during %s on channel %s: %v", e.Op, e.ChannelID, e.Cause)
}

func (e *CycleError) Unwrap() error { return e.Cause }
