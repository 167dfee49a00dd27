// Package waveform implements the real-time waveform sampling and annotation
// core of Waveline.
//
// The host drives the core by calling Orchestrator.Update periodically with a
// scoped transaction. One update cycle pulls fresh samples from every active
// channel, writes them into the host state, then cross-annotates the freshly
// generated batches based on the registered trigger detectors. The core spawns
// no background work; all state is owned by long-lived component instances and
// the host must serialize cycles (at most one in-flight Update per
// Orchestrator).
package waveform

import (
	"fmt"
	"time"
)

// Activation is the operational state of a channel. Only an On channel
// produces samples.
type Activation int

const (
	ActivationOn Activation = iota
	ActivationOff
	ActivationStandby
	ActivationNotReady
	ActivationFailure
)

// String returns the string representation of the activation state.
func (a Activation) String() string {
	switch a {
	case ActivationOn:
		return "on"
	case ActivationOff:
		return "off"
	case ActivationStandby:
		return "standby"
	case ActivationNotReady:
		return "not_ready"
	case ActivationFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ParseActivation parses an activation state string.
func ParseActivation(s string) (Activation, error) {
	switch s {
	case "on":
		return ActivationOn, nil
	case "off":
		return ActivationOff, nil
	case "standby":
		return ActivationStandby, nil
	case "not_ready", "notready":
		return ActivationNotReady, nil
	case "failure":
		return ActivationFailure, nil
	default:
		return ActivationOff, fmt.Errorf("waveform: unknown activation state %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Activation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Activation) UnmarshalText(text []byte) error {
	parsed, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Annotation is an opaque marker payload attached to waveform samples, used
// to flag events (e.g. trigger crossings) correlated across channels.
type Annotation struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

// AnnotationRef applies one annotation at one sample index. AnnotationIndex
// references an entry in the batch's Annotations slice; SampleIndex references
// a position in the batch's Samples slice. Both are always valid for the
// lifetime of the batch.
type AnnotationRef struct {
	AnnotationIndex int `json:"annotation_index"`
	SampleIndex     int `json:"sample_index"`
}

// Clock supplies the current time. The default implementation reads the wall
// clock; tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// unixSeconds converts t to fractional unix seconds, the timestamp
// representation used throughout the sampling core.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
