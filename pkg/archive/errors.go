package archive

import "fmt"

// NotFoundError indicates no archived batch exists for the channel.
type NotFoundError struct {
	ChannelID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("archive: no batches for channel: %s", e.ChannelID)
}

// UnavailableError indicates the archive backend could not be opened.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("archive: unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// SerializationError indicates a failure serializing or deserializing an
// archived envelope.
type SerializationError struct {
	Operation string
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("archive: serialization error during %s: %v", e.Operation, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }
