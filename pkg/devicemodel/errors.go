package devicemodel

import (
	"errors"
	"fmt"
)

// ErrTransactionDone is returned when a finished transaction is committed
// again.
var ErrTransactionDone = errors.New("devicemodel: transaction already finished")

// NotFoundError indicates that the requested channel entity does not exist.
type NotFoundError struct {
	Entity    string
	ChannelID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("devicemodel: %s not found: %s", e.Entity, e.ChannelID)
}

// DuplicateChannelError indicates that a channel id is already declared.
type DuplicateChannelError struct {
	ChannelID string
}

func (e *DuplicateChannelError) Error() string {
	return fmt.Sprintf("devicemodel: channel already exists: %s", e.ChannelID)
}
