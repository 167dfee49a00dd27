// Package archive persists committed waveform batch events to Badger so
// recent waveform history can be inspected and replayed.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/waveline/waveline/pkg/eventbus"
	"github.com/waveline/waveline/pkg/logger"
)

// Config holds configuration for the archive.
type Config struct {
	Path             string
	SyncWrites       bool
	ValueLogFileSize int64
}

// Archive is a Badger-backed store of commit event envelopes, keyed by
// channel and commit sequence.
type Archive struct {
	db  *badger.DB
	log logger.Logger
}

// New opens (or creates) the archive at cfg.Path.
func New(cfg Config, log logger.Logger) (*Archive, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &UnavailableError{Cause: err}
	}
	if log == nil {
		log = logger.Global()
	}
	return &Archive{db: db, log: log}, nil
}

func batchKey(channelID string, sequence uint64) []byte {
	return []byte(fmt.Sprintf("batch:%s:%020d", channelID, sequence))
}

func channelPrefix(channelID string) []byte {
	return []byte(fmt.Sprintf("batch:%s:", channelID))
}

// Save stores one commit event envelope.
func (a *Archive) Save(envelope eventbus.Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return &SerializationError{Operation: "marshal", Cause: err}
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(batchKey(envelope.ChannelID, envelope.Sequence), data)
	})
}

// Latest returns the most recently committed envelope for a channel.
func (a *Archive) Latest(channelID string) (eventbus.Envelope, error) {
	var envelope eventbus.Envelope
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = channelPrefix(channelID)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts just past the prefix range.
		seek := append(channelPrefix(channelID), 0xff)
		it.Seek(seek)
		if !it.ValidForPrefix(channelPrefix(channelID)) {
			return &NotFoundError{ChannelID: channelID}
		}
		return it.Item().Value(func(val []byte) error {
			if err := json.Unmarshal(val, &envelope); err != nil {
				return &SerializationError{Operation: "unmarshal", Cause: err}
			}
			return nil
		})
	})
	return envelope, err
}

// Range returns envelopes for a channel with fromSeq <= sequence <= toSeq, in
// ascending sequence order.
func (a *Archive) Range(channelID string, fromSeq, toSeq uint64) ([]eventbus.Envelope, error) {
	var out []eventbus.Envelope
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = channelPrefix(channelID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(batchKey(channelID, fromSeq)); it.ValidForPrefix(channelPrefix(channelID)); it.Next() {
			var envelope eventbus.Envelope
			err := it.Item().Value(func(val []byte) error {
				if err := json.Unmarshal(val, &envelope); err != nil {
					return &SerializationError{Operation: "unmarshal", Cause: err}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if envelope.Sequence > toSeq {
				break
			}
			out = append(out, envelope)
		}
		return nil
	})
	return out, err
}

// Consume archives every message arriving on msgs until ctx is done or the
// channel closes. Malformed messages are logged and skipped.
func (a *Archive) Consume(ctx context.Context, msgs <-chan eventbus.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var envelope eventbus.Envelope
			if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
				a.log.Warn("archive: dropping malformed event", "subject", msg.Subject, "error", err)
				continue
			}
			if err := a.Save(envelope); err != nil {
				a.log.Error("archive: save failed", "channel", envelope.ChannelID, "error", err)
			}
		}
	}
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
