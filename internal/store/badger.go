package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/models"
)

const meetingKeyPrefix = "meeting:"

// Badger is a Store implementation backed by BadgerDB v4. Records are stored
// as JSON under a "meeting:" key prefix.
type Badger struct {
	db *badger.DB
}

var _ Store = (*Badger)(nil)

// NewBadger opens (or creates) a BadgerDB-backed store.
func NewBadger(cfg config.StoreConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("store: dir is required for on-disk mode")
	}

	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Badger{db: db}, nil
}

func meetingKey(id string) []byte {
	return []byte(meetingKeyPrefix + id)
}

func (b *Badger) Create(_ context.Context, meeting models.Meeting) error {
	data, err := json.Marshal(meeting)
	if err != nil {
		return fmt.Errorf("marshal meeting: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(meetingKey(meeting.ID), data)
	})
}

func (b *Badger) Get(_ context.Context, id string) (models.Meeting, error) {
	var meeting models.Meeting
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(meetingKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meeting)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Meeting{}, ErrNotFound
	}
	if err != nil {
		return models.Meeting{}, fmt.Errorf("get meeting %s: %w", id, err)
	}
	return meeting, nil
}

// Update applies a partial update inside a single transaction so the
// read-modify-write cannot interleave with another store-level update.
func (b *Badger) Update(_ context.Context, id string, update models.MeetingUpdate) error {
	if update.Empty() {
		return nil
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(meetingKey(id))
		if err != nil {
			return err
		}
		var meeting models.Meeting
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meeting)
		}); err != nil {
			return err
		}

		applyUpdate(&meeting, update)

		data, err := json.Marshal(meeting)
		if err != nil {
			return err
		}
		return txn.Set(meetingKey(id), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update meeting %s: %w", id, err)
	}
	return nil
}

func (b *Badger) Delete(_ context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(meetingKey(id))
	})
	if err != nil {
		return fmt.Errorf("delete meeting %s: %w", id, err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
