package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerAdapter persists keys in an embedded Badger database.
// This is the default backend.
type BadgerAdapter struct {
	db     *badger.DB
	logger *slog.Logger
	notifier
}

// NewBadger opens (or creates) a Badger database at path.
func NewBadger(path string, logger *slog.Logger) (*BadgerAdapter, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("badger database opened", "path", path)
	}

	return &BadgerAdapter{db: db, logger: logger}, nil
}

// Get retrieves a value by key.
func (a *BadgerAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a value and notifies subscribers with the previous value.
func (a *BadgerAdapter) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var old []byte
	err := a.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == nil {
			old, err = item.ValueCopy(nil)
			if err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}

	a.notify(Change{Key: key, OldValue: old, NewValue: value})
	return nil
}

// Remove deletes a key. Removing a missing key is a no-op and emits no change.
func (a *BadgerAdapter) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var old []byte
	existed := false
	err := a.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		old, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger remove %s: %w", key, err)
	}

	if existed {
		a.notify(Change{Key: key, OldValue: old})
	}
	return nil
}

// Close closes the underlying database.
func (a *BadgerAdapter) Close() error {
	if a.logger != nil {
		a.logger.Info("closing badger database")
	}
	return a.db.Close()
}
