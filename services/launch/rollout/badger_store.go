// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rollout

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// flagKeyPrefix namespaces flag keys inside the badger keyspace.
const flagKeyPrefix = "flag:"

// BadgerStore is a FlagStore backed by an embedded BadgerDB database.
// Flags survive process restarts; JSON values under "flag:{name}"
// keys. Badger transactions give Patch its read-modify-write
// atomicity.
//
// Thread Safety: safe for concurrent use; badger serializes
// conflicting writes.
type BadgerStore struct {
	db *badger.DB
}

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the directory for database files. Ignored when InMemory
	// is true.
	Path string

	// InMemory opens the database without disk persistence. Used in
	// tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives badger's internal log output. Nil disables it.
	Logger *slog.Logger
}

// OpenBadgerStore opens (creating if needed) a badger-backed flag
// store. The caller must Close it.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent flag store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create flag store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open flag store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the flag by name.
func (s *BadgerStore) Get(name string) (datatypes.FeatureFlag, error) {
	var flag datatypes.FeatureFlag
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(flagKeyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &flag)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return datatypes.FeatureFlag{}, fmt.Errorf("%w: %s", ErrFlagNotFound, name)
	}
	if err != nil {
		return datatypes.FeatureFlag{}, fmt.Errorf("get flag %s: %w", name, err)
	}
	return flag, nil
}

// Put creates or replaces a flag after validating it.
func (s *BadgerStore) Put(flag datatypes.FeatureFlag) error {
	if err := flag.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(flag)
	if err != nil {
		return fmt.Errorf("marshal flag %s: %w", flag.Name, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(flagKeyPrefix+flag.Name), data)
	})
	if err != nil {
		return fmt.Errorf("put flag %s: %w", flag.Name, err)
	}
	return nil
}

// Patch applies a partial update inside a single badger transaction.
func (s *BadgerStore) Patch(name string, patch datatypes.FlagPatch, now time.Time) (datatypes.FeatureFlag, error) {
	var flag datatypes.FeatureFlag
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(flagKeyPrefix + name)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &flag)
		}); err != nil {
			return err
		}
		patch.Apply(&flag, now)
		if err := flag.Validate(); err != nil {
			return err
		}
		data, err := json.Marshal(flag)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return datatypes.FeatureFlag{}, fmt.Errorf("%w: %s", ErrFlagNotFound, name)
	}
	if err != nil {
		return datatypes.FeatureFlag{}, fmt.Errorf("patch flag %s: %w", name, err)
	}
	return flag, nil
}

// List returns all flags sorted by name.
func (s *BadgerStore) List() ([]datatypes.FeatureFlag, error) {
	var out []datatypes.FeatureFlag
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(flagKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var flag datatypes.FeatureFlag
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &flag)
			}); err != nil {
				return err
			}
			out = append(out, flag)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a flag. Unknown names are not an error.
func (s *BadgerStore) Delete(name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(flagKeyPrefix + name))
	})
	if err != nil {
		return fmt.Errorf("delete flag %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ FlagStore = (*BadgerStore)(nil)

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
