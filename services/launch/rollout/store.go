// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rollout implements the progressive-rollout engine: flag
// storage and the deterministic enable/disable decision.
package rollout

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// ErrFlagNotFound is returned for reads and patches of unknown flags.
var ErrFlagNotFound = errors.New("flag not found")

// FlagStore abstracts flag persistence so a durable backend can be
// swapped in without touching the engine. All implementations must
// support concurrent readers with serialized writers per flag, and
// must reject flags that fail Validate.
type FlagStore interface {
	// Get returns the flag by name.
	Get(name string) (datatypes.FeatureFlag, error)

	// Put creates or replaces a flag.
	Put(flag datatypes.FeatureFlag) error

	// Patch applies a partial update as a single read-modify-write.
	Patch(name string, patch datatypes.FlagPatch, now time.Time) (datatypes.FeatureFlag, error)

	// List returns all flags sorted by name.
	List() ([]datatypes.FeatureFlag, error)

	// Delete removes a flag. Deleting an unknown flag is not an error.
	Delete(name string) error

	// Close releases backend resources.
	Close() error
}

// MemoryStore is the default in-process FlagStore: an RWMutex-guarded
// map, safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]datatypes.FeatureFlag
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]datatypes.FeatureFlag)}
}

// Get returns the flag by name.
func (s *MemoryStore) Get(name string) (datatypes.FeatureFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flag, ok := s.flags[name]
	if !ok {
		return datatypes.FeatureFlag{}, fmt.Errorf("%w: %s", ErrFlagNotFound, name)
	}
	return flag, nil
}

// Put creates or replaces a flag after validating it.
func (s *MemoryStore) Put(flag datatypes.FeatureFlag) error {
	if err := flag.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flag.Name] = flag
	return nil
}

// Patch applies a partial update under the write lock so concurrent
// patches cannot lose updates.
func (s *MemoryStore) Patch(name string, patch datatypes.FlagPatch, now time.Time) (datatypes.FeatureFlag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flag, ok := s.flags[name]
	if !ok {
		return datatypes.FeatureFlag{}, fmt.Errorf("%w: %s", ErrFlagNotFound, name)
	}
	patch.Apply(&flag, now)
	if err := flag.Validate(); err != nil {
		return datatypes.FeatureFlag{}, err
	}
	s.flags[name] = flag
	return flag, nil
}

// List returns all flags sorted by name.
func (s *MemoryStore) List() ([]datatypes.FeatureFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]datatypes.FeatureFlag, 0, len(s.flags))
	for _, flag := range s.flags {
		out = append(out, flag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a flag.
func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, name)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

var _ FlagStore = (*MemoryStore)(nil)
