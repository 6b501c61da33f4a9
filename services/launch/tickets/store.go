// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tickets implements the support-ticket engine: priority
// derivation, SLA deadlines, and idempotent escalation.
package tickets

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// ErrTicketNotFound is returned for operations on unknown ticket ids.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketStore abstracts ticket persistence. Mutate applies a
// read-modify-write as one logical transaction, which is what keeps
// concurrent escalation sweeps from double-bumping a ticket.
type TicketStore interface {
	// Get returns the ticket by id.
	Get(id string) (datatypes.SupportTicket, error)

	// Put inserts a new ticket.
	Put(ticket datatypes.SupportTicket) error

	// Mutate loads the ticket, applies fn under the store's write
	// exclusion, and persists the result. fn returning an error
	// aborts the mutation.
	Mutate(id string, fn func(*datatypes.SupportTicket) error) (datatypes.SupportTicket, error)

	// List returns all tickets sorted by creation time, oldest first.
	List() ([]datatypes.SupportTicket, error)

	// Delete removes a ticket.
	Delete(id string) error
}

// MemoryTicketStore is the in-process TicketStore.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]datatypes.SupportTicket
}

// NewMemoryTicketStore creates an empty store.
func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{tickets: make(map[string]datatypes.SupportTicket)}
}

// Get returns the ticket by id.
func (s *MemoryTicketStore) Get(id string) (datatypes.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return datatypes.SupportTicket{}, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return ticket, nil
}

// Put inserts a ticket.
func (s *MemoryTicketStore) Put(ticket datatypes.SupportTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.ID] = ticket
	return nil
}

// Mutate applies fn under the write lock.
func (s *MemoryTicketStore) Mutate(id string, fn func(*datatypes.SupportTicket) error) (datatypes.SupportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return datatypes.SupportTicket{}, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	if err := fn(&ticket); err != nil {
		return datatypes.SupportTicket{}, err
	}
	s.tickets[id] = ticket
	return ticket, nil
}

// List returns tickets sorted by creation time, oldest first.
func (s *MemoryTicketStore) List() ([]datatypes.SupportTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]datatypes.SupportTicket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a ticket.
func (s *MemoryTicketStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tickets, id)
	return nil
}

var _ TicketStore = (*MemoryTicketStore)(nil)
