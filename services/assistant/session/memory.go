// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session holds the per-user conversation memory.
//
// # Description
//
// The store maps a user identifier to its ordered turn history. Entries are
// created lazily on first append, mutated only by appending complete
// (user, assistant) turn pairs, and torn down only by an explicit Reset.
// Lifetime is the process lifetime.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The transport is expected to
// serialize turns within one user (one read loop per connection), so no
// per-key write ordering beyond the mutex is needed.
package session

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

// Store is the process-wide session memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]datatypes.Message
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string][]datatypes.Message),
	}
}

// History returns a copy of the user's turn sequence in arrival order.
// Unknown users get an empty slice, never an error: a missing session is
// simply a conversation that has not started.
func (s *Store) History(userID string) []datatypes.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[userID]
	out := make([]datatypes.Message, len(turns))
	copy(out, turns)
	return out
}

// AppendTurn appends one completed (user, assistant) pair atomically. The
// pair is the only unit of mutation: a turn that degraded to a fallback
// answer is still appended, so the history never has a dangling question.
func (s *Store) AppendTurn(userID, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = append(s.sessions[userID],
		datatypes.Message{Role: datatypes.RoleUser, Content: userText},
		datatypes.Message{Role: datatypes.RoleAssistant, Content: assistantText},
	)
}

// Reset discards the history for the given user. Idempotent: resetting an
// absent user is a no-op.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[userID]; ok {
		delete(s.sessions, userID)
		slog.Info("Session memory reset", "userID", userID)
	}
}

// TurnCount returns the number of stored messages for the user.
func (s *Store) TurnCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[userID])
}

// ActiveUsers lists the identifiers with at least one stored turn, sorted
// for stable output in the admin endpoint.
func (s *Store) ActiveUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}
