// Package session maps opaque chat session identifiers to stable
// per-conversation user identities. A session id travels to and from the
// browser; the user identity it resolves to keys every piece of per-user
// state (conversation history, pending calls, authentication).
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store resolves session ids to user identities. Identities are minted on
// first sight and live until process restart. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	users map[string]string // session id -> user id
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{users: make(map[string]string)}
}

// Resolve returns the user identity for sessionID, creating both as needed.
// An empty sessionID mints a fresh session. The (possibly new) session id is
// returned so the caller can hand it back to the client.
func (s *Store) Resolve(sessionID string) (string, string) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uid, ok := s.users[sessionID]
	if !ok {
		uid = uuid.NewString()
		s.users[sessionID] = uid
	}
	return sessionID, uid
}

// Lookup returns the user identity for an existing session, without
// creating one. Used by the OTP verification endpoint, which must not
// mint identities for unknown sessions.
func (s *Store) Lookup(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.users[sessionID]
	return uid, ok
}

// Len reports the number of known sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
