// Package session holds the client's authentication state.
//
// A Store is the single source of truth for "is a user logged in". There is
// exactly one per client instance; it is created unauthenticated and passed
// explicitly to everything that reads or changes it.
package session

import (
	"errors"
	"strings"
	"sync"
)

var ErrEmptyIdentifier = errors.New("empty user identifier")

// Session is a point-in-time copy of the authentication state.
// Authenticated is true exactly when Identifier is non-empty.
type Session struct {
	Identifier    string
	Authenticated bool
}

// Store holds the current Session and notifies subscribers on change.
type Store struct {
	mu         sync.RWMutex
	identifier string

	subMu  sync.Mutex
	subs   map[int]chan Session
	nextID int
}

// NewStore returns an unauthenticated store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan Session)}
}

// Login marks identifier as the authenticated user.
func (s *Store) Login(identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	s.mu.Lock()
	s.identifier = identifier
	s.mu.Unlock()
	s.publish()
	return nil
}

// Logout clears the session. Logging out twice is harmless.
func (s *Store) Logout() {
	s.mu.Lock()
	s.identifier = ""
	s.mu.Unlock()
	s.publish()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identifier != ""
}

// Identifier returns the logged-in user, if any.
func (s *Store) Identifier() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identifier, s.identifier != ""
}

// Current returns a copy of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Identifier: s.identifier, Authenticated: s.identifier != ""}
}

// Subscribe returns a channel that receives the session after every change.
// Slow readers only see the latest value. The returned func unsubscribes
// and closes the channel.
func (s *Store) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	current := s.Current()
	for _, ch := range s.subs {
		// Drop a stale pending value so the newest state always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- current:
		default:
		}
	}
}
