// Package session holds the client's authentication state: the bearer
// token and the identity it resolves to. The store is shared by the
// REST client (reads the token per call) and the stream handshake; it
// is mutated only by explicit login and logout operations.
package session

import "sync"

// Store is the session state. The zero value is unauthenticated.
type Store struct {
	mu       sync.RWMutex
	token    string
	userID   string
	username string
}

// New returns an empty, unauthenticated store.
func New() *Store {
	return &Store{}
}

// SetCredential records the bearer token.
func (s *Store) SetCredential(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Credential returns the bearer token and whether one is present.
func (s *Store) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Authenticated reports whether a credential is present.
func (s *Store) Authenticated() bool {
	_, ok := s.Credential()
	return ok
}

// SetIdentity records the authenticated user.
func (s *Store) SetIdentity(userID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.username = username
}

// UserID returns the current user id, or "" when unknown.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Username returns the current username, or "" when unknown.
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Clear drops the credential and identity.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.userID = ""
	s.username = ""
}
