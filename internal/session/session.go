// Package session is the per-visitor login state: a logged-in flag plus the
// token and username returned by the auth backend, persisted so a reload keeps
// the visitor logged in.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

func TokenKey(clientID string) string    { return fmt.Sprintf("session:%s:token", clientID) }
func UsernameKey(clientID string) string { return fmt.Sprintf("session:%s:username", clientID) }

type Session struct {
	mu       sync.RWMutex
	clientID string
	storage  Storage
	loggedIn bool
	token    string
	username string
}

func New(clientID string, storage Storage) *Session {
	return &Session{clientID: clientID, storage: storage}
}

// Hydrate loads token and username from storage. A stored token means the
// visitor is logged in.
func (s *Session) Hydrate(ctx context.Context) error {
	token, err := s.storage.Get(ctx, TokenKey(s.clientID))
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("failed to read session token: %w", err)
	}
	username, err := s.storage.Get(ctx, UsernameKey(s.clientID))
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("failed to read session username: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.username = username
	s.loggedIn = token != ""
	return nil
}

// Login persists both values before flipping the in-memory flag. The token is
// written last since Hydrate treats it as the logged-in marker.
func (s *Session) Login(ctx context.Context, token, username string) error {
	if err := s.storage.Set(ctx, UsernameKey(s.clientID), username); err != nil {
		return fmt.Errorf("failed to store session username: %w", err)
	}
	if err := s.storage.Set(ctx, TokenKey(s.clientID), token); err != nil {
		s.storage.Delete(ctx, TokenKey(s.clientID), UsernameKey(s.clientID))
		return fmt.Errorf("failed to store session token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.username = username
	s.loggedIn = true
	return nil
}

// Logout clears memory and storage.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.loggedIn = false
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, TokenKey(s.clientID), UsernameKey(s.clientID)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Manager hands out one hydrated Session per client id.
type Manager struct {
	mu       sync.Mutex
	storage  Storage
	sessions map[string]*Session
}

func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage, sessions: make(map[string]*Session)}
}

func (m *Manager) Get(ctx context.Context, clientID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[clientID]; ok {
		return s, nil
	}

	s := New(clientID, m.storage)
	if err := s.Hydrate(ctx); err != nil {
		return nil, err
	}
	m.sessions[clientID] = s
	return s, nil
}

// Evict drops the cached session. Storage is untouched, so the next Get
// hydrates it again.
func (m *Manager) Evict(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, clientID)
}
