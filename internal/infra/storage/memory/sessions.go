package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"elaview/internal/domain/session"
)

var ErrSessionExists = errors.New("memory: session already exists")

// SessionStore holds open booking sessions. Idle sessions older than TTL are
// treated as gone and purged lazily.
type SessionStore struct {
	mu    sync.Mutex
	items map[session.SessionID]*session.Session
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{items: make(map[session.SessionID]*session.Session), ttl: ttl, now: now}
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[sess.ID]; ok {
		return ErrSessionExists
	}
	s.items[sess.ID] = sess.Clone()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id session.SessionID) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// Update applies fn to a copy and keeps it only when fn succeeds.
func (s *SessionStore) Update(ctx context.Context, id session.SessionID, fn func(*session.Session) error) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.items[id] = next
	return next.Clone(), nil
}

func (s *SessionStore) Delete(ctx context.Context, id session.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return session.ErrSessionNotFound
	}
	delete(s.items, id)
	return nil
}

// Purge drops every expired session and reports how many went.
func (s *SessionStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, sess := range s.items {
		if sess.Expired(now, s.ttl) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) lookup(id session.SessionID) (*session.Session, error) {
	sess, ok := s.items[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	if sess.Expired(s.now(), s.ttl) {
		delete(s.items, id)
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

var _ session.Store = (*SessionStore)(nil)
