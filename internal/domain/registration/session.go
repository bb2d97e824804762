package registration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("registration session not found")

// Session is one open wizard.
type Session struct {
	ID        uuid.UUID
	Form      *Form
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen is when the session was created or last fetched.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionStore keeps open wizards in memory and expires idle ones.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	newForm  func(id uuid.UUID) *Form
	now      func() time.Time
}

// NewSessionStore builds a store whose sessions get forms from newForm,
// which receives the new session's id.
// A zero ttl disables expiry.
func NewSessionStore(ttl time.Duration, newForm func(id uuid.UUID) *Form) *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		newForm:  newForm,
		now:      time.Now,
	}
}

func (s *SessionStore) Create() *Session {
	now := s.now()
	id := uuid.New()
	sess := &Session{
		ID:        id,
		Form:      s.newForm(id),
		CreatedAt: now,
		lastSeen:  now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *SessionStore) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *SessionStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the ttl. Sessions with a
// submission in flight are kept. Returns the number removed.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen()) > s.ttl && !sess.Form.Submitting() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
