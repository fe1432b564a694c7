package interview

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoActiveInterview is returned when an operation references a session
// token that does not exist or has expired.
var ErrNoActiveInterview = errors.New("no active interview")

const defaultSessionTTL = 2 * time.Hour

// Session is the ephemeral per-interview state. It lives only in the session
// store and is destroyed on termination or completion; it is never persisted.
// All mutation happens under mu, taken by the store on behalf of callers.
type Session struct {
	mu sync.Mutex

	Token           string
	ApplicationID   uint
	JobRequirements string

	TabSwitchCount  int
	LastTabSwitch   time.Time
	ProctoringFlags []string

	terminated bool
	expiresAt  time.Time
}

// SessionStore maps opaque tokens to live interview sessions. Mutations on
// one session are serialized by its own lock, so concurrent requests for
// different interviews never contend with each other.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty session store. A non-positive ttl falls
// back to the default session lifetime.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session for an application, snapshotting the job
// requirements so later job edits do not change a running interview.
func (s *SessionStore) Create(applicationID uint, jobRequirements string) *Session {
	session := &Session{
		Token:           uuid.NewString(),
		ApplicationID:   applicationID,
		JobRequirements: jobRequirements,
		expiresAt:       s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// Get resolves a token to its live session. Expired sessions are reaped and
// reported as ErrNoActiveInterview.
func (s *SessionStore) Get(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNoActiveInterview
	}

	if s.now().After(session.expiresAt) {
		s.Destroy(token)
		return nil, ErrNoActiveInterview
	}

	return session, nil
}

// Destroy removes a session. Destroying an unknown token is a no-op.
func (s *SessionStore) Destroy(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Len reports the number of live sessions. Used by tests and diagnostics.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
