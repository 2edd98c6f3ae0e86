package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/stack-scanner/internal/links"
)

// ErrNotFound is returned by Store.Get for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Preview is what the user last uploaded, kept so the page can redraw it.
type Preview struct {
	Filename string
	DataURI  string
	Width    int
	Height   int
}

// State is the mutable part of a Session.
type State struct {
	Batch   Batch
	Preview *Preview
}

// Session is the state of one interactive user.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	lastSeen time.Time
}

// New creates a session with a random ID and an empty batch.
func New() *Session {
	return &Session{
		ID:       uuid.NewString(),
		lastSeen: time.Now(),
	}
}

// Do runs fn with exclusive access to the session state.
// Actions of one user run one at a time.
func (s *Session) Do(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	fn(&s.state)
}

// Records returns a copy of the current batch. Reads count as activity, so a
// user who only views the page keeps the session alive.
func (s *Session) Records() []links.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.state.Batch.All()
}

// Preview returns the last uploaded preview, or nil.
func (s *Session) Preview() *Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	if s.state.Preview == nil {
		return nil
	}
	p := *s.state.Preview
	return &p
}

// Len returns the number of records in the batch.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.state.Batch.Len()
}

// idleSince returns when the session was last used. A session that is busy
// right now reports ok == false.
func (s *Session) idleSince() (t time.Time, ok bool) {
	if !s.mu.TryLock() {
		return time.Time{}, false
	}
	defer s.mu.Unlock()
	return s.lastSeen, true
}

// Store keeps sessions by ID. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create starts a new session and registers it.
func (st *Store) Create() *Session {
	s := New()
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// The boolean is true when a new session was created.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, err := st.Get(id); err == nil {
			return s, false
		}
	}
	return st.Create(), true
}

// Delete ends a session, discarding its batch.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Prune ends every session idle for longer than maxIdle and returns how many
// were removed. Sessions in the middle of an action are kept.
func (st *Store) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if last, ok := s.idleSince(); ok && last.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
