package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Store owns the State of every live session, keyed by session ID.
// Sessions never share state.
type Store struct {
	greeting Greeting
	idle     time.Duration
	sessions map[string]*State
	lastUsed map[string]time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// NewStore creates an empty Store that seeds new sessions with the greeting
// from cfg.
func NewStore(cfg *Config) *Store {
	greeting := DefaultConfig().Greeting
	var idle time.Duration
	if cfg != nil {
		greeting.Merge(&cfg.Greeting)
		idle = cfg.IdleTimeout
	}
	return &Store{
		greeting: greeting,
		idle:     idle,
		sessions: make(map[string]*State),
		lastUsed: make(map[string]time.Time),
		now:      time.Now,
	}
}

// NewID returns a fresh UUIDv7 session identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GetOrCreate returns the state for id, creating and seeding it on first use.
// An empty id creates a session under a fresh identifier. Calling it again for
// the same id never reseeds.
func (st *Store) GetOrCreate(id string) *State {
	if id == "" {
		id = NewID()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	st.lastUsed[id] = st.now()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := newState(id, st.greeting)
	st.sessions[id] = s
	return s
}

// Get returns the state for id if the session exists.
func (st *Store) Get(id string) (*State, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	return s, ok
}

// RecordTurn appends one exchange to the session history and both display
// logs as a single step and returns the recorded Turn.
func (st *Store) RecordTurn(s *State, question, answer string) Turn {
	t := Turn{
		ID:        ulid.Make().String(),
		Question:  question,
		Answer:    answer,
		CreatedAt: st.now(),
	}
	s.append(t)

	st.mu.Lock()
	if _, ok := st.sessions[s.id]; ok {
		st.lastUsed[s.id] = t.CreatedAt
	}
	st.mu.Unlock()
	return t
}

// End forgets a session and reports whether it existed. Subsequent
// GetOrCreate calls for the same id start over from the seeded greeting.
func (st *Store) End(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	_, ok := st.sessions[id]
	delete(st.sessions, id)
	delete(st.lastUsed, id)
	return ok
}

// EndIdle ends every session unused for longer than the configured idle
// timeout and returns how many were ended. Sessions with a turn in progress
// are kept.
func (st *Store) EndIdle() int {
	if st.idle <= 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-st.idle)
	ended := 0
	for id, s := range st.sessions {
		if len(s.turn) > 0 || !st.lastUsed[id].Before(cutoff) {
			continue
		}
		delete(st.sessions, id)
		delete(st.lastUsed, id)
		ended++
	}
	return ended
}

// RunExpiry calls EndIdle every half idle timeout until ctx is done. It
// returns immediately when no idle timeout is configured.
func (st *Store) RunExpiry(ctx context.Context) {
	if st.idle <= 0 {
		return
	}

	ticker := time.NewTicker(st.idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.EndIdle()
		}
	}
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
