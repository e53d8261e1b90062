// Package session holds per-session conversation state for the chat
// orchestrator: the ordered turn history and the two display logs read by the
// chat surface.
package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Turn is one completed question/answer exchange. Turns are immutable once
// recorded and ordered chronologically within a session.
type Turn struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange is one line of the chat transcript as shown to the user.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// State is the mutable store of a single session. The display logs are seeded
// with one greeting pair that has no corresponding Turn, so
// len(DisplayedQuestions) == len(DisplayedAnswers) == len(History)+1 always
// holds. All methods are safe for concurrent use.
type State struct {
	id        string
	history   []Turn
	questions []string
	answers   []string
	mu        sync.RWMutex

	// turn is a one-slot semaphore that serializes Submit calls on this session.
	turn chan struct{}
}

func newState(id string, greeting Greeting) *State {
	return &State{
		id:        id,
		questions: []string{greeting.Question},
		answers:   []string{greeting.Answer},
		turn:      make(chan struct{}, 1),
	}
}

// ID returns the session identifier.
func (s *State) ID() string {
	return s.id
}

// History returns a copy of the recorded turns in chronological order.
func (s *State) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// Len returns the number of recorded turns.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// DisplayedQuestions returns a copy of the question log shown by the chat
// surface, starting with the seeded greeting.
func (s *State) DisplayedQuestions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.questions)
}

// DisplayedAnswers returns a copy of the answer log shown by the chat surface,
// starting with the seeded greeting.
func (s *State) DisplayedAnswers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.answers)
}

// Transcript returns the index-aligned display logs as pairs.
func (s *State) Transcript() []Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Exchange, len(s.questions))
	for i := range s.questions {
		out[i] = Exchange{Question: s.questions[i], Answer: s.answers[i]}
	}
	return out
}

// Acquire takes exclusive ownership of the session for one turn. The returned
// func releases it. Acquire fails only if ctx is done before the session
// becomes free.
func (s *State) Acquire(ctx context.Context) (func(), error) {
	select {
	case s.turn <- struct{}{}:
		return func() { <-s.turn }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *State) append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, t)
	s.questions = append(s.questions, t.Question)
	s.answers = append(s.answers, t.Answer)
}
