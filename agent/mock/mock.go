// Package mock provides a scriptable Agent for tests.
package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/dbchat/core/protocol"
	"github.com/tailored-agentic-units/dbchat/core/response"
)

// Option configures a MockAgent.
type Option func(*MockAgent)

// WithID sets the agent ID.
func WithID(id string) Option {
	return func(a *MockAgent) { a.id = id }
}

// WithSystemPrompt sets the system prompt reported by the agent.
func WithSystemPrompt(prompt string) Option {
	return func(a *MockAgent) { a.systemPrompt = prompt }
}

// WithResponse makes every Chat call return content.
func WithResponse(content string) Option {
	return func(a *MockAgent) {
		a.handler = func(context.Context, []protocol.Message) (string, error) { return content, nil }
	}
}

// WithError makes every Chat call fail with err.
func WithError(err error) Option {
	return func(a *MockAgent) {
		a.handler = func(context.Context, []protocol.Message) (string, error) { return "", err }
	}
}

// WithHandler computes each response from the request messages.
func WithHandler(h func(ctx context.Context, messages []protocol.Message) (string, error)) Option {
	return func(a *MockAgent) { a.handler = h }
}

// WithDelay sleeps before answering, honoring context cancellation.
func WithDelay(d time.Duration) Option {
	return func(a *MockAgent) { a.delay = d }
}

// MockAgent records calls and returns scripted responses.
type MockAgent struct {
	id           string
	systemPrompt string
	delay        time.Duration
	handler      func(ctx context.Context, messages []protocol.Message) (string, error)

	calls atomic.Int32
	mu    sync.Mutex
	last  []protocol.Message
}

// NewMockAgent creates a MockAgent that answers "mock response" by default.
func NewMockAgent(opts ...Option) *MockAgent {
	a := &MockAgent{id: "mock-agent"}
	WithResponse("mock response")(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *MockAgent) ID() string           { return a.id }
func (a *MockAgent) SystemPrompt() string { return a.systemPrompt }

// Calls returns how many times Chat was invoked.
func (a *MockAgent) Calls() int { return int(a.calls.Load()) }

// LastMessages returns the messages of the most recent Chat call.
func (a *MockAgent) LastMessages() []protocol.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]protocol.Message(nil), a.last...)
}

func (a *MockAgent) Chat(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*response.ChatResponse, error) {
	a.calls.Add(1)
	a.mu.Lock()
	a.last = append([]protocol.Message(nil), messages...)
	a.mu.Unlock()

	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	content, err := a.handler(ctx, messages)
	if err != nil {
		return nil, err
	}
	return response.NewChatResponse("mock", content), nil
}
