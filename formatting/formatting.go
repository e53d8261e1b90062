// Package formatting rewrites a raw query result into a natural-language
// answer.
package formatting

import (
	"context"
	"errors"
	"strings"

	"github.com/tailored-agentic-units/dbchat/agent"
	"github.com/tailored-agentic-units/dbchat/core/protocol"
)

// ErrEmptyAnswer is returned when the formatter produced no text.
var ErrEmptyAnswer = errors.New("formatter returned an empty answer")

// Service turns one composed prompt into an answer.
type Service interface {
	Format(ctx context.Context, prompt string) (string, error)
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc func(ctx context.Context, prompt string) (string, error)

func (f ServiceFunc) Format(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// AgentService formats with a single chat call per prompt.
type AgentService struct {
	agent agent.Agent
}

// NewAgentService creates an AgentService backed by a.
func NewAgentService(a agent.Agent) *AgentService {
	return &AgentService{agent: a}
}

func (s *AgentService) Format(ctx context.Context, prompt string) (string, error) {
	resp, err := s.agent.Chat(ctx, protocol.InitMessages(s.agent.SystemPrompt(), prompt))
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(resp.Content())
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
