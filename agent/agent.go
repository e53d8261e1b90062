// Package agent provides LLM agents that answer chat requests, plus a named
// registry for the agents a deployment configures.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/dbchat/agent/providers"
	"github.com/tailored-agentic-units/dbchat/core/config"
	"github.com/tailored-agentic-units/dbchat/core/protocol"
	"github.com/tailored-agentic-units/dbchat/core/response"
)

// maxErrorBody bounds how much of a failed response body is quoted in errors.
const maxErrorBody = 512

// Agent sends chat requests to a model.
type Agent interface {
	// ID returns a unique identifier for this agent instance.
	ID() string
	// SystemPrompt returns the configured system prompt, if any.
	SystemPrompt() string
	// Chat sends messages and returns the model's response. Each opts map is
	// merged over the configured model options.
	Chat(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*response.ChatResponse, error)
}

type httpAgent struct {
	id           string
	provider     providers.Provider
	model        string
	options      map[string]any
	systemPrompt string
	client       *http.Client
}

// New creates an Agent from configuration.
func New(cfg *config.AgentConfig) (Agent, error) {
	if cfg.Model == nil || cfg.Model.Name == "" {
		return nil, ErrMissingModel
	}

	provider, err := providers.New(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	return &httpAgent{
		id:           uuid.Must(uuid.NewV7()).String(),
		provider:     provider,
		model:        cfg.Model.Name,
		options:      maps.Clone(cfg.Model.Options),
		systemPrompt: cfg.SystemPrompt,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (a *httpAgent) ID() string {
	return a.id
}

func (a *httpAgent) SystemPrompt() string {
	return a.systemPrompt
}

func (a *httpAgent) Chat(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*response.ChatResponse, error) {
	options := maps.Clone(a.options)
	if options == nil {
		options = make(map[string]any)
	}
	for _, o := range opts {
		maps.Copy(options, o)
	}

	body, err := a.provider.MarshalChat(&providers.ChatData{
		Model:    a.model,
		Messages: messages,
		Options:  options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.provider.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	a.provider.SetHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: chat request failed: %w", a.provider.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read chat response: %w", a.provider.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, fmt.Errorf("%s: chat request returned %d: %s", a.provider.Name(), resp.StatusCode, bytes.TrimSpace(raw))
	}

	parsed, err := response.ParseChat(raw)
	if err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return parsed, nil
}
