// Package providers adapts chat requests to the wire format of a model host.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/tailored-agentic-units/dbchat/core/config"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown provider")

const defaultChatPath = "/v1/chat/completions"

// Provider knows where a model host lives and how to encode requests for it.
type Provider interface {
	Name() string
	BaseURL() string
	// Endpoint returns the full chat-completions URL.
	Endpoint() string
	// SetHeaders applies authentication and content headers to req.
	SetHeaders(req *http.Request)
	// MarshalChat encodes a chat request body.
	MarshalChat(data *ChatData) ([]byte, error)
}

// BaseProvider carries the fields common to all providers.
type BaseProvider struct {
	name    string
	baseURL string
}

// NewBaseProvider creates a BaseProvider. Trailing slashes are trimmed from
// baseURL.
func NewBaseProvider(name, baseURL string) *BaseProvider {
	return &BaseProvider{
		name:    name,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (p *BaseProvider) Name() string    { return p.name }
func (p *BaseProvider) BaseURL() string { return p.baseURL }

// OpenAI speaks the chat-completions format. Ollama, vLLM and most gateways
// accept the same format, so they share this implementation.
type OpenAI struct {
	*BaseProvider
	path   string
	apiKey string
}

// NewOpenAI creates an OpenAI-compatible provider. An empty path selects
// /v1/chat/completions.
func NewOpenAI(name, baseURL, path, apiKey string) *OpenAI {
	if strings.TrimSpace(path) == "" {
		path = defaultChatPath
	}
	return &OpenAI{
		BaseProvider: NewBaseProvider(name, baseURL),
		path:         path,
		apiKey:       apiKey,
	}
}

func (p *OpenAI) Endpoint() string {
	return p.baseURL + p.path
}

func (p *OpenAI) SetHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

func (p *OpenAI) MarshalChat(data *ChatData) ([]byte, error) {
	body := make(map[string]any, len(data.Options)+2)
	maps.Copy(body, data.Options)
	body["model"] = data.Model
	body["messages"] = data.Messages
	body["stream"] = false
	return json.Marshal(body)
}

// New creates a Provider from configuration.
func New(cfg *config.ProviderConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: missing provider config", ErrUnknownProvider)
	}
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	switch name {
	case "openai", "ollama", "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("provider %q: base_url is required", cfg.Name)
		}
		return NewOpenAI(name, cfg.BaseURL, cfg.Path, cfg.ResolveAPIKey()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Name)
	}
}
