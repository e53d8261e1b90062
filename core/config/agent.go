// Package config defines configuration shared by agent-backed subsystems.
package config

import (
	"maps"
	"os"
	"time"
)

// ProviderConfig identifies the endpoint an agent talks to.
type ProviderConfig struct {
	Name      string `json:"name" mapstructure:"name"`                         // "openai", "ollama"
	BaseURL   string `json:"base_url" mapstructure:"base_url"`                 // e.g. http://localhost:11434
	Path      string `json:"path,omitempty" mapstructure:"path"`               // defaults to /v1/chat/completions
	APIKey    string `json:"api_key,omitempty" mapstructure:"api_key"`         // inline key, prefer APIKeyEnv
	APIKeyEnv string `json:"api_key_env,omitempty" mapstructure:"api_key_env"` // environment variable holding the key
}

// ResolveAPIKey returns the inline key, falling back to the environment.
func (p *ProviderConfig) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

// ModelConfig selects the model and default request options.
type ModelConfig struct {
	Name    string         `json:"name" mapstructure:"name"`
	Options map[string]any `json:"options,omitempty" mapstructure:"options"` // merged into each request body
}

// AgentConfig holds everything needed to instantiate an agent.
type AgentConfig struct {
	Name         string          `json:"name,omitempty" mapstructure:"name"`
	SystemPrompt string          `json:"system_prompt,omitempty" mapstructure:"system_prompt"`
	Timeout      time.Duration   `json:"timeout,omitempty" mapstructure:"timeout"`
	Provider     *ProviderConfig `json:"provider,omitempty" mapstructure:"provider"`
	Model        *ModelConfig    `json:"model,omitempty" mapstructure:"model"`
}

// DefaultAgentConfig returns an agent pointed at a local Ollama server.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Timeout: 2 * time.Minute,
		Provider: &ProviderConfig{
			Name:    "ollama",
			BaseURL: "http://localhost:11434",
		},
		Model: &ModelConfig{
			Name: "llama3.1:8b",
		},
	}
}

// Clone returns a copy of c that shares no pointers with it.
func (c AgentConfig) Clone() AgentConfig {
	if c.Provider != nil {
		p := *c.Provider
		c.Provider = &p
	}
	if c.Model != nil {
		m := *c.Model
		m.Options = maps.Clone(m.Options)
		c.Model = &m
	}
	return c
}

// Merge applies non-zero values from source into c.
func (c *AgentConfig) Merge(source *AgentConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}

	if source.Provider != nil {
		if c.Provider == nil {
			c.Provider = &ProviderConfig{}
		}
		p := source.Provider
		if p.Name != "" {
			c.Provider.Name = p.Name
		}
		if p.BaseURL != "" {
			c.Provider.BaseURL = p.BaseURL
		}
		if p.Path != "" {
			c.Provider.Path = p.Path
		}
		if p.APIKey != "" {
			c.Provider.APIKey = p.APIKey
		}
		if p.APIKeyEnv != "" {
			c.Provider.APIKeyEnv = p.APIKeyEnv
		}
	}

	if source.Model != nil {
		if c.Model == nil {
			c.Model = &ModelConfig{}
		}
		if source.Model.Name != "" {
			c.Model.Name = source.Model.Name
		}
		if len(source.Model.Options) > 0 {
			c.Model.Options = source.Model.Options
		}
	}
}
