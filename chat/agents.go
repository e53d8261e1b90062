package chat

import (
	"fmt"

	"github.com/tailored-agentic-units/dbchat/agent"
	"github.com/tailored-agentic-units/dbchat/core/config"
)

// Agent roles registered by NewAgentRegistry.
const (
	AgentTranslator = "translator"
	AgentFormatter  = "formatter"
)

// NewAgentRegistry registers the translator and formatter agents from their
// config sections. Entries in cfg.Agents are merged over a role of the same
// name or registered as additional agents.
func NewAgentRegistry(cfg *Config) (*agent.Registry, error) {
	roles := map[string]config.AgentConfig{
		AgentTranslator: cfg.Retrieval.Translator,
		AgentFormatter:  cfg.Formatting.Agent,
	}

	for name, override := range cfg.Agents {
		base, ok := roles[name]
		if !ok {
			base = config.DefaultAgentConfig()
		}
		base = base.Clone()
		base.Merge(&override)
		roles[name] = base
	}

	reg := agent.NewRegistry()
	for name, agentCfg := range roles {
		if err := reg.Register(name, agentCfg); err != nil {
			return nil, fmt.Errorf("failed to register agent %q: %w", name, err)
		}
	}
	return reg, nil
}
