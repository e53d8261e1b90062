package formatting

import "github.com/tailored-agentic-units/dbchat/core/config"

// Config holds formatter parameters.
type Config struct {
	Agent config.AgentConfig `json:"agent" mapstructure:"agent"`
}

// DefaultConfig returns the default agent as formatter.
func DefaultConfig() Config {
	return Config{Agent: config.DefaultAgentConfig()}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)
}
