package retrieval

import "github.com/tailored-agentic-units/dbchat/core/config"

// Retrieval modes.
const (
	ModeSQL    = "sql"    // translate with an agent, execute locally
	ModeRemote = "remote" // call a retrieval service over Connect
)

const defaultMaxRows = 100

// Config selects and parameterizes the retrieval service.
type Config struct {
	Mode       string             `json:"mode,omitempty" mapstructure:"mode"`
	URL        string             `json:"url,omitempty" mapstructure:"url"` // remote mode base URL
	MaxRows    int                `json:"max_rows,omitempty" mapstructure:"max_rows"`
	Translator config.AgentConfig `json:"translator" mapstructure:"translator"`
}

// DefaultConfig returns SQL retrieval with the default agent as translator.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeSQL,
		MaxRows:    defaultMaxRows,
		Translator: config.DefaultAgentConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Mode != "" {
		c.Mode = source.Mode
	}
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.MaxRows > 0 {
		c.MaxRows = source.MaxRows
	}
	c.Translator.Merge(&source.Translator)
}
