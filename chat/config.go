package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tailored-agentic-units/dbchat/core/config"
	"github.com/tailored-agentic-units/dbchat/database"
	"github.com/tailored-agentic-units/dbchat/formatting"
	"github.com/tailored-agentic-units/dbchat/hints"
	"github.com/tailored-agentic-units/dbchat/retrieval"
	"github.com/tailored-agentic-units/dbchat/session"
)

const (
	defaultRetrievalTimeout  = 60 * time.Second
	defaultFormattingTimeout = 60 * time.Second
	defaultObserver          = "slog"
	defaultAddr              = "127.0.0.1:8080"
)

// envKeys are bound to DBCHAT_* variables even when absent from the file,
// e.g. DBCHAT_DATABASE_URL.
var envKeys = []string{
	"observer",
	"retrieval_timeout",
	"formatting_timeout",
	"server.addr",
	"session.idle_timeout",
	"database.url",
	"database.auth_token_env",
	"database.migrations",
	"hints.path",
	"retrieval.mode",
	"retrieval.url",
	"retrieval.translator.provider.base_url",
	"retrieval.translator.provider.api_key_env",
	"retrieval.translator.model.name",
	"formatting.agent.provider.base_url",
	"formatting.agent.provider.api_key_env",
	"formatting.agent.model.name",
}

// ServerConfig holds the chat HTTP surface parameters.
type ServerConfig struct {
	Addr              string        `json:"addr,omitempty" mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout,omitempty" mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout,omitempty" mapstructure:"shutdown_timeout"`
}

// Merge applies non-zero values from source into c.
func (c *ServerConfig) Merge(source *ServerConfig) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.ReadHeaderTimeout > 0 {
		c.ReadHeaderTimeout = source.ReadHeaderTimeout
	}
	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}

// Config holds initialization parameters for the orchestrator and every
// subsystem it creates.
type Config struct {
	Agents            map[string]config.AgentConfig `json:"agents,omitempty" mapstructure:"agents"`
	Session           session.Config                `json:"session" mapstructure:"session"`
	Retrieval         retrieval.Config              `json:"retrieval" mapstructure:"retrieval"`
	Formatting        formatting.Config             `json:"formatting" mapstructure:"formatting"`
	Database          database.Config               `json:"database" mapstructure:"database"`
	Hints             hints.Config                  `json:"hints" mapstructure:"hints"`
	Server            ServerConfig                  `json:"server" mapstructure:"server"`
	Observer          string                        `json:"observer,omitempty" mapstructure:"observer"` // comma-separated observer names
	RetrievalTimeout  time.Duration                 `json:"retrieval_timeout,omitempty" mapstructure:"retrieval_timeout"`
	FormattingTimeout time.Duration                 `json:"formatting_timeout,omitempty" mapstructure:"formatting_timeout"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Session:    session.DefaultConfig(),
		Retrieval:  retrieval.DefaultConfig(),
		Formatting: formatting.DefaultConfig(),
		Database:   database.DefaultConfig(),
		Hints:      hints.DefaultConfig(),
		Server: ServerConfig{
			Addr:              defaultAddr,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Observer:          defaultObserver,
		RetrievalTimeout:  defaultRetrievalTimeout,
		FormattingTimeout: defaultFormattingTimeout,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Session.Merge(&source.Session)
	c.Retrieval.Merge(&source.Retrieval)
	c.Formatting.Merge(&source.Formatting)
	c.Database.Merge(&source.Database)
	c.Hints.Merge(&source.Hints)
	c.Server.Merge(&source.Server)

	if len(source.Agents) > 0 {
		c.Agents = source.Agents
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.RetrievalTimeout > 0 {
		c.RetrievalTimeout = source.RetrievalTimeout
	}
	if source.FormattingTimeout > 0 {
		c.FormattingTimeout = source.FormattingTimeout
	}
}

// LoadConfig reads a JSON or YAML config file, applies DBCHAT_* environment
// overrides, merges the result with defaults, and returns it. An empty
// filename loads defaults and environment only.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("DBCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
