package database

// Config holds data store connection parameters.
type Config struct {
	// URL is a libsql DSN: "file:path/to.db" for an embedded database or
	// "libsql://host" for a remote one.
	URL string `json:"url,omitempty" mapstructure:"url"`
	// AuthTokenEnv names the environment variable holding the remote auth token.
	AuthTokenEnv string `json:"auth_token_env,omitempty" mapstructure:"auth_token_env"`
	// Migrations is a directory of goose SQL migrations applied on Open.
	Migrations string `json:"migrations,omitempty" mapstructure:"migrations"`
	// SampleRows is how many rows per table are shown to the translator.
	SampleRows int `json:"sample_rows,omitempty" mapstructure:"sample_rows"`
	// MaxOpenConns bounds the connection pool; zero leaves the driver default.
	MaxOpenConns int `json:"max_open_conns,omitempty" mapstructure:"max_open_conns"`
}

// DefaultConfig returns the default database configuration.
func DefaultConfig() Config {
	return Config{
		URL:        "file:dbchat.db",
		SampleRows: 3,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.AuthTokenEnv != "" {
		c.AuthTokenEnv = source.AuthTokenEnv
	}
	if source.Migrations != "" {
		c.Migrations = source.Migrations
	}
	if source.SampleRows > 0 {
		c.SampleRows = source.SampleRows
	}
	if source.MaxOpenConns > 0 {
		c.MaxOpenConns = source.MaxOpenConns
	}
}
