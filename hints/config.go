package hints

// Config holds hint store parameters.
type Config struct {
	Path string `json:"path,omitempty" mapstructure:"path"` // notes directory; empty disables hints.
}

// DefaultConfig returns the default hints configuration (disabled).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
}

// NewStore creates a Store from configuration. Returns nil Store when Path
// is empty, indicating hints are disabled.
func NewStore(cfg *Config) Store {
	if cfg.Path == "" {
		return nil
	}
	return NewFileStore(cfg.Path)
}
