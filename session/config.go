package session

import "time"

// Greeting is the synthetic question/answer pair shown before any real turn.
type Greeting struct {
	Question string `json:"question,omitempty" mapstructure:"question"`
	Answer   string `json:"answer,omitempty" mapstructure:"answer"`
}

// Merge applies non-zero values from source into g.
func (g *Greeting) Merge(source *Greeting) {
	if source.Question != "" {
		g.Question = source.Question
	}
	if source.Answer != "" {
		g.Answer = source.Answer
	}
}

// Config holds session store parameters.
type Config struct {
	Greeting Greeting `json:"greeting" mapstructure:"greeting"`

	// IdleTimeout is how long a session may go unused before RunExpiry ends
	// it. Zero keeps sessions until End.
	IdleTimeout time.Duration `json:"idle_timeout,omitempty" mapstructure:"idle_timeout"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Greeting: Greeting{
			Question: "Hello Saiyan!",
			Answer:   "Hello! I am here to provide answers to questions fetched from Database.",
		},
		IdleTimeout: 30 * time.Minute,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Greeting.Merge(&source.Greeting)
	if source.IdleTimeout > 0 {
		c.IdleTimeout = source.IdleTimeout
	}
}
