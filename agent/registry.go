package agent

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/dbchat/core/config"
)

// AgentInfo summarizes a registered agent.
type AgentInfo struct {
	Name     string
	Provider string
	Model    string
}

// Registry holds named agent configurations. Configurations are checked when
// registered; agents are built on first Get and reused afterwards.
type Registry struct {
	mu      sync.Mutex
	configs map[string]config.AgentConfig
	agents  map[string]Agent
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		configs: make(map[string]config.AgentConfig),
		agents:  make(map[string]Agent),
	}
}

// Register stores cfg under name. Names are unique and cfg must name a model.
func (r *Registry) Register(name string, cfg config.AgentConfig) error {
	if name == "" {
		return ErrEmptyAgentName
	}
	if cfg.Model == nil || cfg.Model.Name == "" {
		return fmt.Errorf("%w: %s", ErrMissingModel, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; exists {
		return fmt.Errorf("%w: %s", ErrAgentExists, name)
	}
	r.configs[name] = cfg
	return nil
}

// Get returns the agent registered under name, building it on first use.
func (r *Registry) Get(name string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[name]; ok {
		return a, nil
	}

	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	a, err := New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent %q: %w", name, err)
	}
	r.agents[name] = a
	return a, nil
}

// List returns every registered agent sorted by name.
func (r *Registry) List() []AgentInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]AgentInfo, 0, len(r.configs))
	for name, cfg := range r.configs {
		info := AgentInfo{Name: name, Model: cfg.Model.Name}
		if cfg.Provider != nil {
			info.Provider = cfg.Provider.Name
		}
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b AgentInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}
