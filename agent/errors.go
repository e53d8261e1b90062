package agent

import "errors"

// Sentinel errors for agents and the agent registry.
var (
	ErrAgentNotFound  = errors.New("agent not found")
	ErrAgentExists    = errors.New("agent already registered")
	ErrEmptyAgentName = errors.New("agent name is empty")
	ErrMissingModel   = errors.New("agent model is not configured")
	ErrEmptyResponse  = errors.New("agent returned empty response")
)
