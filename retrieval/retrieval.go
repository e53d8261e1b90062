// Package retrieval turns a natural-language question into a query and its
// raw result. It defines the Service contract the chat orchestrator depends
// on plus two implementations: SQLService, which translates with an agent and
// executes against a database, and Client, which calls a remote service over
// Connect. NewHandler exposes any Service over the same protocol.
package retrieval

import (
	"context"
	"fmt"
	"strings"
)

// Service answers one question with the derived query and its raw result.
// Implementations must not keep memory between calls.
type Service interface {
	Retrieve(ctx context.Context, question string) (Result, error)
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc func(ctx context.Context, question string) (Result, error)

func (f ServiceFunc) Retrieve(ctx context.Context, question string) (Result, error) {
	return f(ctx, question)
}

// Result holds the derived query and the raw output of executing it.
// Result is either text or a structured value such as a row list.
type Result struct {
	Query  string `json:"query"`
	Result any    `json:"result"`
}

// Validate reports ErrMalformedResult when either field is missing.
func (r Result) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: missing query", ErrMalformedResult)
	}
	if r.Result == nil {
		return fmt.Errorf("%w: missing result", ErrMalformedResult)
	}
	return nil
}
