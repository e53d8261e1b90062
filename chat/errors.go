package chat

import "errors"

// Failure kinds surfaced by the orchestrator. Underlying causes stay in the
// chain but callers classify with errors.Is against these values only.
var (
	// ErrRetrievalFailure covers translation, execution, connectivity,
	// timeout and malformed-result failures of the retrieval step.
	ErrRetrievalFailure = errors.New("retrieval failure")
	// ErrFormattingFailure covers any failure of the formatting step.
	ErrFormattingFailure = errors.New("formatting failure")
	// ErrInvalidInput rejects an empty or whitespace-only question.
	ErrInvalidInput = errors.New("invalid input: question is empty")
)
