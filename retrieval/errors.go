package retrieval

import "errors"

var (
	// ErrMalformedResult indicates a result without a query or without a value.
	ErrMalformedResult = errors.New("malformed retrieval result")
	// ErrNoStatement indicates the translator reply held no SQL statement.
	ErrNoStatement = errors.New("no SQL statement in translator reply")
	// ErrUnsafeQuery indicates a statement that is not a single read-only query.
	ErrUnsafeQuery = errors.New("statement is not a single read-only query")
	// ErrTranslate wraps translator agent failures.
	ErrTranslate = errors.New("query translation failed")
	// ErrExecute wraps database execution failures.
	ErrExecute = errors.New("query execution failed")
	// ErrUnknownMode indicates an unsupported Config.Mode.
	ErrUnknownMode = errors.New("unknown retrieval mode")
)
