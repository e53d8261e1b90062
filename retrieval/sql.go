package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tailored-agentic-units/dbchat/agent"
	"github.com/tailored-agentic-units/dbchat/core/protocol"
	"github.com/tailored-agentic-units/dbchat/database"
)

// DefaultTranslatorPrompt instructs the translator when its agent has no
// system prompt of its own.
const DefaultTranslatorPrompt = `You are a SQLite expert. Given a question, write one syntactically correct SQLite query that answers it.
Only query the columns needed to answer the question and wrap each column name in double quotes.
Use only tables and columns that appear in the schema below.
Reply with the SQL query only, without explanation.`

var (
	fencePattern     = regexp.MustCompile("(?s)```(?:sql|sqlite)?\\s*(.*?)```")
	quotedPattern    = regexp.MustCompile("'(?:[^']|'')*'|\"(?:[^\"]|\"\")*\"|`[^`]*`")
	forbiddenPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|attach|detach|pragma|vacuum|reindex|analyze|replace\s+into)\b`)
	leadingPattern   = regexp.MustCompile(`(?i)^\s*(select|with)\b`)
)

// SQLOption configures a SQLService.
type SQLOption func(*SQLService)

// WithSchema sets the schema description shown to the translator.
func WithSchema(schema string) SQLOption {
	return func(s *SQLService) { s.schema = schema }
}

// WithNotes sets the schema notes appended to the translator prompt.
func WithNotes(notes string) SQLOption {
	return func(s *SQLService) { s.notes = notes }
}

// WithMaxRows bounds how many rows a result carries. Zero means unbounded.
func WithMaxRows(n int) SQLOption {
	return func(s *SQLService) { s.maxRows = n }
}

// SQLService translates a question into SQL with an agent and executes it.
// Only single SELECT or WITH statements are executed.
type SQLService struct {
	translator agent.Agent
	db         database.Querier
	schema     string
	notes      string
	maxRows    int
}

// NewSQLService creates a SQLService over translator and db.
func NewSQLService(translator agent.Agent, db database.Querier, opts ...SQLOption) *SQLService {
	s := &SQLService{
		translator: translator,
		db:         db,
		maxRows:    defaultMaxRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve translates question, runs the statement, and returns the rows as a
// list of column-name keyed maps.
func (s *SQLService) Retrieve(ctx context.Context, question string) (Result, error) {
	stmt, err := s.Translate(ctx, question)
	if err != nil {
		return Result{}, err
	}

	rows, err := s.execute(ctx, stmt)
	if err != nil {
		return Result{}, err
	}
	return Result{Query: stmt, Result: rows}, nil
}

// Translate asks the translator for a statement and checks it is read-only.
func (s *SQLService) Translate(ctx context.Context, question string) (string, error) {
	system := s.translator.SystemPrompt()
	if system == "" {
		system = DefaultTranslatorPrompt
	}

	resp, err := s.translator.Chat(ctx, protocol.InitMessages(system, s.buildPrompt(question)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslate, err)
	}

	stmt, err := ExtractSQL(resp.Content())
	if err != nil {
		return "", err
	}
	if err := CheckReadOnly(stmt); err != nil {
		return "", err
	}
	return stmt, nil
}

func (s *SQLService) buildPrompt(question string) string {
	var b strings.Builder
	if s.schema != "" {
		b.WriteString("Schema:\n")
		b.WriteString(s.schema)
		b.WriteString("\n\n")
	}
	if s.notes != "" {
		b.WriteString("Notes:\n")
		b.WriteString(s.notes)
		b.WriteString("\n\n")
	}
	if s.maxRows > 0 {
		fmt.Fprintf(&b, "Unless the question asks for a specific number of rows, return at most %d rows.\n\n", s.maxRows)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func (s *SQLService) execute(ctx context.Context, stmt string) ([]any, error) {
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecute, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecute, err)
	}

	out := make([]any, 0)
	for rows.Next() {
		if s.maxRows > 0 && len(out) >= s.maxRows {
			break
		}
		values, err := database.ScanRow(rows, len(cols))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExecute, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecute, err)
	}
	return out, nil
}

// ExtractSQL pulls the statement out of a translator reply. Code fences, a
// leading "SQLQuery:" label and trailing semicolons are removed.
func ExtractSQL(reply string) (string, error) {
	text := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)
	if len(text) >= len("SQLQuery:") && strings.EqualFold(text[:len("SQLQuery:")], "SQLQuery:") {
		text = text[len("SQLQuery:"):]
	}
	text = strings.TrimRight(strings.TrimSpace(text), "; \t\n")
	if text == "" {
		return "", ErrNoStatement
	}
	return text, nil
}

// CheckReadOnly rejects anything but a single SELECT or WITH statement.
// Keywords inside string literals and quoted identifiers are ignored, as is
// the replace() scalar function.
func CheckReadOnly(stmt string) error {
	bare := quotedPattern.ReplaceAllStringFunc(stmt, func(q string) string {
		return q[:1] + q[:1]
	})
	if !leadingPattern.MatchString(bare) {
		return fmt.Errorf("%w: must start with SELECT or WITH", ErrUnsafeQuery)
	}
	if strings.Contains(bare, ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}
	if kw := forbiddenPattern.FindString(bare); kw != "" {
		return fmt.Errorf("%w: contains %s", ErrUnsafeQuery, strings.ToUpper(strings.Fields(kw)[0]))
	}
	return nil
}

// NewSQL builds a SQLService from configuration, reading the schema
// description from db.
func NewSQL(ctx context.Context, cfg *Config, translator agent.Agent, db database.Querier, sampleRows int, notes string) (*SQLService, error) {
	schema, err := database.DescribeSchema(ctx, db, sampleRows)
	if err != nil {
		return nil, err
	}

	return NewSQLService(translator, db,
		WithSchema(schema),
		WithNotes(notes),
		WithMaxRows(cfg.MaxRows),
	), nil
}
