package retrieval_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/dbchat/agent/mock"
	"github.com/tailored-agentic-units/dbchat/core/protocol"
	"github.com/tailored-agentic-units/dbchat/database"
	"github.com/tailored-agentic-units/dbchat/retrieval"
)

const ordersMigration = `-- +goose Up
CREATE TABLE orders (
    id INTEGER PRIMARY KEY,
    total REAL NOT NULL,
    placed_at TEXT NOT NULL
);
INSERT INTO orders (id, total, placed_at) VALUES
    (1, 19.5, '2024-05-02'),
    (2, 42.0, '2024-05-09'),
    (3, 7.25, '2024-06-01');
`

func openOrdersDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := database.DefaultConfig()
	cfg.URL = "file:" + filepath.Join(t.TempDir(), "orders.db")

	db, err := database.Open(context.Background(), &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.Migrate(context.Background(), db, fstest.MapFS{
		"00001_orders.sql": {Data: []byte(ordersMigration)},
	})
	require.NoError(t, err)
	return db
}

func TestResult_Validate(t *testing.T) {
	tests := []struct {
		name    string
		result  retrieval.Result
		wantErr bool
	}{
		{"complete", retrieval.Result{Query: "SELECT 1", Result: "1"}, false},
		{"structured", retrieval.Result{Query: "SELECT 1", Result: []any{}}, false},
		{"missing query", retrieval.Result{Result: "1"}, true},
		{"blank query", retrieval.Result{Query: "  ", Result: "1"}, true},
		{"missing result", retrieval.Result{Query: "SELECT 1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, retrieval.ErrMalformedResult)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"trailing semicolon", "SELECT 1;\n", "SELECT 1"},
		{"fenced", "Here you go:\n```sql\nSELECT COUNT(*) FROM orders;\n```", "SELECT COUNT(*) FROM orders"},
		{"bare fence", "```\nSELECT 2\n```", "SELECT 2"},
		{"labelled", "SQLQuery: SELECT 3", "SELECT 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := retrieval.ExtractSQL(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := retrieval.ExtractSQL("```sql\n```")
	assert.ErrorIs(t, err, retrieval.ErrNoStatement)
}

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		stmt    string
		wantErr bool
	}{
		{"SELECT * FROM orders", false},
		{"with t AS (SELECT 1) SELECT * FROM t", false},
		{"SELECT * FROM orders WHERE note = 'drop table; delete'", false},
		{"DELETE FROM orders", true},
		{"SELECT 1; DROP TABLE orders", true},
		{"PRAGMA table_info(orders)", true},
		{"WITH x AS (DELETE FROM orders RETURNING *) SELECT * FROM x", true},
		{`SELECT replace("name", 'a', 'b') FROM users`, false},
		{`SELECT "update", "delete" FROM audit`, false},
		{"SELECT `drop` FROM t", false},
		{`SELECT * FROM orders WHERE note = 'say "hi"; drop'`, false},
		{`SELECT "a"";drop" FROM t`, false},
		{"WITH x AS (SELECT 1) REPLACE INTO orders SELECT * FROM x", true},
		{`SELECT * FROM "orders" WHERE id IN (SELECT id FROM t); UPDATE t SET a = 1`, true},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			err := retrieval.CheckReadOnly(tt.stmt)
			if tt.wantErr {
				assert.ErrorIs(t, err, retrieval.ErrUnsafeQuery)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSQLService_Retrieve(t *testing.T) {
	db := openOrdersDB(t)
	translator := mock.NewMockAgent(mock.WithResponse("```sql\nSELECT COUNT(*) AS n FROM orders WHERE placed_at LIKE '2024-05-%';\n```"))

	svc := retrieval.NewSQLService(translator, db,
		retrieval.WithSchema("CREATE TABLE orders (...)"),
		retrieval.WithNotes("placed_at is an ISO date"),
	)

	res, err := svc.Retrieve(context.Background(), "How many orders last month?")
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) AS n FROM orders WHERE placed_at LIKE '2024-05-%'", res.Query)
	rows, ok := res.Result.([]any)
	require.True(t, ok, "result should be a row list, got %T", res.Result)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0].(map[string]any)["n"])

	msgs := translator.LastMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.RoleSystem, msgs[0].Role)
	assert.Equal(t, retrieval.DefaultTranslatorPrompt, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "CREATE TABLE orders (...)")
	assert.Contains(t, msgs[1].Content, "placed_at is an ISO date")
	assert.Contains(t, msgs[1].Content, "Question: How many orders last month?")
}

func TestSQLService_MaxRows(t *testing.T) {
	db := openOrdersDB(t)
	translator := mock.NewMockAgent(mock.WithResponse("SELECT id FROM orders ORDER BY id"))

	svc := retrieval.NewSQLService(translator, db, retrieval.WithMaxRows(2))
	res, err := svc.Retrieve(context.Background(), "List orders")
	require.NoError(t, err)
	assert.Len(t, res.Result, 2)
}

func TestSQLService_EmptyResultIsValid(t *testing.T) {
	db := openOrdersDB(t)
	translator := mock.NewMockAgent(mock.WithResponse("SELECT id FROM orders WHERE total > 1000"))

	res, err := retrieval.NewSQLService(translator, db).Retrieve(context.Background(), "Big orders?")
	require.NoError(t, err)
	assert.NoError(t, res.Validate())
	assert.Empty(t, res.Result)
}

func TestSQLService_Failures(t *testing.T) {
	db := openOrdersDB(t)

	tests := []struct {
		name  string
		agent *mock.MockAgent
		want  error
	}{
		{"translator error", mock.NewMockAgent(mock.WithError(errors.New("model offline"))), retrieval.ErrTranslate},
		{"unsafe statement", mock.NewMockAgent(mock.WithResponse("DROP TABLE orders")), retrieval.ErrUnsafeQuery},
		{"empty reply", mock.NewMockAgent(mock.WithResponse("   ")), retrieval.ErrNoStatement},
		{"bad column", mock.NewMockAgent(mock.WithResponse("SELECT missing FROM orders")), retrieval.ErrExecute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := retrieval.NewSQLService(tt.agent, db).Retrieve(context.Background(), "q")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSQLService_TranslatorSystemPrompt(t *testing.T) {
	db := openOrdersDB(t)
	translator := mock.NewMockAgent(
		mock.WithSystemPrompt("custom translator"),
		mock.WithResponse("SELECT 1 AS one"),
	)

	_, err := retrieval.NewSQLService(translator, db).Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "custom translator", translator.LastMessages()[0].Content)
}

func newRetrievalServer(t *testing.T, svc retrieval.Service) *retrieval.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle(retrieval.NewHandler(svc))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := retrieval.NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func TestClient_RoundTrip(t *testing.T) {
	client := newRetrievalServer(t, retrieval.ServiceFunc(func(_ context.Context, q string) (retrieval.Result, error) {
		return retrieval.Result{
			Query:  "SELECT COUNT(*) FROM orders",
			Result: []any{map[string]any{"n": int64(128), "at": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}},
		}, nil
	}))

	res, err := client.Retrieve(context.Background(), "How many orders last month?")
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM orders", res.Query)
	rows := res.Result.([]any)
	row := rows[0].(map[string]any)
	assert.Equal(t, float64(128), row["n"])
	assert.Equal(t, "2024-05-01T00:00:00Z", row["at"])
}

func TestClient_TextResult(t *testing.T) {
	client := newRetrievalServer(t, retrieval.ServiceFunc(func(context.Context, string) (retrieval.Result, error) {
		return retrieval.Result{Query: "SELECT 128", Result: "128"}, nil
	}))

	res, err := client.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "128", res.Result)
}

func TestClient_ServiceError(t *testing.T) {
	client := newRetrievalServer(t, retrieval.ServiceFunc(func(context.Context, string) (retrieval.Result, error) {
		return retrieval.Result{}, errors.New("connection refused")
	}))

	_, err := client.Retrieve(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func TestHandler_RejectsEmptyQuestion(t *testing.T) {
	calls := 0
	client := newRetrievalServer(t, retrieval.ServiceFunc(func(context.Context, string) (retrieval.Result, error) {
		calls++
		return retrieval.Result{Query: "SELECT 1", Result: "1"}, nil
	}))

	_, err := client.Retrieve(context.Background(), " ")
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.Zero(t, calls)
}

func TestClient_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing result", `{"query": "SELECT 1"}`},
		{"missing query", `{"result": "1"}`},
		{"null result", `{"query": "SELECT 1", "result": null}`},
		{"blank query", `{"query": " ", "result": "1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := retrieval.NewClient(srv.URL)
			require.NoError(t, err)

			_, err = client.Retrieve(context.Background(), "q")
			assert.ErrorIs(t, err, retrieval.ErrMalformedResult)
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := retrieval.DefaultConfig()
	assert.Equal(t, retrieval.ModeSQL, cfg.Mode)

	cfg.Merge(&retrieval.Config{Mode: retrieval.ModeRemote, URL: "http://retrieval:8081"})
	assert.Equal(t, retrieval.ModeRemote, cfg.Mode)
	assert.Equal(t, "http://retrieval:8081", cfg.URL)
	assert.Equal(t, 100, cfg.MaxRows)
	assert.Equal(t, "llama3.1:8b", cfg.Translator.Model.Name)
}
