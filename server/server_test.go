package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/dbchat/chat"
	"github.com/tailored-agentic-units/dbchat/formatting"
	"github.com/tailored-agentic-units/dbchat/observability"
	"github.com/tailored-agentic-units/dbchat/retrieval"
	"github.com/tailored-agentic-units/dbchat/server"
)

type rpcClients struct {
	submit     *connect.Client[structpb.Struct, structpb.Struct]
	transcript *connect.Client[structpb.Struct, structpb.Struct]
	end        *connect.Client[structpb.Struct, structpb.Struct]
}

func newTestServer(t *testing.T, r retrieval.Service, f formatting.Service) rpcClients {
	t.Helper()

	cfg := chat.DefaultConfig()
	o, err := chat.New(context.Background(), &cfg,
		chat.WithRetriever(r),
		chat.WithFormatter(f),
		chat.WithObserver(observability.NoOpObserver{}),
	)
	require.NoError(t, err)

	mux := server.NewMux()
	mux.Handle(server.NewHandler(o))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return rpcClients{
		submit:     connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+server.SubmitProcedure, connect.WithProtoJSON()),
		transcript: connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+server.TranscriptProcedure),
		end:        connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+server.EndProcedure),
	}
}

func request(t *testing.T, fields map[string]any) *connect.Request[structpb.Struct] {
	t.Helper()
	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return connect.NewRequest(msg)
}

func okRetriever() retrieval.Service {
	return retrieval.ServiceFunc(func(context.Context, string) (retrieval.Result, error) {
		return retrieval.Result{Query: "SELECT COUNT(*) FROM orders", Result: "128"}, nil
	})
}

func okFormatter() formatting.Service {
	return formatting.ServiceFunc(func(context.Context, string) (string, error) {
		return "There were 128 orders last month.", nil
	})
}

func TestSubmit_NewSessionThenTranscript(t *testing.T) {
	c := newTestServer(t, okRetriever(), okFormatter())
	ctx := context.Background()

	resp, err := c.submit.CallUnary(ctx, request(t, map[string]any{"question": "How many orders last month?"}))
	require.NoError(t, err)

	fields := resp.Msg.AsMap()
	sessionID, _ := fields["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "There were 128 orders last month.", fields["answer"])

	tr, err := c.transcript.CallUnary(ctx, request(t, map[string]any{"session_id": sessionID}))
	require.NoError(t, err)

	got := tr.Msg.AsMap()
	assert.Equal(t, sessionID, got["session_id"])
	assert.Equal(t, []any{"Hello Saiyan!", "How many orders last month?"}, got["questions"])
	assert.Equal(t, []any{
		"Hello! I am here to provide answers to questions fetched from Database.",
		"There were 128 orders last month.",
	}, got["answers"])
}

func TestSubmit_ExistingSession(t *testing.T) {
	c := newTestServer(t, okRetriever(), okFormatter())
	ctx := context.Background()

	for range 2 {
		resp, err := c.submit.CallUnary(ctx, request(t, map[string]any{"session_id": "s1", "question": "q"}))
		require.NoError(t, err)
		assert.Equal(t, "s1", resp.Msg.AsMap()["session_id"])
	}

	tr, err := c.transcript.CallUnary(ctx, request(t, map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.Len(t, tr.Msg.AsMap()["answers"], 3)
}

func TestSubmit_ErrorCodes(t *testing.T) {
	failing := retrieval.ServiceFunc(func(context.Context, string) (retrieval.Result, error) {
		return retrieval.Result{}, errors.New("connection refused")
	})
	badFormatter := formatting.ServiceFunc(func(context.Context, string) (string, error) {
		return "", errors.New("model overloaded")
	})

	tests := []struct {
		name      string
		retriever retrieval.Service
		formatter formatting.Service
		question  string
		want      connect.Code
	}{
		{"blank question", okRetriever(), okFormatter(), "  ", connect.CodeInvalidArgument},
		{"retrieval failure", failing, okFormatter(), "q", connect.CodeUnavailable},
		{"formatting failure", okRetriever(), badFormatter, "q", connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.retriever, tt.formatter)
			_, err := c.submit.CallUnary(context.Background(), request(t, map[string]any{"session_id": "s1", "question": tt.question}))
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}
}

func TestSubmit_FailureCarriesSessionID(t *testing.T) {
	failing := retrieval.ServiceFunc(func(context.Context, string) (retrieval.Result, error) {
		return retrieval.Result{}, errors.New("down")
	})
	c := newTestServer(t, failing, okFormatter())

	_, err := c.submit.CallUnary(context.Background(), request(t, map[string]any{"question": "q"}))
	var cerr *connect.Error
	require.ErrorAs(t, err, &cerr)
	assert.NotEmpty(t, cerr.Meta().Get(server.SessionHeader))
}

func TestTranscript_Errors(t *testing.T) {
	c := newTestServer(t, okRetriever(), okFormatter())

	_, err := c.transcript.CallUnary(context.Background(), request(t, map[string]any{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = c.transcript.CallUnary(context.Background(), request(t, map[string]any{"session_id": "unknown"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestEnd_RemovesSession(t *testing.T) {
	c := newTestServer(t, okRetriever(), okFormatter())
	ctx := context.Background()

	_, err := c.submit.CallUnary(ctx, request(t, map[string]any{"session_id": "s1", "question": "q"}))
	require.NoError(t, err)

	resp, err := c.end.CallUnary(ctx, request(t, map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.Msg.AsMap()["session_id"])

	_, err = c.transcript.CallUnary(ctx, request(t, map[string]any{"session_id": "s1"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = c.end.CallUnary(ctx, request(t, map[string]any{"session_id": "s1"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = c.end.CallUnary(ctx, request(t, map[string]any{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{chat.ErrInvalidInput, connect.CodeInvalidArgument},
		{errors.Join(chat.ErrRetrievalFailure, context.DeadlineExceeded), connect.CodeUnavailable},
		{errors.Join(chat.ErrFormattingFailure, context.DeadlineExceeded), connect.CodeInternal},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{context.Canceled, connect.CodeCanceled},
		{errors.New("other"), connect.CodeInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, server.ErrorCode(tt.err), tt.err.Error())
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, ln, server.NewMux(), server.Options{ShutdownTimeout: time.Second})
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
