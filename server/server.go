// Package server exposes the chat orchestrator over Connect.
//
// Three unary procedures are served with google.protobuf.Struct payloads so
// any Connect, gRPC or plain JSON client can call them without generated
// stubs:
//
//	ChatService/Submit     {session_id?, question} -> {session_id, answer}
//	ChatService/Transcript {session_id} -> {session_id, questions, answers}
//	ChatService/End        {session_id} -> {session_id}
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/dbchat/chat"
	"github.com/tailored-agentic-units/dbchat/session"
)

// Service path and procedures.
const (
	ServicePath         = "/dbchat.chat.v1.ChatService/"
	SubmitProcedure     = ServicePath + "Submit"
	TranscriptProcedure = ServicePath + "Transcript"
	EndProcedure        = ServicePath + "End"
)

// SessionHeader carries the session ID on error responses.
const SessionHeader = "Dbchat-Session-Id"

// Orchestrator is the chat surface the server depends on.
type Orchestrator interface {
	Ask(ctx context.Context, sessionID, question string) (chat.Reply, error)
	Store() *session.Store
}

type chatService struct {
	orchestrator Orchestrator
}

// NewHandler returns the service path and a handler serving every procedure:
//
//	mux.Handle(server.NewHandler(o))
func NewHandler(o Orchestrator, opts ...connect.HandlerOption) (string, http.Handler) {
	svc := &chatService{orchestrator: o}

	mux := http.NewServeMux()
	mux.Handle(SubmitProcedure, connect.NewUnaryHandler(SubmitProcedure, svc.submit, opts...))
	mux.Handle(TranscriptProcedure, connect.NewUnaryHandler(TranscriptProcedure, svc.transcript, opts...))
	mux.Handle(EndProcedure, connect.NewUnaryHandler(EndProcedure, svc.end, opts...))
	return ServicePath, mux
}

func (s *chatService) submit(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.AsMap()
	sessionID, _ := fields["session_id"].(string)
	question, _ := fields["question"].(string)

	reply, err := s.orchestrator.Ask(ctx, sessionID, question)
	if err != nil {
		cerr := connect.NewError(ErrorCode(err), err)
		if reply.SessionID != "" {
			cerr.Meta().Set(SessionHeader, reply.SessionID)
		}
		return nil, cerr
	}

	msg, err := structpb.NewStruct(map[string]any{
		"session_id": reply.SessionID,
		"answer":     reply.Answer,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (s *chatService) transcript(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	sessionID, err := requireSessionID(req.Msg)
	if err != nil {
		return nil, err
	}

	state, ok := s.orchestrator.Store().Get(sessionID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %s not found", sessionID))
	}

	msg, err := structpb.NewStruct(map[string]any{
		"session_id": state.ID(),
		"questions":  toList(state.DisplayedQuestions()),
		"answers":    toList(state.DisplayedAnswers()),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (s *chatService) end(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	sessionID, err := requireSessionID(req.Msg)
	if err != nil {
		return nil, err
	}
	if !s.orchestrator.Store().End(sessionID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %s not found", sessionID))
	}

	msg, err := structpb.NewStruct(map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func requireSessionID(msg *structpb.Struct) (string, error) {
	sessionID, _ := msg.AsMap()["session_id"].(string)
	if strings.TrimSpace(sessionID) == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.New("session_id is required"))
	}
	return sessionID, nil
}

// ErrorCode maps an orchestrator error onto a Connect code.
func ErrorCode(err error) connect.Code {
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		return connect.CodeInvalidArgument
	case errors.Is(err, chat.ErrRetrievalFailure):
		return connect.CodeUnavailable
	case errors.Is(err, chat.ErrFormattingFailure):
		return connect.CodeInternal
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}

func toList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
