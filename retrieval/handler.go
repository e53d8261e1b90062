package retrieval

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// NewHandler serves svc over Connect. It returns the mount path and handler:
//
//	mux.Handle(retrieval.NewHandler(svc))
func NewHandler(svc Service, opts ...connect.HandlerOption) (string, http.Handler) {
	handle := func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
		question, _ := req.Msg.AsMap()["question"].(string)
		if strings.TrimSpace(question) == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("question is required"))
		}

		res, err := svc.Retrieve(ctx, question)
		if err != nil {
			return nil, connect.NewError(errorCode(err), err)
		}
		if err := res.Validate(); err != nil {
			return nil, connect.NewError(connect.CodeInternal, err)
		}

		msg, err := toStruct(res)
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		return connect.NewResponse(msg), nil
	}

	return RetrieveProcedure, connect.NewUnaryHandler(RetrieveProcedure, handle, opts...)
}

func errorCode(err error) connect.Code {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, ErrNoStatement), errors.Is(err, ErrUnsafeQuery):
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeUnavailable
	}
}
