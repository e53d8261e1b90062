package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient connect.HTTPClient
	connect    []connect.ClientOption
}

// WithHTTPClient sets the HTTP client used for calls.
func WithHTTPClient(c connect.HTTPClient) ClientOption {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithConnectOptions appends Connect client options.
func WithConnectOptions(opts ...connect.ClientOption) ClientOption {
	return func(o *clientOptions) { o.connect = append(o.connect, opts...) }
}

// Client calls a remote retrieval service. Every response is validated
// before it is returned.
type Client struct {
	rpc    *connect.Client[structpb.Struct, structpb.Struct]
	schema *jsonschema.Schema
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	o := clientOptions{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	schema, err := compileResultSchema()
	if err != nil {
		return nil, err
	}

	connectOpts := append([]connect.ClientOption{connect.WithProtoJSON()}, o.connect...)
	return &Client{
		rpc:    connect.NewClient[structpb.Struct, structpb.Struct](o.httpClient, strings.TrimSuffix(baseURL, "/")+RetrieveProcedure, connectOpts...),
		schema: schema,
	}, nil
}

func (c *Client) Retrieve(ctx context.Context, question string) (Result, error) {
	req, err := structpb.NewStruct(map[string]any{"question": question})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.rpc.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return Result{}, fmt.Errorf("retrieval call failed: %w", err)
	}

	payload := resp.Msg.AsMap()
	if err := c.schema.Validate(payload); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	query, _ := payload["query"].(string)
	return Result{Query: query, Result: payload["result"]}, nil
}

func compileResultSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("result.json", strings.NewReader(resultSchema)); err != nil {
		return nil, fmt.Errorf("failed to load result schema: %w", err)
	}
	schema, err := c.Compile("result.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile result schema: %w", err)
	}
	return schema, nil
}
