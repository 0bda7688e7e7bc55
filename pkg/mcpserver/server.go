// Package mcpserver publishes the gateway operations as MCP tools, over
// streamable HTTP or stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/wilhg/designgate/pkg/gateway"
)

// Name is the implementation name announced to MCP clients.
const Name = "LeanIX Design Standards"

// Querier runs one named operation.
type Querier interface {
	Query(ctx context.Context, name, argument string) gateway.Result
}

// Server wraps an MCP server whose tools are the gateway operations.
type Server struct {
	srv *mcp.Server
	q   Querier
	log zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New registers every operation from gateway.Operations on a new MCP server.
func New(q Querier, version string, opts ...Option) *Server {
	s := &Server{q: q, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	s.srv = mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	for _, op := range gateway.Operations() {
		s.srv.AddTool(&mcp.Tool{
			Name:        op.Name,
			Description: op.Description,
			InputSchema: InputSchema(op),
			Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		}, s.handler(op))
	}
	return s
}

// InputSchema is the object schema with the operation's single required
// string argument.
func InputSchema(op gateway.Operation) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			op.Argument: {Type: "string", Description: op.ArgumentDescription},
		},
		Required: []string{op.Argument},
	}
}

func (s *Server) handler(op gateway.Operation) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arg, err := argument(req.Params.Arguments, op.Argument)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		s.log.Debug().Str("tool", op.Name).Msg("mcp tool call")
		res := s.q.Query(ctx, op.Name, arg)
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: res.Message}}}, nil
	}
}

func argument(raw json.RawMessage, name string) (string, error) {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", fmt.Errorf("arguments must be a JSON object: %v", err)
		}
	}
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return str, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: msg}}}
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.srv }

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.srv }, nil)
}

// RunStdio serves one client over stdin/stdout until it disconnects or ctx ends.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}
