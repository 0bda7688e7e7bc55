package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/designgate/pkg/gateway"
)

type call struct{ name, arg string }

type recordingQuerier struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingQuerier) Query(_ context.Context, name, arg string) gateway.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{name, arg})
	if arg == "broken" {
		return gateway.Result{Message: "Error querying LeanIX: upstream down"}
	}
	return gateway.Result{OK: true, Message: name + ": " + arg}
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()
	if _, err := s.MCP().Connect(ctx, st, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("want one content block, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("want text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestServer_ListsOperations(t *testing.T) {
	cs := connect(t, New(&recordingQuerier{}, "test"))
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		op, ok := gateway.Lookup(tool.Name)
		if !ok {
			t.Fatalf("unexpected tool %q", tool.Name)
		}
		if tool.Description != op.Description {
			t.Fatalf("%s description = %q", tool.Name, tool.Description)
		}
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			t.Fatalf("marshal schema: %v", err)
		}
		var schema struct {
			Required   []string       `json:"required"`
			Properties map[string]any `json:"properties"`
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			t.Fatalf("decode schema: %v", err)
		}
		if len(schema.Required) != 1 || schema.Required[0] != op.Argument {
			t.Fatalf("%s required = %v", tool.Name, schema.Required)
		}
		if _, ok := schema.Properties[op.Argument]; !ok {
			t.Fatalf("%s missing property %q", tool.Name, op.Argument)
		}
	}
	sort.Strings(names)
	want := []string{"get_architecture_patterns", "get_security_guidelines", "get_technology_standards", "search_design_standards"}
	if len(names) != len(want) {
		t.Fatalf("tools = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("tools = %v", names)
		}
	}
}

func TestServer_CallForwardsToGateway(t *testing.T) {
	q := &recordingQuerier{}
	cs := connect(t, New(q, "test"))
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_technology_standards",
		Arguments: map[string]any{"technology": "Kafka"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error")
	}
	if got := textOf(t, res); got != "get_technology_standards: Kafka" {
		t.Fatalf("text = %q", got)
	}
	if len(q.calls) != 1 || q.calls[0] != (call{"get_technology_standards", "Kafka"}) {
		t.Fatalf("calls = %v", q.calls)
	}
}

func TestServer_FailureTextIsReturnedAsContent(t *testing.T) {
	cs := connect(t, New(&recordingQuerier{}, "test"))
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_design_standards",
		Arguments: map[string]any{"topic": "broken"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := textOf(t, res); got != "Error querying LeanIX: upstream down" {
		t.Fatalf("text = %q", got)
	}
}

func TestServer_BadArguments(t *testing.T) {
	q := &recordingQuerier{}
	cs := connect(t, New(q, "test"))
	cases := []map[string]any{
		{},
		{"topic": 42},
		{"topic": nil},
		{"security_area": "auth"},
	}
	for _, args := range cases {
		res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "search_design_standards", Arguments: args})
		if err != nil {
			t.Fatalf("call %v: %v", args, err)
		}
		if !res.IsError {
			t.Fatalf("args %v: want tool error", args)
		}
	}
	if len(q.calls) != 0 {
		t.Fatalf("gateway should not be called, got %v", q.calls)
	}
}

func TestServer_EmptyArgumentReachesGateway(t *testing.T) {
	q := &recordingQuerier{}
	cs := connect(t, New(q, "test"))
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_architecture_patterns",
		Arguments: map[string]any{"architecture_type": ""},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError || textOf(t, res) != "get_architecture_patterns: " {
		t.Fatalf("result = %+v", res)
	}
	if len(q.calls) != 1 || q.calls[0].arg != "" {
		t.Fatalf("calls = %v", q.calls)
	}
}

func TestServer_StreamableHTTP(t *testing.T) {
	srv := httptest.NewServer(New(&recordingQuerier{}, "test").Handler())
	defer srv.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{Endpoint: srv.URL, MaxRetries: -1}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_security_guidelines",
		Arguments: map[string]any{"security_area": "authentication"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := textOf(t, res); got != "get_security_guidelines: authentication" {
		t.Fatalf("text = %q", got)
	}
}

func TestArgument(t *testing.T) {
	if _, err := argument(json.RawMessage(`[1]`), "topic"); err == nil {
		t.Fatalf("want error for non-object arguments")
	}
	got, err := argument(json.RawMessage(`{"topic":"apis","extra":1}`), "topic")
	if err != nil || got != "apis" {
		t.Fatalf("argument = %q, %v", got, err)
	}
}
