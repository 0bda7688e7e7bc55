// Package mcptest provides in-memory upstream MCP servers for tests of code
// built on mcpclient.
package mcptest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/designgate/pkg/mcpclient"
)

// Tool is one tool served by a test server.
// Reply receives the decoded arguments; a returned error is reported as a
// tool-level error result.
type Tool struct {
	Name        string
	Description string
	Reply       func(args map[string]any) (string, error)
}

// Echo answers with a fixed text.
func Echo(name, text string) Tool {
	return Tool{
		Name:        name,
		Description: name + " tool",
		Reply:       func(map[string]any) (string, error) { return text, nil },
	}
}

// NewServer returns an MCP server exposing tools.
func NewServer(name string, tools ...Tool) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: name, Version: "test"}, nil)
	for _, t := range tools {
		t := t
		schema := &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"query": {Type: "string"}},
		}
		s.AddTool(&mcp.Tool{Name: t.Name, Description: t.Description, InputSchema: schema},
			func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args := map[string]any{}
				if len(req.Params.Arguments) > 0 {
					if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
						return nil, err
					}
				}
				var (
					text string
					err  error
				)
				if t.Reply != nil {
					text, err = t.Reply(args)
				}
				if err != nil {
					return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}, nil
				}
				return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
			})
	}
	return s
}

// Dialer connects descriptors to in-memory servers by provider name and
// tracks every server session it opens.
type Dialer struct {
	mu       sync.Mutex
	servers  map[string]*mcp.Server
	sessions []*mcp.ServerSession
	// Err, when set, fails every dial.
	Err error
}

// NewDialer serves provider -> server.
func NewDialer(servers map[string]*mcp.Server) *Dialer {
	return &Dialer{servers: servers}
}

// Dial implements mcpclient.Dialer.
func (d *Dialer) Dial(ctx context.Context, desc mcpclient.Descriptor) (mcp.Transport, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	srv, ok := d.servers[desc.ProviderName]
	if !ok {
		return nil, fmt.Errorf("mcptest: no server for provider %q", desc.ProviderName)
	}
	ct, st := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, st, nil)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.sessions = append(d.sessions, ss)
	d.mu.Unlock()
	return ct, nil
}

// Option returns the mcpclient option that installs d.
func (d *Dialer) Option() mcpclient.Option { return mcpclient.WithDialer(d.Dial) }

// Opened reports how many upstream sessions were opened.
func (d *Dialer) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// WaitClosed waits until every opened session has been closed by the client.
func (d *Dialer) WaitClosed(timeout time.Duration) error {
	d.mu.Lock()
	sessions := append([]*mcp.ServerSession(nil), d.sessions...)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, ss := range sessions {
			_ = ss.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("mcptest: sessions still open")
	}
}
