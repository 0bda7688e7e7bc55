package mcpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/designgate/pkg/agent"
	"github.com/wilhg/designgate/pkg/config"
	"github.com/wilhg/designgate/pkg/errmodel"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"free text query"`
}

// newCatalogServer advertises search_items, delete_all and get_factsheet.
func newCatalogServer() *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "catalog", Version: "test"}, nil)
	mcp.AddTool(s, &mcp.Tool{Name: "search_items", Description: "search the catalog"},
		func(ctx context.Context, req *mcp.CallToolRequest, in searchArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{
				&mcp.TextContent{Text: "standard: " + in.Query},
				&mcp.TextContent{Text: "owner: platform"},
			}}, nil, nil
		})
	mcp.AddTool(s, &mcp.Tool{Name: "delete_all", Description: "dangerous"},
		func(ctx context.Context, req *mcp.CallToolRequest, in struct{}) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "deleted"}}}, nil, nil
		})
	mcp.AddTool(s, &mcp.Tool{Name: "get_factsheet", Description: "fetch a fact sheet"},
		func(ctx context.Context, req *mcp.CallToolRequest, in searchArgs) (*mcp.CallToolResult, any, error) {
			return nil, nil, errors.New("fact sheet " + in.Query + " not found")
		})
	return s
}

// memoryDialer connects each descriptor to its server over in-memory
// transports and keeps the server sessions so tests can wait for closure.
type memoryDialer struct {
	servers map[string]*mcp.Server

	mu       sync.Mutex
	sessions []*mcp.ServerSession
	order    []string
}

func (m *memoryDialer) dial(ctx context.Context, d Descriptor) (mcp.Transport, error) {
	srv, ok := m.servers[d.ProviderName]
	if !ok {
		return nil, errors.New("no server for " + d.ProviderName)
	}
	ct, st := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, st, nil)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions = append(m.sessions, ss)
	m.order = append(m.order, d.ProviderName)
	m.mu.Unlock()
	return ct, nil
}

// waitClosed fails unless every server session ends promptly.
func (m *memoryDialer) waitClosed(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	sessions := append([]*mcp.ServerSession(nil), m.sessions...)
	m.mu.Unlock()
	if len(sessions) == 0 {
		t.Fatal("no sessions were opened")
	}
	for _, ss := range sessions {
		done := make(chan struct{})
		go func() { _ = ss.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("upstream session was not closed")
		}
	}
}

func descriptorsFor(names ...string) map[string]Descriptor {
	out := map[string]Descriptor{}
	for _, n := range names {
		out[n] = Descriptor{ProviderName: n, Transport: config.TransportStreamableHTTP, URL: "memory://" + n}
	}
	return out
}

func TestOpen_ListsTools(t *testing.T) {
	m := &memoryDialer{servers: map[string]*mcp.Server{"leanix": newCatalogServer()}}
	s, err := Open(context.Background(), descriptorsFor("leanix"), WithDialer(m.dial))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	names := s.Tools().Names()
	want := []string{"search_items", "delete_all", "get_factsheet"}
	if !reflect.DeepEqual(sortedCopy(names), sortedCopy(want)) {
		t.Fatalf("tools=%v", names)
	}
	d := agent.DescribeTool(s.Tools()[0])
	if d.Description == "" {
		t.Fatalf("description missing: %+v", d)
	}
	search, _ := s.Tools().Lookup("search_items")
	if len(search.Describe().InputSchema) == 0 {
		t.Fatal("input schema missing")
	}
}

func TestInvoke_TextAndReportedErrors(t *testing.T) {
	m := &memoryDialer{servers: map[string]*mcp.Server{"leanix": newCatalogServer()}}
	s, err := Open(context.Background(), descriptorsFor("leanix"), WithDialer(m.dial))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	search, _ := s.Tools().Lookup("search_items")
	out, err := search.Invoke(context.Background(), map[string]any{"query": "logging"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "standard: logging\nowner: platform" {
		t.Fatalf("out=%q", out)
	}

	fs, _ := s.Tools().Lookup("get_factsheet")
	_, err = fs.Invoke(context.Background(), map[string]any{"query": "X"})
	var reported *agent.ToolReportedError
	if !errors.As(err, &reported) {
		t.Fatalf("want ToolReportedError, got %T %v", err, err)
	}
	if reported.Message != "fact sheet X not found" {
		t.Fatalf("message=%q", reported.Message)
	}
}

func TestWithTools_ClosesOnSuccessErrorCancelAndPanic(t *testing.T) {
	cases := map[string]func(ctx context.Context, cancel context.CancelFunc, tools agent.ToolSet) error{
		"success": func(context.Context, context.CancelFunc, agent.ToolSet) error { return nil },
		"error": func(context.Context, context.CancelFunc, agent.ToolSet) error {
			return errors.New("executor failed")
		},
		"cancel": func(ctx context.Context, cancel context.CancelFunc, tools agent.ToolSet) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		},
		"panic": func(context.Context, context.CancelFunc, agent.ToolSet) error { panic("boom") },
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			m := &memoryDialer{servers: map[string]*mcp.Server{"leanix": newCatalogServer()}}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var kept agent.ToolSet
			func() {
				defer func() { _ = recover() }()
				_ = WithTools(ctx, descriptorsFor("leanix"), func(ctx context.Context, tools agent.ToolSet) error {
					kept = tools
					return body(ctx, cancel, tools)
				}, WithDialer(m.dial))
			}()
			m.waitClosed(t)

			// Tools must refuse to run once their scope is gone.
			search, ok := kept.Lookup("search_items")
			if !ok {
				t.Fatal("tools not handed to fn")
			}
			_, err := search.Invoke(context.Background(), map[string]any{"query": "late"})
			ce := errmodel.From(err)
			if ce == nil || ce.Category != errmodel.CategoryTool || ce.Code != "session_closed" {
				t.Fatalf("invoke after close: %v", err)
			}
		})
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	m := &memoryDialer{servers: map[string]*mcp.Server{"leanix": newCatalogServer()}}
	s, err := Open(context.Background(), descriptorsFor("leanix"), WithDialer(m.dial))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first := s.Close()
	for i := 0; i < 3; i++ {
		if err := s.Close(); err != first {
			t.Fatalf("close %d returned %v, first was %v", i, err, first)
		}
	}
	m.waitClosed(t)
}

func TestOpen_ProvidersConnectInNameOrder(t *testing.T) {
	beta := mcp.NewServer(&mcp.Implementation{Name: "beta"}, nil)
	mcp.AddTool(beta, &mcp.Tool{Name: "find_beta"}, func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{}, nil, nil
	})
	m := &memoryDialer{servers: map[string]*mcp.Server{"leanix": newCatalogServer(), "beta": beta}}
	s, err := Open(context.Background(), descriptorsFor("leanix", "beta"), WithDialer(m.dial))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if !reflect.DeepEqual(m.order, []string{"beta", "leanix"}) {
		t.Fatalf("order=%v", m.order)
	}
	if !reflect.DeepEqual(s.Providers(), []string{"beta", "leanix"}) {
		t.Fatalf("providers=%v", s.Providers())
	}
	if len(s.Tools()) != 4 || s.Tools()[0].Describe().Name != "find_beta" {
		t.Fatalf("tools=%v", s.Tools().Names())
	}
	out, err := s.Tools()[0].Invoke(context.Background(), nil)
	if err != nil || out != noOutput {
		t.Fatalf("empty result: %q %v", out, err)
	}
}

func TestOpen_FailureClosesEarlierProviders(t *testing.T) {
	m := &memoryDialer{servers: map[string]*mcp.Server{"alpha": newCatalogServer()}}
	_, err := Open(context.Background(), descriptorsFor("alpha", "zulu"), WithDialer(m.dial))
	if !errmodel.IsCategory(err, errmodel.CategoryConnection) {
		t.Fatalf("want connection error, got %v", err)
	}
	m.waitClosed(t)
}

func TestOpen_MissingURLIsConfigurationError(t *testing.T) {
	d := map[string]Descriptor{"leanix": {ProviderName: "leanix", Transport: config.TransportSSE}}
	_, err := Open(context.Background(), d)
	ce := errmodel.From(err)
	if ce == nil || ce.Category != errmodel.CategoryConfiguration || ce.Code != "missing_url" {
		t.Fatalf("err=%v", err)
	}
}

func TestOpen_UnreachableServerIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/mcp"
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Open(ctx, map[string]Descriptor{"leanix": {ProviderName: "leanix", Transport: config.TransportStreamableHTTP, URL: url}})
	if !errmodel.IsCategory(err, errmodel.CategoryConnection) {
		t.Fatalf("want connection error, got %v", err)
	}
}

func TestOpen_StreamableHTTPSendsBearer(t *testing.T) {
	server := newCatalogServer()
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)

	var mu sync.Mutex
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()
		handler.ServeHTTP(w, r)
	}))
	defer srv.Close()

	descs := BuildDescriptors(config.UpstreamConfig{
		ServerName: "leanix",
		Transport:  config.TransportStreamableHTTP,
		URL:        srv.URL,
		AuthBearer: "secret-token",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := WithTools(ctx, descs, func(ctx context.Context, tools agent.ToolSet) error {
		search, ok := tools.Lookup("search_items")
		if !ok {
			return errors.New("search_items missing")
		}
		_, err := search.Invoke(ctx, map[string]any{"query": "kafka"})
		return err
	})
	if err != nil {
		t.Fatalf("with tools: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(auth) == 0 {
		t.Fatal("no requests reached the server")
	}
	for _, a := range auth {
		if a != "Bearer secret-token" {
			t.Fatalf("request without bearer: %q", a)
		}
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
