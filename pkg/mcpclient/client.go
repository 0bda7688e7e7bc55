// Package mcpclient discovers and invokes tools on upstream MCP providers.
// A Session is scoped to one query: it is opened, used and closed, and the
// tools it hands out stop working once it is closed.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wilhg/designgate/pkg/agent"
	"github.com/wilhg/designgate/pkg/errmodel"
)

// Version is reported to upstream providers during initialization.
var Version = "dev"

type options struct {
	dial       Dialer
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures Open.
type Option func(*options)

// WithHTTPClient sets the base client for network transports. Its transport
// is wrapped to add descriptor headers and tracing.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithDialer replaces transport construction, e.g. with in-memory transports.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dial = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// providerSession is one live connection.
type providerSession struct {
	name   string
	cs     *mcp.ClientSession
	closed atomic.Bool
}

func (p *providerSession) close() error {
	p.closed.Store(true)
	return p.cs.Close()
}

// Session holds the connections and tools of one query.
type Session struct {
	providers []*providerSession
	tools     agent.ToolSet

	closeOnce sync.Once
	closeErr  error
	log       zerolog.Logger
}

// Tools returns the discovered tools in discovery order.
func (s *Session) Tools() agent.ToolSet { return s.tools }

// Providers returns the connected provider names in connection order.
func (s *Session) Providers() []string {
	out := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p.name)
	}
	return out
}

// Close closes every provider connection. Only the first call does work.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		for _, p := range s.providers {
			if err := p.close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
		s.log.Debug().Int("providers", len(s.providers)).Msg("upstream session closed")
	})
	return s.closeErr
}

// Open connects to every descriptor in name order and lists its tools.
// On failure all connections opened so far are closed.
func Open(ctx context.Context, descriptors map[string]Descriptor, opts ...Option) (*Session, error) {
	o := options{log: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.dial == nil {
		o.dial = defaultDialer(o.httpClient)
	}

	ctx, span := otel.Tracer("mcpclient").Start(ctx, "mcpclient.Open")
	defer span.End()

	names := make([]string, 0, len(descriptors))
	for n := range descriptors {
		names = append(names, n)
	}
	sort.Strings(names)
	span.SetAttributes(attribute.StringSlice("mcp.providers", names))

	s := &Session{log: o.log}
	client := mcp.NewClient(&mcp.Implementation{Name: "designgate", Version: Version}, nil)
	seen := map[string]string{}
	for _, name := range names {
		d := descriptors[name]
		if d.ProviderName == "" {
			d.ProviderName = name
		}
		ps, tools, err := openProvider(ctx, client, o.dial, d)
		if err != nil {
			_ = s.Close()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		s.providers = append(s.providers, ps)
		for _, t := range tools {
			tn := t.Describe().Name
			if prev, dup := seen[tn]; dup {
				o.log.Warn().Str("tool", tn).Str("provider", name).Str("kept_from", prev).Msg("tool name advertised by several providers")
				continue
			}
			seen[tn] = name
			s.tools = append(s.tools, t)
		}
		o.log.Info().Str("provider", name).Int("tools", len(tools)).Msg("loaded upstream tools")
	}
	span.SetAttributes(attribute.Int("mcp.tools", len(s.tools)))
	return s, nil
}

func openProvider(ctx context.Context, client *mcp.Client, dial Dialer, d Descriptor) (*providerSession, []agent.Tool, error) {
	ectx := map[string]any{"provider": d.ProviderName, "transport": d.Transport}
	t, err := dial(ctx, d)
	if err != nil {
		if errmodel.IsCategory(err, errmodel.CategoryConfiguration) {
			return nil, nil, err
		}
		return nil, nil, errmodel.Connection("dial_failed", "cannot build upstream transport", ectx, err)
	}
	cs, err := client.Connect(ctx, t, nil)
	if err != nil {
		return nil, nil, errmodel.Connection("connect_failed", "cannot connect to upstream provider", ectx, err)
	}
	ps := &providerSession{name: d.ProviderName, cs: cs}

	listed, err := listAll(ctx, cs)
	if err != nil {
		_ = ps.close()
		return nil, nil, errmodel.Protocol("list_tools_failed", "listing upstream tools failed", ectx, err)
	}
	tools, err := toTools(ps, listed)
	if err != nil {
		_ = ps.close()
		return nil, nil, err
	}
	return ps, tools, nil
}

// listAll follows pagination cursors until the provider stops returning one.
func listAll(ctx context.Context, cs *mcp.ClientSession) ([]*mcp.Tool, error) {
	var out []*mcp.Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := cs.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Tools...)
		if res.NextCursor == "" {
			return out, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

// toTools checks the listing contract and wraps each tool.
func toTools(ps *providerSession, listed []*mcp.Tool) ([]agent.Tool, error) {
	out := make([]agent.Tool, 0, len(listed))
	names := map[string]bool{}
	for i, t := range listed {
		if t == nil || t.Name == "" {
			return nil, errmodel.Protocol("invalid_tool", "upstream tool has no name", map[string]any{"provider": ps.name, "index": i}, nil)
		}
		if names[t.Name] {
			return nil, errmodel.Protocol("duplicate_tool", "upstream advertised a tool twice", map[string]any{"provider": ps.name, "tool": t.Name}, nil)
		}
		names[t.Name] = true

		var schema []byte
		if t.InputSchema != nil {
			b, err := json.Marshal(t.InputSchema)
			if err != nil {
				return nil, errmodel.Protocol("invalid_schema", "upstream tool schema cannot be encoded", map[string]any{"provider": ps.name, "tool": t.Name}, err)
			}
			if string(b) != "null" {
				schema = b
			}
		}
		if err := agent.CompileJSONSchema(schema); err != nil {
			return nil, errmodel.Protocol("invalid_schema", "upstream tool schema is not a valid JSON Schema", map[string]any{"provider": ps.name, "tool": t.Name}, err)
		}
		out = append(out, &remoteTool{
			session: ps,
			desc:    agent.ToolDescriptor{Name: t.Name, Description: t.Description, InputSchema: schema},
		})
	}
	return out, nil
}
