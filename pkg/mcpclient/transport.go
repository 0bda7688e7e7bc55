package mcpclient

import (
	"context"
	"net/http"
	"os/exec"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wilhg/designgate/pkg/config"
)

// Dialer builds the MCP transport for a descriptor.
type Dialer func(ctx context.Context, d Descriptor) (mcp.Transport, error)

// headerTransport sets fixed headers on every upstream request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if len(h.headers) > 0 {
		r = r.Clone(r.Context())
		for k, v := range h.headers {
			r.Header.Set(k, v)
		}
	}
	return h.base.RoundTrip(r)
}

func httpClientFor(base *http.Client, headers map[string]string) *http.Client {
	rt := http.DefaultTransport
	if base != nil && base.Transport != nil {
		rt = base.Transport
	}
	c := &http.Client{Transport: otelhttp.NewTransport(headerTransport{base: rt, headers: headers})}
	if base != nil {
		c.Timeout = base.Timeout
	}
	return c
}

// defaultDialer supports the streamable HTTP, SSE and stdio transports.
func defaultDialer(base *http.Client) Dialer {
	return func(ctx context.Context, d Descriptor) (mcp.Transport, error) {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		switch d.Transport {
		case config.TransportStreamableHTTP:
			return &mcp.StreamableClientTransport{
				Endpoint:   d.URL,
				HTTPClient: httpClientFor(base, d.Headers),
				// Negative disables reconnect attempts.
				MaxRetries: -1,
			}, nil
		case config.TransportSSE:
			return &mcp.SSEClientTransport{
				Endpoint:   d.URL,
				HTTPClient: httpClientFor(base, d.Headers),
			}, nil
		default:
			// Session.Close terminates the subprocess.
			return &mcp.CommandTransport{Command: exec.Command(d.Command, d.Args...)}, nil
		}
	}
}
