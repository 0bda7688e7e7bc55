package mcpclient

import (
	"github.com/wilhg/designgate/pkg/config"
	"github.com/wilhg/designgate/pkg/errmodel"
)

// Descriptor holds what is needed to reach one upstream provider.
type Descriptor struct {
	ProviderName string
	Transport    string
	URL          string
	Headers      map[string]string
	Command      string
	Args         []string
}

// BuildDescriptors maps the upstream configuration to one descriptor keyed by
// provider name. It never opens a connection.
func BuildDescriptors(u config.UpstreamConfig) map[string]Descriptor {
	d := Descriptor{ProviderName: u.ServerName, Transport: u.Transport}
	if config.IsNetworkTransport(u.Transport) {
		d.URL = u.URL
		if u.AuthBearer != "" {
			d.Headers = map[string]string{"Authorization": "Bearer " + u.AuthBearer}
		}
	} else {
		d.Command = u.Command
		d.Args = append([]string(nil), u.Args...)
	}
	return map[string]Descriptor{u.ServerName: d}
}

// Validate rejects descriptors that cannot be dialed.
func (d Descriptor) Validate() error {
	switch d.Transport {
	case config.TransportStreamableHTTP, config.TransportSSE:
		if d.URL == "" {
			return errmodel.Configuration("missing_url", "network transport requires a URL", map[string]any{"provider": d.ProviderName, "transport": d.Transport})
		}
	case config.TransportStdio:
		if d.Command == "" {
			return errmodel.Configuration("missing_command", "stdio transport requires a command", map[string]any{"provider": d.ProviderName})
		}
	default:
		return errmodel.Configuration("unknown_transport", "unsupported upstream transport", map[string]any{"provider": d.ProviderName, "transport": d.Transport})
	}
	return nil
}
