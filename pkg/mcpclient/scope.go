package mcpclient

import (
	"context"

	"github.com/wilhg/designgate/pkg/agent"
)

// WithTools opens a session, runs fn with its tools and closes the session on
// every exit path, including panics and cancellation. fn must not retain the
// tools after it returns.
func WithTools(ctx context.Context, descriptors map[string]Descriptor, fn func(ctx context.Context, tools agent.ToolSet) error, opts ...Option) error {
	s, err := Open(ctx, descriptors, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s.Tools())
}
