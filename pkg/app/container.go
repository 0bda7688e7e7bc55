// Package app wires the designgate services using go.uber.org/dig.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/dig"

	"github.com/wilhg/designgate/pkg/adapters/llm"
	_ "github.com/wilhg/designgate/pkg/adapters/llm/gemini"
	_ "github.com/wilhg/designgate/pkg/adapters/llm/openai"
	"github.com/wilhg/designgate/pkg/agent"
	"github.com/wilhg/designgate/pkg/config"
	"github.com/wilhg/designgate/pkg/gateway"
	"github.com/wilhg/designgate/pkg/mcpclient"
	"github.com/wilhg/designgate/pkg/mcpserver"
	"github.com/wilhg/designgate/pkg/runtime/assembler"
	"github.com/wilhg/designgate/pkg/store"
	"github.com/wilhg/designgate/pkg/store/entstore"
)

// Container holds the resolved service singletons.
type Container struct {
	cfg     *config.Config
	engine  llm.LLM
	journal store.Journal
	gw      *gateway.Gateway
	server  *mcpserver.Server
}

func (c *Container) Config() *config.Config       { return c.cfg }
func (c *Container) Engine() llm.LLM              { return c.engine }
func (c *Container) Journal() store.Journal       { return c.journal }
func (c *Container) Gateway() *gateway.Gateway    { return c.gw }
func (c *Container) MCPServer() *mcpserver.Server { return c.server }

// Close releases the journal.
func (c *Container) Close() error {
	if c.journal == nil {
		return nil
	}
	return c.journal.Close()
}

// serviceVersion lets dig tell the build version apart from other strings.
type serviceVersion string

type options struct {
	engine     llm.LLM
	journal    store.Journal
	clientOpts []mcpclient.Option
}

// Option overrides a wired service, mostly for tests.
type Option func(*options)

// WithEngine uses e instead of the configured provider.
func WithEngine(e llm.LLM) Option { return func(o *options) { o.engine = e } }

// WithJournal uses j instead of the configured journal.
func WithJournal(j store.Journal) Option { return func(o *options) { o.journal = j } }

// WithClientOptions passes options to every upstream session.
func WithClientOptions(opts ...mcpclient.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// New builds and wires all services from cfg. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, version string, opts ...Option) (*Container, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	d := dig.New()

	provide := []any{
		func() *config.Config { return cfg },
		func() zerolog.Logger { return log },
		func() serviceVersion { return serviceVersion(version) },
		func() options { return o },
		func() context.Context { return ctx },
		newEngine,
		newClipper,
		newExecutor,
		newJournal,
		newGateway,
		newMCPServer,
	}
	for _, p := range provide {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(engine llm.LLM, journal store.Journal, gw *gateway.Gateway, srv *mcpserver.Server) {
		result = &Container{cfg: cfg, engine: engine, journal: journal, gw: gw, server: srv}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return result, nil
}

func newEngine(ctx context.Context, cfg *config.Config, o options) (llm.LLM, error) {
	if o.engine != nil {
		return o.engine, nil
	}
	params := map[string]any{"model": cfg.LLM.Model}
	switch cfg.LLM.Provider {
	case "gemini":
		params["api_key"] = cfg.LLM.GoogleAPIKey
	default:
		params["api_key"] = cfg.LLM.APIKey
		params["base_url"] = cfg.LLM.BaseURL
	}
	engine, err := llm.New(ctx, cfg.LLM.Provider, params)
	if err != nil {
		return nil, fmt.Errorf("build %s engine: %w", cfg.LLM.Provider, err)
	}
	return engine, nil
}

func newClipper(cfg *config.Config, log zerolog.Logger) *assembler.Assembler {
	est, err := assembler.NewTikTokenEstimator(cfg.LLM.Model)
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer unavailable, using approximate token counts")
		est = assembler.ApproxEstimator
	}
	return assembler.New(assembler.WithTokenEstimator(est), assembler.WithMaxTokens(cfg.Agent.ToolOutputTokens))
}

func newExecutor(engine llm.LLM, clip *assembler.Assembler, log zerolog.Logger) *agent.Executor {
	return agent.NewExecutor(engine,
		agent.WithOutputClipper(clip.ClipText),
		agent.WithLogger(log.With().Str("component", "agent").Logger()),
	)
}

func newJournal(ctx context.Context, cfg *config.Config, o options) (store.Journal, error) {
	if o.journal != nil {
		return o.journal, nil
	}
	if cfg.Journal.DatabaseURL == "" {
		return store.NewMemoryJournal(), nil
	}
	st, err := entstore.Open(ctx, cfg.Journal.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func newGateway(cfg *config.Config, engine llm.LLM, exec *agent.Executor, journal store.Journal, log zerolog.Logger, o options) *gateway.Gateway {
	clientOpts := append([]mcpclient.Option{mcpclient.WithLogger(log.With().Str("component", "mcpclient").Logger())}, o.clientOpts...)
	return gateway.New(gateway.SettingsFrom(cfg), engine,
		gateway.WithExecutor(exec),
		gateway.WithJournal(journal),
		gateway.WithLogger(log.With().Str("component", "gateway").Logger()),
		gateway.WithClientOptions(clientOpts...),
	)
}

func newMCPServer(gw *gateway.Gateway, version serviceVersion, log zerolog.Logger) *mcpserver.Server {
	return mcpserver.New(gw, string(version), mcpserver.WithLogger(log.With().Str("component", "mcpserver").Logger()))
}
