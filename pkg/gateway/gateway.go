// Package gateway exposes the design-standards operations. Every call builds
// a fresh pipeline: connect upstream, filter tools, bind the agent and run it.
// Callers always get prose back; failures are rendered as error text.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/designgate/pkg/adapters/llm"
	"github.com/wilhg/designgate/pkg/agent"
	"github.com/wilhg/designgate/pkg/config"
	"github.com/wilhg/designgate/pkg/errmodel"
	"github.com/wilhg/designgate/pkg/mcpclient"
	"github.com/wilhg/designgate/pkg/prompt"
	"github.com/wilhg/designgate/pkg/store"
)

// DefaultQueryTimeout bounds one operation call end to end.
const DefaultQueryTimeout = 120 * time.Second

// Result is the outcome of one operation call. Message holds either the
// answer or the rendered error text.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Settings carries the per-call parameters taken from configuration.
type Settings struct {
	Upstream     config.UpstreamConfig
	Model        string
	Temperature  float64
	MaxSteps     int
	QueryTimeout time.Duration
}

// SettingsFrom extracts gateway settings from a loaded configuration.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Upstream:     cfg.Upstream,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		MaxSteps:     cfg.Agent.MaxSteps,
		QueryTimeout: cfg.Agent.QueryTimeout,
	}
}

// Gateway runs operations. It is safe for concurrent use.
type Gateway struct {
	settings   Settings
	executor   *agent.Executor
	prompts    *prompt.Catalog
	journal    store.Journal
	clientOpts []mcpclient.Option
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithJournal records every call in j.
func WithJournal(j store.Journal) Option {
	return func(g *Gateway) { g.journal = j }
}

// WithLogger sets the gateway logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithClientOptions passes options to every upstream session.
func WithClientOptions(opts ...mcpclient.Option) Option {
	return func(g *Gateway) { g.clientOpts = append(g.clientOpts, opts...) }
}

// WithExecutor replaces the executor built from the engine.
func WithExecutor(e *agent.Executor) Option {
	return func(g *Gateway) { g.executor = e }
}

// WithPrompts replaces the built-in prompt catalog.
func WithPrompts(c *prompt.Catalog) Option {
	return func(g *Gateway) { g.prompts = c }
}

// New returns a gateway that reasons with engine.
func New(s Settings, engine llm.LLM, opts ...Option) *Gateway {
	if s.QueryTimeout <= 0 {
		s.QueryTimeout = DefaultQueryTimeout
	}
	g := &Gateway{
		settings: s,
		prompts:  prompt.Default(),
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	if g.executor == nil {
		g.executor = agent.NewExecutor(engine, agent.WithLogger(g.log))
	}
	return g
}

// SearchDesignStandards searches for design standards about topic.
func (g *Gateway) SearchDesignStandards(ctx context.Context, topic string) string {
	return g.Query(ctx, OpSearchDesignStandards, topic).Message
}

// GetArchitecturePatterns fetches patterns for an architecture style.
func (g *Gateway) GetArchitecturePatterns(ctx context.Context, architectureType string) string {
	return g.Query(ctx, OpGetArchitecturePatterns, architectureType).Message
}

// GetTechnologyStandards fetches standards for a technology.
func (g *Gateway) GetTechnologyStandards(ctx context.Context, technology string) string {
	return g.Query(ctx, OpGetTechnologyStandards, technology).Message
}

// GetSecurityGuidelines fetches guidelines for a security area.
func (g *Gateway) GetSecurityGuidelines(ctx context.Context, securityArea string) string {
	return g.Query(ctx, OpGetSecurityGuidelines, securityArea).Message
}

// Query runs the named operation with argument. It never returns an error;
// failures come back with OK false and the error rendered in Message.
func (g *Gateway) Query(ctx context.Context, name, argument string) Result {
	runID := uuid.NewString()
	started := g.now()
	log := g.log.With().Str("run_id", runID).Str("operation", name).Logger()

	ctx, span := otel.Tracer("gateway").Start(ctx, "Gateway.Query", trace.WithAttributes(
		attribute.String("gateway.operation", name),
		attribute.String("gateway.run_id", runID),
	))
	defer span.End()

	log.Info().Str("argument", argument).Msg("operation started")
	ans, err := g.run(ctx, name, argument)
	elapsed := g.now().Sub(started)

	rec := store.RunRecord{
		RunID:     runID,
		Operation: name,
		Argument:  argument,
		Provider:  g.settings.Upstream.ServerName,
		OK:        err == nil,
		ToolCount: len(ans.ToolCalls),
		Steps:     ans.Steps,
		StartedAt: started,
		Duration:  elapsed,
	}
	var res Result
	if err != nil {
		ce := errmodel.From(err)
		rec.ErrorCategory = ce.Category
		rec.ErrorMessage = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("category", ce.Category).Dur("elapsed", elapsed).Msg("operation failed")
		res = Result{Message: errmodel.Prose(g.settings.Upstream.Label(), err)}
	} else {
		log.Info().Int("steps", ans.Steps).Int("tool_calls", len(ans.ToolCalls)).
			Int("tokens", ans.Usage.TotalTokens).Dur("elapsed", elapsed).Msg("operation finished")
		res = Result{OK: true, Message: ans.Text}
	}
	g.record(ctx, log, rec)
	return res
}

// run executes the pipeline and converts panics into system errors.
func (g *Gateway) run(ctx context.Context, name, argument string) (ans agent.Answer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errmodel.System("panic", fmt.Sprintf("pipeline panicked: %v", r), nil, nil)
		}
	}()

	op, ok := Lookup(name)
	if !ok {
		return ans, errmodel.Validation("not_found", "unknown operation", map[string]any{"operation": name})
	}
	query, err := g.prompts.Render(op.Prompt, map[string]string{op.Argument: argument})
	if err != nil {
		return ans, errmodel.System("render_failed", "rendering query", map[string]any{"prompt": op.Prompt}, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.settings.QueryTimeout)
	defer cancel()

	err = mcpclient.WithTools(ctx, mcpclient.BuildDescriptors(g.settings.Upstream), func(ctx context.Context, tools agent.ToolSet) error {
		design := agent.FilterDesignTools(tools)
		b := agent.Build(g.settings.Model, g.settings.Temperature, design, prompt.Directive(), agent.WithMaxSteps(g.settings.MaxSteps))
		var runErr error
		ans, runErr = g.executor.Run(ctx, b, query)
		return runErr
	}, g.clientOpts...)

	if err != nil && errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errmodel.Connection("timeout", "query timed out", map[string]any{"timeout": g.settings.QueryTimeout.String()}, err)
	}
	return ans, err
}

func (g *Gateway) record(ctx context.Context, log zerolog.Logger, rec store.RunRecord) {
	if g.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := g.journal.Record(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("journal record failed")
	}
}
