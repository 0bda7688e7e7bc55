package agent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/designgate/pkg/adapters/llm"
	"github.com/wilhg/designgate/pkg/errmodel"
)

// Executor drives one query through a reasoning engine.
// It holds no per-query state and may be shared across goroutines.
type Executor struct {
	engine   llm.LLM
	validate ValidateFunc
	clip     func(string) string
	log      zerolog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithValidator replaces the tool-argument validator.
func WithValidator(v ValidateFunc) ExecutorOption {
	return func(e *Executor) { e.validate = v }
}

// WithOutputClipper bounds tool output before it enters the conversation.
func WithOutputClipper(clip func(string) string) ExecutorOption {
	return func(e *Executor) { e.clip = clip }
}

// WithLogger sets the executor logger.
func WithLogger(l zerolog.Logger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

// NewExecutor returns an executor bound to engine.
func NewExecutor(engine llm.LLM, opts ...ExecutorOption) *Executor {
	e := &Executor{engine: engine, validate: JSONSchemaValidator, log: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes query against b until the engine produces a final answer.
func (e *Executor) Run(ctx context.Context, b Binding, query string) (Answer, error) {
	tr := otel.Tracer("agent/executor")
	ctx, span := tr.Start(ctx, "Executor.Run", trace.WithAttributes(
		attribute.String("agent.model", b.ModelID),
		attribute.Int("agent.tools", len(b.Tools)),
		attribute.Int("agent.max_steps", b.MaxSteps),
	))
	defer span.End()

	ans, err := e.run(ctx, b, query)
	span.SetAttributes(attribute.Int("agent.steps", ans.Steps), attribute.Int("agent.tool_calls", len(ans.ToolCalls)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return ans, err
}

func (e *Executor) run(ctx context.Context, b Binding, query string) (Answer, error) {
	var ans Answer
	if e.engine == nil {
		return ans, errmodel.Configuration("missing_engine", "no reasoning engine configured", nil)
	}
	maxSteps := b.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	msgs := b.Conversation([]llm.Message{{Role: llm.RoleUser, Content: query}})
	specs := b.Tools.Specs()

	state := StateAwaitingEngine
	for step := 1; state != StateTerminal; step++ {
		if err := ctx.Err(); err != nil {
			return ans, err
		}
		res, err := e.step(ctx, b, msgs, specs, step)
		if err != nil {
			if ctx.Err() != nil {
				return ans, ctx.Err()
			}
			return ans, errmodel.Reasoning("engine_failed", "reasoning engine step failed", map[string]any{"step": step, "state": string(state)}, err)
		}
		ans.Steps = step
		ans.Usage.add(res)

		if len(res.ToolCalls) == 0 {
			ans.Text = res.Text
			state = StateTerminal
			continue
		}
		if step >= maxSteps {
			return ans, errmodel.Reasoning("max_steps_exceeded", "reasoning did not finish within the step limit", map[string]any{"max_steps": maxSteps}, nil)
		}

		state = StateDispatching
		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: res.Text, ToolCalls: res.ToolCalls})
		for _, call := range res.ToolCalls {
			content, err := e.tool(ctx, b.Tools, call)
			rec := ToolCallRecord{Step: step, ID: call.ID, Name: call.Name, Arguments: call.Arguments}
			if err != nil {
				rec.Error = err.Error()
				ans.ToolCalls = append(ans.ToolCalls, rec)
				if ctx.Err() != nil {
					return ans, ctx.Err()
				}
				return ans, err
			}
			if strings.HasPrefix(content, toolErrorPrefix) {
				rec.Error = strings.TrimPrefix(content, toolErrorPrefix)
			}
			ans.ToolCalls = append(ans.ToolCalls, rec)
			msgs = append(msgs, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Name: call.Name, Content: content})
		}
		state = StateAwaitingEngine
	}
	return ans, nil
}

func (e *Executor) step(ctx context.Context, b Binding, msgs []llm.Message, specs []llm.ToolSpec, n int) (llm.GenerateResult, error) {
	ctx, span := otel.Tracer("agent/executor").Start(ctx, "Executor.step", trace.WithAttributes(
		attribute.Int("agent.step", n),
		attribute.Int("agent.messages", len(msgs)),
	))
	defer span.End()

	res, err := e.engine.Generate(ctx, llm.Request{
		Model:       b.ModelID,
		Temperature: b.Temperature,
		Messages:    msgs,
		Tools:       specs,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(attribute.Int("agent.requested_calls", len(res.ToolCalls)))
	e.log.Debug().Int("step", n).Int("tool_calls", len(res.ToolCalls)).Msg("engine step")
	return res, nil
}

func (e *Executor) tool(ctx context.Context, tools ToolSet, call llm.ToolCall) (string, error) {
	ctx, span := otel.Tracer("agent/executor").Start(ctx, "Executor.tool", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	))
	defer span.End()

	content, err := dispatch(ctx, tools, call, e.validate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if strings.HasPrefix(content, toolErrorPrefix) {
		span.SetAttributes(attribute.Bool("tool.reported_error", true))
		e.log.Debug().Str("tool", call.Name).Str("error", content).Msg("tool call fed back as error")
		return content, nil
	}
	if e.clip != nil {
		content = e.clip(content)
	}
	return content, nil
}
