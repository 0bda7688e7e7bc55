// Package fake provides a scripted reasoning engine for tests.
package fake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wilhg/designgate/pkg/adapters/llm"
)

// ErrExhausted is returned when an empty script is asked for a step.
var ErrExhausted = errors.New("fake: script exhausted")

// Step produces one engine response.
type Step func(ctx context.Context, req llm.Request) (llm.GenerateResult, error)

// LLM replays its steps in order. Once the script runs out the last step
// repeats, which makes an endlessly tool-calling engine a one-liner.
type LLM struct {
	mu       sync.Mutex
	steps    []Step
	next     int
	requests []llm.Request
}

// New returns a scripted engine.
func New(steps ...Step) *LLM {
	return &LLM{steps: steps}
}

func (f *LLM) Name() string { return "fake" }

func (f *LLM) Generate(ctx context.Context, req llm.Request) (llm.GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return llm.GenerateResult{}, err
	}
	f.mu.Lock()
	cp := req
	cp.Messages = append([]llm.Message(nil), req.Messages...)
	f.requests = append(f.requests, cp)
	if len(f.steps) == 0 {
		f.mu.Unlock()
		return llm.GenerateResult{}, ErrExhausted
	}
	i := f.next
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	} else {
		f.next++
	}
	step := f.steps[i]
	n := len(f.requests)
	f.mu.Unlock()

	res, err := step(ctx, req)
	if err != nil {
		return res, err
	}
	for j := range res.ToolCalls {
		if res.ToolCalls[j].ID == "" {
			res.ToolCalls[j].ID = fmt.Sprintf("call_%d_%d", n, j)
		}
	}
	if res.Model == "" {
		res.Model = req.Model
	}
	return res, nil
}

// Requests returns the requests seen so far.
func (f *LLM) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

// Reply answers with final text.
func Reply(text string) Step {
	return func(context.Context, llm.Request) (llm.GenerateResult, error) {
		return llm.GenerateResult{Text: text, PromptTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
	}
}

// Call requests one tool call with raw JSON arguments.
func Call(name, args string) Step {
	return Calls(llm.ToolCall{Name: name, Arguments: args})
}

// Calls requests several tool calls in one step.
func Calls(calls ...llm.ToolCall) Step {
	return func(context.Context, llm.Request) (llm.GenerateResult, error) {
		out := make([]llm.ToolCall, len(calls))
		copy(out, calls)
		return llm.GenerateResult{ToolCalls: out, PromptTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
	}
}

// Fail returns err from the engine.
func Fail(err error) Step {
	return func(context.Context, llm.Request) (llm.GenerateResult, error) {
		return llm.GenerateResult{}, err
	}
}

// Block waits for the context to end.
func Block() Step {
	return func(ctx context.Context, _ llm.Request) (llm.GenerateResult, error) {
		<-ctx.Done()
		return llm.GenerateResult{}, ctx.Err()
	}
}

// Panic panics with v, for recovery tests.
func Panic(v any) Step {
	return func(context.Context, llm.Request) (llm.GenerateResult, error) {
		panic(v)
	}
}
