// Package agent runs one design-standards query: it scopes a reasoning engine
// to the tools discovered upstream, drives the engine through a bounded
// sequence of steps and dispatches the tool calls it requests.
//
// A run moves through three states:
//
//	awaiting-engine-step -> dispatching-tool-calls -> awaiting-engine-step ...
//	awaiting-engine-step -> terminal
//
// The engine decides each transition; the executor only enforces the step cap.
package agent

import "github.com/wilhg/designgate/pkg/adapters/llm"

// State names the phase of a run. It is reported on spans and in errors.
type State string

const (
	StateAwaitingEngine State = "awaiting-engine-step"
	StateDispatching    State = "dispatching-tool-calls"
	StateTerminal       State = "terminal"
)

// ToolCallRecord is one dispatched call as seen by the run.
type ToolCallRecord struct {
	Step      int    `json:"step"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	// Error is set when the failure was fed back to the engine.
	Error string `json:"error,omitempty"`
}

// Usage sums token counts over all engine steps.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func (u *Usage) add(r llm.GenerateResult) {
	u.PromptTokens += r.PromptTokens
	u.OutputTokens += r.OutputTokens
	u.TotalTokens += r.TotalTokens
}

// Answer is the outcome of a run.
type Answer struct {
	Text      string           `json:"text"`
	Steps     int              `json:"steps"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
	Usage     Usage            `json:"usage"`
}
