package agent

import (
	"context"
	"encoding/json"

	"github.com/wilhg/designgate/pkg/adapters/llm"
)

// ToolDescriptor declares the static interface of a tool.
// InputSchema is a JSON Schema object in UTF-8 bytes; empty means "any object".
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema []byte `json:"input_schema,omitempty"`
}

// Tool is one invocable capability advertised by an upstream provider.
// Implementations are only valid while the session that produced them is open.
type Tool interface {
	// Describe returns the public descriptor.
	Describe() ToolDescriptor
	// Invoke executes the tool with validated args and returns its text output.
	// A failure the tool itself reports is returned as *ToolReportedError.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// DescribeTool is a helper to get a ToolDescriptor from a Tool (nil-safe).
func DescribeTool(t Tool) ToolDescriptor {
	if t == nil {
		return ToolDescriptor{}
	}
	return t.Describe()
}

// ToolReportedError is a failure returned by the tool itself (as opposed to
// the transport). The executor hands it back to the engine as a tool message.
type ToolReportedError struct {
	Tool    string
	Message string
}

func (e *ToolReportedError) Error() string {
	if e.Message == "" {
		return "tool " + e.Tool + " reported an error"
	}
	return e.Message
}

// ToolSet is an ordered collection of tools. Order is discovery order.
type ToolSet []Tool

// Names returns tool names in order.
func (s ToolSet) Names() []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		out = append(out, DescribeTool(t).Name)
	}
	return out
}

// Lookup finds a tool by exact name.
func (s ToolSet) Lookup(name string) (Tool, bool) {
	for _, t := range s {
		if t != nil && t.Describe().Name == name {
			return t, true
		}
	}
	return nil, false
}

// Specs declares the set to the reasoning engine.
func (s ToolSet) Specs() []llm.ToolSpec {
	out := make([]llm.ToolSpec, 0, len(s))
	for _, t := range s {
		d := DescribeTool(t)
		var params json.RawMessage
		if len(d.InputSchema) > 0 {
			params = json.RawMessage(d.InputSchema)
		}
		out = append(out, llm.ToolSpec{Name: d.Name, Description: d.Description, Parameters: params})
	}
	return out
}
