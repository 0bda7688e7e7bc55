package agent

import "github.com/wilhg/designgate/pkg/adapters/llm"

// DefaultMaxSteps bounds the number of engine steps in one run.
const DefaultMaxSteps = 15

// Binding is everything one query needs: model identity, the filtered tools
// and the fixed directive. It is built per query and never reused.
type Binding struct {
	ModelID     string
	Temperature float64
	Tools       ToolSet
	Directive   string
	MaxSteps    int
}

// BuildOption customizes a Binding.
type BuildOption func(*Binding)

// WithMaxSteps overrides the step cap. Non-positive values are ignored.
func WithMaxSteps(n int) BuildOption {
	return func(b *Binding) {
		if n > 0 {
			b.MaxSteps = n
		}
	}
}

// Build composes a binding. It performs no I/O.
func Build(modelID string, temperature float64, tools ToolSet, directive string, opts ...BuildOption) Binding {
	b := Binding{
		ModelID:     modelID,
		Temperature: temperature,
		Tools:       append(ToolSet(nil), tools...),
		Directive:   directive,
		MaxSteps:    DefaultMaxSteps,
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Conversation returns a new conversation with the directive at index 0.
// Caller-supplied copies of the directive are dropped so it appears once.
func (b Binding) Conversation(msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: b.Directive})
	for _, m := range msgs {
		if m.Role == llm.RoleSystem && m.Content == b.Directive {
			continue
		}
		out = append(out, m)
	}
	return out
}
