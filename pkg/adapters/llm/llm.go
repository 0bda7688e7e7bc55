package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message with a role and content.
// Assistant messages may carry tool calls; tool messages answer one call by ID.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	// Name is the tool name on tool messages.
	Name string
}

// ToolCall is one function call requested by the model.
// Arguments is the raw JSON object the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec declares a tool to the model. Parameters is a JSON Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Request is one reasoning step: the full conversation plus the tools the
// model may call.
type Request struct {
	Model       string
	Temperature float64
	Messages    []Message
	Tools       []ToolSpec
}

// GenerateResult contains the model's text output, requested tool calls and token usage if available.
type GenerateResult struct {
	Text         string
	ToolCalls    []ToolCall
	PromptTokens int
	OutputTokens int
	TotalTokens  int
	Model        string
}

// LLM defines a minimal chat interface with tool calling.
type LLM interface {
	// Name returns provider name (e.g., "openai").
	Name() string
	// Generate runs one step. A result without tool calls is a final answer.
	Generate(ctx context.Context, req Request) (GenerateResult, error)
}

// Factory constructs an LLM from provider-specific config.
type Factory func(ctx context.Context, cfg map[string]any) (LLM, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers an LLM factory under a provider name.
func Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("llm: empty provider name")
	}
	if f == nil {
		return fmt.Errorf("llm: nil factory for %q", name)
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("llm: provider %q already registered", name)
	}
	factories[name] = f
	return nil
}

// Resolve gets a registered factory by name.
func Resolve(name string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Names lists registered providers in sorted order.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New resolves the named provider and builds it.
func New(ctx context.Context, name string, cfg map[string]any) (LLM, error) {
	f, ok := Resolve(name)
	if !ok {
		return nil, fmt.Errorf("llm: provider %q not registered", name)
	}
	return f(ctx, cfg)
}
