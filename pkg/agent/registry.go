package agent

import (
	"context"
	"fmt"

	"github.com/wilhg/designgate/pkg/errmodel"
)

// FuncTool adapts a plain function to the Tool interface.
type FuncTool struct {
	Descriptor ToolDescriptor
	Fn         func(ctx context.Context, args map[string]any) (string, error)
}

func (f FuncTool) Describe() ToolDescriptor { return f.Descriptor }

func (f FuncTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	if f.Fn == nil {
		return "", fmt.Errorf("tool %q has no implementation", f.Descriptor.Name)
	}
	return f.Fn(ctx, args)
}

// SafeInvoke validates input against the tool's schema and invokes it.
func SafeInvoke(ctx context.Context, t Tool, args map[string]any, validate ValidateFunc) (string, error) {
	if t == nil {
		return "", errmodel.Validation("bad_tool", "tool is nil", nil)
	}
	d := t.Describe()
	if args == nil {
		args = map[string]any{}
	}
	if validate != nil {
		if err := validate(d.InputSchema, args); err != nil {
			return "", errmodel.Validation("invalid_input", "tool input validation failed", map[string]any{"tool": d.Name, "error": err.Error()})
		}
	}
	return t.Invoke(ctx, args)
}
