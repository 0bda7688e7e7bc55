package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/wilhg/designgate/pkg/adapters/llm"
	"github.com/wilhg/designgate/pkg/errmodel"
)

// toolErrorPrefix marks tool messages that carry a failure back to the engine.
const toolErrorPrefix = "error: "

// dispatch resolves and invokes one requested call. Failures the engine can
// recover from come back as an "error: " tool message; only transport-level
// failures abort the run.
func dispatch(ctx context.Context, tools ToolSet, call llm.ToolCall, validate ValidateFunc) (string, error) {
	tool, ok := tools.Lookup(call.Name)
	if !ok {
		return toolErrorPrefix + "unknown tool " + call.Name, nil
	}
	args, err := decodeArgs(call.Arguments)
	if err != nil {
		return toolErrorPrefix + "invalid arguments: " + err.Error(), nil
	}
	out, err := SafeInvoke(ctx, tool, args, validate)
	if err == nil {
		return out, nil
	}
	var reported *ToolReportedError
	if errors.As(err, &reported) {
		return toolErrorPrefix + reported.Error(), nil
	}
	if errmodel.IsCategory(err, errmodel.CategoryValidation) {
		msg := errmodel.From(err).Message
		if detail, ok := errmodel.From(err).Context["error"].(string); ok {
			msg += ": " + detail
		}
		return toolErrorPrefix + msg, nil
	}
	if errmodel.IsCategory(err, errmodel.CategoryTool) {
		return "", err
	}
	return "", errmodel.Tool("invoke_failed", "tool invocation failed", map[string]any{"tool": call.Name}, err)
}

func decodeArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
