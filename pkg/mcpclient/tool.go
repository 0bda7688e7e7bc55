package mcpclient

import (
	"context"
	"encoding/json"
	"strings"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/designgate/pkg/agent"
	"github.com/wilhg/designgate/pkg/errmodel"
)

const noOutput = "(no output)"

// remoteTool invokes tools/call on the session that listed it.
type remoteTool struct {
	session *providerSession
	desc    agent.ToolDescriptor
}

func (t *remoteTool) Describe() agent.ToolDescriptor { return t.desc }

func (t *remoteTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	ectx := map[string]any{"provider": t.session.name, "tool": t.desc.Name}
	if t.session.closed.Load() {
		return "", errmodel.Tool("session_closed", "upstream session is closed", ectx, nil)
	}
	if args == nil {
		args = map[string]any{}
	}
	res, err := t.session.cs.CallTool(ctx, &mcp.CallToolParams{Name: t.desc.Name, Arguments: args})
	if err != nil {
		return "", errmodel.Tool("call_failed", "upstream tool call failed", ectx, err)
	}
	text := resultText(res)
	if res.IsError {
		return "", &agent.ToolReportedError{Tool: t.desc.Name, Message: text}
	}
	return text, nil
}

// resultText flattens a tool result: text blocks and embedded text resources
// joined by newlines, else the structured content as JSON.
func resultText(res *mcp.CallToolResult) string {
	if res == nil {
		return noOutput
	}
	var parts []string
	for _, c := range res.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			if v.Text != "" {
				parts = append(parts, v.Text)
			}
		case *mcp.EmbeddedResource:
			if v.Resource != nil && v.Resource.Text != "" {
				parts = append(parts, v.Resource.Text)
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	if res.StructuredContent != nil {
		if b, err := json.Marshal(res.StructuredContent); err == nil && string(b) != "null" {
			return string(b)
		}
	}
	return noOutput
}
