package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/wilhg/designgate/pkg/adapters/llm"
)

const (
	defaultModel = "gpt-4.1-mini"
)

type clientWrapper struct {
	client oa.Client
	model  string
}

func (c *clientWrapper) Name() string { return "openai" }

func (c *clientWrapper) Generate(ctx context.Context, req llm.Request) (llm.GenerateResult, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	params := oa.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    toMessages(req.Messages),
		Temperature: oa.Float(req.Temperature),
	}
	if len(req.Tools) > 0 {
		tools, err := toTools(req.Tools)
		if err != nil {
			return llm.GenerateResult{}, err
		}
		params.Tools = tools
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.GenerateResult{}, err
	}
	out := llm.GenerateResult{
		PromptTokens: int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
		Model:        model,
	}
	if len(resp.Choices) == 0 {
		return out, fmt.Errorf("openai: response has no choices")
	}
	msg := resp.Choices[0].Message
	out.Text = msg.Content
	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// toMessages maps our messages to the SDK union type.
func toMessages(messages []llm.Message) []oa.ChatCompletionMessageParamUnion {
	mm := make([]oa.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser:
			mm = append(mm, oa.UserMessage(m.Content))
		case llm.RoleSystem:
			mm = append(mm, oa.SystemMessage(m.Content))
		case llm.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				mm = append(mm, oa.AssistantMessage(m.Content))
				continue
			}
			asst := oa.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = oa.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, oa.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &oa.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: oa.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					},
				})
			}
			mm = append(mm, oa.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case llm.RoleTool:
			mm = append(mm, oa.ToolMessage(m.Content, m.ToolCallID))
		default:
			mm = append(mm, oa.UserMessage(m.Content))
		}
	}
	return mm
}

func toTools(specs []llm.ToolSpec) ([]oa.ChatCompletionToolUnionParam, error) {
	out := make([]oa.ChatCompletionToolUnionParam, 0, len(specs))
	for _, s := range specs {
		params := shared.FunctionParameters{"type": "object", "properties": map[string]any{}}
		if len(s.Parameters) > 0 {
			var m map[string]any
			if err := json.Unmarshal(s.Parameters, &m); err != nil {
				return nil, fmt.Errorf("openai: tool %q has invalid parameters schema: %w", s.Name, err)
			}
			params = shared.FunctionParameters(m)
		}
		def := shared.FunctionDefinitionParam{
			Name:       s.Name,
			Parameters: params,
		}
		if s.Description != "" {
			def.Description = oa.String(s.Description)
		}
		out = append(out, oa.ChatCompletionFunctionTool(def))
	}
	return out, nil
}

// Factory registers the OpenAI LLM provider: cfg keys: api_key, model, base_url
func Factory(ctx context.Context, cfg map[string]any) (llm.LLM, error) { // nolint: revive
	_ = ctx
	apiKey := os.Getenv("OPENAI_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: missing API key; set OPENAI_API_KEY or cfg.api_key")
	}
	model := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		model = v
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if v, ok := cfg["base_url"].(string); ok && v != "" {
		opts = append(opts, option.WithBaseURL(v))
	}
	c := oa.NewClient(opts...)
	return &clientWrapper{client: c, model: model}, nil
}

func init() {
	_ = llm.Register("openai", Factory)
}
