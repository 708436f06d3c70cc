package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// LangchainClient adapts a langchaingo model to the Client interface.
// Any provider langchaingo supports (OpenAI, Anthropic, Ollama, ...) can
// sit behind it; the workflow only sees the narrow gateway contract.
type LangchainClient struct {
	model       llms.Model
	defaultName string
}

// NewLangchainClient wraps a langchaingo model.
// The name is recorded on responses for logging; it does not select the model.
func NewLangchainClient(model llms.Model, name string) *LangchainClient {
	return &LangchainClient{model: model, defaultName: name}
}

// Complete implements Client.
func (c *LangchainClient) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	messages := toLangchainMessages(req)
	opts, err := buildCallOptions(req)
	if err != nil {
		return nil, NewError("complete", err, false)
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError("complete", ctx.Err(), false)
		}
		return nil, NewError("complete", err, isRetryableMessage(err.Error()))
	}

	out := fromLangchainResponse(resp)
	out.Model = c.defaultName
	if req.Model != "" {
		out.Model = req.Model
	}
	out.Duration = time.Since(start)
	return out, nil
}

// toLangchainMessages converts gateway messages to langchaingo content.
func toLangchainMessages(req Request) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		result = append(result, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.SystemPrompt)},
		})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, llms.MessageContent{
				Role:  llms.ChatMessageTypeSystem,
				Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
			})
		case RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextPart(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			result = append(result, mc)
		case RoleTool:
			result = append(result, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})
		default:
			result = append(result, llms.MessageContent{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
			})
		}
	}

	return result
}

// buildCallOptions converts request settings to langchaingo call options.
func buildCallOptions(req Request) ([]llms.CallOption, error) {
	var opts []llms.CallOption

	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}

	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			var params any
			if len(t.Parameters) > 0 {
				if err := json.Unmarshal(t.Parameters, &params); err != nil {
					return nil, fmt.Errorf("tool %s: decode parameters: %w", t.Name, err)
				}
			}
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  params,
				},
			})
		}
		opts = append(opts, llms.WithTools(tools))
	}

	return opts, nil
}

// fromLangchainResponse converts a langchaingo response to a gateway response.
func fromLangchainResponse(resp *llms.ContentResponse) *Response {
	out := &Response{FinishReason: "stop"}
	if resp == nil || len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	out.Content = choice.Content
	out.Usage = usageFromInfo(choice.GenerationInfo)
	if choice.StopReason != "" {
		out.FinishReason = choice.StopReason
	}

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: json.RawMessage(tc.FunctionCall.Arguments),
		})
	}
	if len(out.ToolCalls) > 0 && out.FinishReason == "stop" {
		out.FinishReason = "tool_calls"
	}

	return out
}

// usageFromInfo extracts token counts from a choice's generation info.
// Providers disagree on key names: OpenAI-style backends report
// PromptTokens/CompletionTokens, Anthropic-style ones
// InputTokens/OutputTokens.
func usageFromInfo(info map[string]any) TokenUsage {
	u := TokenUsage{
		InputTokens:  intFromInfo(info, "PromptTokens", "InputTokens"),
		OutputTokens: intFromInfo(info, "CompletionTokens", "OutputTokens"),
		TotalTokens:  intFromInfo(info, "TotalTokens"),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

func intFromInfo(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
