// OpenAI-compatible backend.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI talks to an OpenAI-compatible chat-completions endpoint. With a
// custom base URL it also serves locally hosted models; those tend to emit
// tool calls inline in the text, which WithInlineToolCalls recovers.
type OpenAI struct {
	client openai.Client
	model  string
	inline bool
}

// OpenAIOption configures the client.
type OpenAIOption func(*OpenAI)

// WithInlineToolCalls makes Complete scan plain-text replies for an
// embedded JSON tool invocation (local-model behavior).
func WithInlineToolCalls() OpenAIOption {
	return func(c *OpenAI) { c.inline = true }
}

// NewOpenAI builds a client for the given model. baseURL may be empty for
// the hosted API.
func NewOpenAI(apiKey, baseURL, model string, opts ...OpenAIOption) *OpenAI {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	c := &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete implements Client. When the model returns several tool calls in
// one turn only the first is honored; the loop processes one invocation
// per round trip.
func (c *OpenAI) Complete(ctx context.Context, messages []Message, tools []Tool) (*Turn, error) {
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: convertMessages(messages),
		Tools:    convertTools(tools),
	}

	completion, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	msg := completion.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		return &Turn{Call: &RawToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}}, nil
	}

	if c.inline {
		if call := ExtractInlineCall(msg.Content); call != nil {
			return &Turn{Call: call}, nil
		}
	}
	return &Turn{Text: msg.Content}, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		case RoleAssistant:
			asst := &openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				}
			}
			if m.ToolCall != nil {
				asst.ToolCalls = []openai.ChatCompletionMessageToolCallParam{{
					ID: m.ToolCall.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      m.ToolCall.Name,
						Arguments: string(m.ToolCall.Arguments),
					},
				}}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: asst})
		case RoleTool:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: m.ToolCallID,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		default: // RoleUser and anything unrecognized
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		}
	}
	return out
}

func convertTools(tools []Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		})
	}
	return out
}
