// Package openai adapts github.com/sashabaranov/go-openai to the
// agent.Model, agent.StreamingModel, and agent.TokenCounter capability
// interfaces.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/opsloop/agentrt/agent"
)

const defaultTimeout = 30 * time.Second

// Config configures an Adapter.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for OpenAI-compatible gateways
}

// Adapter is a Model, StreamingModel, and TokenCounter backed by the
// OpenAI chat-completions API.
type Adapter struct {
	client *goopenai.Client
	model  string
	tokens *tokenCounter
}

var (
	_ agent.Model          = (*Adapter)(nil)
	_ agent.StreamingModel = (*Adapter)(nil)
	_ agent.TokenCounter   = (*Adapter)(nil)
)

// New constructs an Adapter. APIKey and Model are required.
func New(cfg Config) (*Adapter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}

	clientConfig := goopenai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	counter, err := newTokenCounter(model)
	if err != nil {
		return nil, fmt.Errorf("openai: build token counter: %w", err)
	}

	return &Adapter{
		client: goopenai.NewClientWithConfig(clientConfig),
		model:  model,
		tokens: counter,
	}, nil
}

// Generate issues one non-streaming chat-completions call.
func (a *Adapter) Generate(ctx context.Context, request agent.ModelRequest) (agent.AssistantTurn, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payload, err := buildRequest(a.model, request)
	if err != nil {
		return agent.AssistantTurn{}, &agent.ModelPermanentError{Err: err}
	}

	response, err := a.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		return agent.AssistantTurn{}, classifyError(err)
	}
	if len(response.Choices) == 0 {
		return agent.AssistantTurn{}, &agent.ModelPermanentError{Err: fmt.Errorf("no choices returned")}
	}

	message, err := toAgentMessage(response.Choices[0].Message)
	if err != nil {
		return agent.AssistantTurn{}, &agent.ModelPermanentError{Err: err}
	}

	return agent.AssistantTurn{
		Message: message,
		Usage: agent.UsageStats{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		},
		FinishReason: toFinishReason(response.Choices[0].FinishReason, message),
	}, nil
}

// GenerateStream issues a streaming chat-completions call and translates
// provider deltas to agent.Delta fragments, accumulating the final turn on
// the terminal delta.
func (a *Adapter) GenerateStream(ctx context.Context, request agent.ModelRequest) (<-chan agent.Delta, error) {
	payload, err := buildRequest(a.model, request)
	if err != nil {
		return nil, &agent.ModelPermanentError{Err: err}
	}
	payload.Stream = true

	stream, err := a.client.CreateChatCompletionStream(ctx, payload)
	if err != nil {
		return nil, classifyError(err)
	}

	out := make(chan agent.Delta)
	go func() {
		defer close(out)
		defer stream.Close()

		var contentBuilder strings.Builder
		toolCallBuilders := map[int]*streamingToolCall{}
		var toolCallOrder []int
		usage := agent.UsageStats{}
		finishReason := agent.FinishReasonStop

		for {
			chunk, err := stream.Recv()
			if err != nil {
				final := assembleFinal(contentBuilder.String(), toolCallOrder, toolCallBuilders, usage, finishReason)
				select {
				case out <- agent.Delta{Done: true, Final: &final}:
				case <-ctx.Done():
				}
				return
			}
			if chunk.Usage != nil {
				usage = agent.UsageStats{
					PromptTokens:     chunk.Usage.PromptTokens,
					CompletionTokens: chunk.Usage.CompletionTokens,
					TotalTokens:      chunk.Usage.TotalTokens,
				}
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.FinishReason != "" {
				finishReason = mapFinishReason(choice.FinishReason)
			}
			if choice.Delta.Content != "" {
				contentBuilder.WriteString(choice.Delta.Content)
				select {
				case out <- agent.Delta{TextDelta: choice.Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
			for _, toolCallDelta := range choice.Delta.ToolCalls {
				index := 0
				if toolCallDelta.Index != nil {
					index = *toolCallDelta.Index
				}
				builder, ok := toolCallBuilders[index]
				if !ok {
					builder = &streamingToolCall{}
					toolCallBuilders[index] = builder
					toolCallOrder = append(toolCallOrder, index)
				}
				if toolCallDelta.ID != "" {
					builder.id = toolCallDelta.ID
				}
				if toolCallDelta.Function.Name != "" {
					builder.name = toolCallDelta.Function.Name
				}
				builder.arguments.WriteString(toolCallDelta.Function.Arguments)

				fragment := agent.ToolCallDeltaFragment{
					Index:             index,
					ID:                toolCallDelta.ID,
					Name:              toolCallDelta.Function.Name,
					ArgumentsFragment: toolCallDelta.Function.Arguments,
				}
				select {
				case out <- agent.Delta{ToolCallDelta: &fragment}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// CountTokens approximates the prompt token cost of a conversation
// snapshot using the model's tiktoken encoding.
func (a *Adapter) CountTokens(_ context.Context, messages []agent.Message) (int, error) {
	return a.tokens.Count(messages)
}

type streamingToolCall struct {
	id        string
	name      string
	arguments strings.Builder
}

func assembleFinal(
	content string,
	order []int,
	builders map[int]*streamingToolCall,
	usage agent.UsageStats,
	finishReason agent.FinishReason,
) agent.AssistantTurn {
	toolCalls := make([]agent.ToolCall, 0, len(order))
	for _, index := range order {
		builder := builders[index]
		arguments, err := agent.DecodeToolArguments(builder.id, builder.name, strings.TrimSpace(builder.arguments.String()))
		if err != nil {
			var decodeErr *agent.ToolArgumentDecodeError
			if errors.As(err, &decodeErr) {
				toolCalls = append(toolCalls, agent.ToolCall{ID: builder.id, Name: builder.name, ArgDecodeErr: decodeErr})
				continue
			}
		}
		toolCalls = append(toolCalls, agent.ToolCall{
			ID:        builder.id,
			Name:      builder.name,
			Arguments: arguments,
		})
	}
	message := agent.NewAssistantMessage(content, toolCalls)
	if len(toolCalls) > 0 {
		finishReason = agent.FinishReasonToolCalls
	}
	return agent.AssistantTurn{Message: message, Usage: usage, FinishReason: finishReason}
}

func buildRequest(model string, request agent.ModelRequest) (goopenai.ChatCompletionRequest, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(request.Messages))
	for _, message := range request.Messages {
		converted, err := toProviderMessage(message)
		if err != nil {
			return goopenai.ChatCompletionRequest{}, err
		}
		messages = append(messages, converted)
	}

	tools := make([]goopenai.Tool, 0, len(request.Tools))
	for _, def := range request.Tools {
		tools = append(tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.InputSchema,
			},
		})
	}

	payload := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
	}
	switch request.ToolChoice {
	case "", "auto":
	case "none":
		payload.ToolChoice = "none"
	case "required":
		payload.ToolChoice = "required"
	default:
		payload.ToolChoice = goopenai.ToolChoice{
			Type:     goopenai.ToolTypeFunction,
			Function: goopenai.ToolFunction{Name: request.ToolChoice},
		}
	}
	return payload, nil
}

func toProviderMessage(message agent.Message) (goopenai.ChatCompletionMessage, error) {
	role, err := toProviderRole(message.Role)
	if err != nil {
		return goopenai.ChatCompletionMessage{}, err
	}

	toolCalls := make([]goopenai.ToolCall, 0, len(message.ToolCalls))
	for _, call := range message.ToolCalls {
		arguments := "{}"
		if len(call.Arguments) > 0 {
			encoded, err := json.Marshal(call.Arguments)
			if err != nil {
				return goopenai.ChatCompletionMessage{}, fmt.Errorf("encode tool call arguments: %w", err)
			}
			arguments = string(encoded)
		}
		toolCalls = append(toolCalls, goopenai.ToolCall{
			ID:   call.ID,
			Type: goopenai.ToolTypeFunction,
			Function: goopenai.FunctionCall{
				Name:      call.Name,
				Arguments: arguments,
			},
		})
	}

	return goopenai.ChatCompletionMessage{
		Role:       role,
		Content:    message.Text(),
		Name:       message.Name,
		ToolCallID: message.ToolCallID,
		ToolCalls:  toolCalls,
	}, nil
}

func toProviderRole(role agent.Role) (string, error) {
	switch role {
	case agent.RoleSystem:
		return goopenai.ChatMessageRoleSystem, nil
	case agent.RoleUser:
		return goopenai.ChatMessageRoleUser, nil
	case agent.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant, nil
	case agent.RoleTool:
		return goopenai.ChatMessageRoleTool, nil
	default:
		return "", fmt.Errorf("unsupported message role %q", role)
	}
}

// toAgentMessage converts a provider assistant message to the canonical
// form. A tool call whose arguments fail to parse as JSON is not a fatal
// error here: it is carried through as a ToolCall with ArgDecodeErr set,
// for the step executor to record as an error ToolResult and continue
// the loop rather than aborting the run.
func toAgentMessage(message goopenai.ChatCompletionMessage) (agent.Message, error) {
	if message.Role != goopenai.ChatMessageRoleAssistant {
		return agent.Message{}, fmt.Errorf("expected assistant message role, got %q", message.Role)
	}

	toolCalls := make([]agent.ToolCall, 0, len(message.ToolCalls))
	for _, call := range message.ToolCalls {
		arguments, err := agent.DecodeToolArguments(call.ID, call.Function.Name, strings.TrimSpace(call.Function.Arguments))
		if err != nil {
			var decodeErr *agent.ToolArgumentDecodeError
			if errors.As(err, &decodeErr) {
				toolCalls = append(toolCalls, agent.ToolCall{ID: call.ID, Name: call.Function.Name, ArgDecodeErr: decodeErr})
				continue
			}
			return agent.Message{}, fmt.Errorf("decode tool call arguments for %q: %w", call.Function.Name, err)
		}
		toolCalls = append(toolCalls, agent.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: arguments,
		})
	}

	return agent.NewAssistantMessage(message.Content, toolCalls), nil
}

func toFinishReason(reason goopenai.FinishReason, message agent.Message) agent.FinishReason {
	if len(message.ToolCalls) > 0 {
		return agent.FinishReasonToolCalls
	}
	return mapFinishReason(reason)
}

func mapFinishReason(reason goopenai.FinishReason) agent.FinishReason {
	switch reason {
	case goopenai.FinishReasonToolCalls, goopenai.FinishReasonFunctionCall:
		return agent.FinishReasonToolCalls
	case goopenai.FinishReasonContentFilter:
		return agent.FinishReasonError
	default:
		return agent.FinishReasonStop
	}
}

func classifyError(err error) error {
	var apiErr *goopenai.APIError
	if isAPIError(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return &agent.ModelTransientError{Err: err}
		default:
			return &agent.ModelPermanentError{Err: err}
		}
	}
	return &agent.ModelTransientError{Err: err}
}

func isAPIError(err error, target **goopenai.APIError) bool {
	apiErr, ok := err.(*goopenai.APIError)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}
