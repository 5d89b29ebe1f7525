package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"llm-relay/internal/domain"
	"llm-relay/internal/integrations/ollama"
)

const functionResultsKey = "function_results"

type Inference interface {
	Chat(ctx context.Context, in ollama.ChatRequest) (ollama.Reply, error)
}

type ToolDispatcher interface {
	Declarations() []openai.Tool
	Dispatch(ctx context.Context, calls []domain.ToolCall) []domain.ToolResult
}

type RelayOutput struct {
	Body        []byte
	Model       string
	ToolResults int
}

// ChatRelay forwards the user message to the inference endpoint unchanged.
type ChatRelay struct {
	llm            Inference
	model          string
	defaultMessage string
}

func NewChatRelay(llm Inference, model, defaultMessage string) (*ChatRelay, error) {
	if llm == nil {
		return nil, errors.New("usecase: inference client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if defaultMessage == "" {
		return nil, errors.New("usecase: default message must not be empty")
	}
	return &ChatRelay{llm: llm, model: model, defaultMessage: defaultMessage}, nil
}

// Relay ignores in.ModelName; the plain relay always uses its configured model.
func (r *ChatRelay) Relay(ctx context.Context, in RelayInput) (RelayOutput, error) {
	reply, err := r.llm.Chat(ctx, ollama.ChatRequest{
		Model:    r.model,
		Messages: singleTurn(orDefault(in.UserMessage, r.defaultMessage)),
	})
	if err != nil {
		return RelayOutput{}, newError(ErrorUpstream, "inference_error", err)
	}
	zerolog.Ctx(ctx).Info().Str("model", r.model).Bool("json", reply.JSON).Msg("inference call completed")

	body, err := shapeBody(reply, nil)
	if err != nil {
		return RelayOutput{}, newError(ErrorInternal, "response_encode_error", err)
	}
	return RelayOutput{Body: body, Model: r.model}, nil
}

// ToolRelay advertises the registered tools and runs any tool calls the
// model returns before answering.
type ToolRelay struct {
	llm            Inference
	tools          ToolDispatcher
	defaultModel   string
	defaultMessage string
}

func NewToolRelay(llm Inference, tools ToolDispatcher, defaultModel, defaultMessage string) (*ToolRelay, error) {
	if llm == nil {
		return nil, errors.New("usecase: inference client must not be nil")
	}
	if tools == nil {
		return nil, errors.New("usecase: tool dispatcher must not be nil")
	}
	defaultModel = strings.TrimSpace(defaultModel)
	if defaultModel == "" {
		return nil, errors.New("usecase: default model must not be empty")
	}
	if defaultMessage == "" {
		return nil, errors.New("usecase: default message must not be empty")
	}
	return &ToolRelay{
		llm:            llm,
		tools:          tools,
		defaultModel:   defaultModel,
		defaultMessage: defaultMessage,
	}, nil
}

func (r *ToolRelay) Relay(ctx context.Context, in RelayInput) (RelayOutput, error) {
	model := orDefault(in.ModelName, r.defaultModel)
	logger := zerolog.Ctx(ctx)

	reply, err := r.llm.Chat(ctx, ollama.ChatRequest{
		Model:    model,
		Messages: singleTurn(orDefault(in.UserMessage, r.defaultMessage)),
		Tools:    r.tools.Declarations(),
	})
	if err != nil {
		return RelayOutput{}, newError(ErrorUpstream, "inference_error", err)
	}
	logger.Info().
		Str("model", model).
		Bool("json", reply.JSON).
		Int("tool_calls", len(reply.ToolCalls)).
		Msg("inference call completed")

	var results []domain.ToolResult
	if reply.JSON && len(reply.ToolCalls) > 0 {
		results = r.tools.Dispatch(ctx, reply.ToolCalls)
	}

	body, err := shapeBody(reply, results)
	if err != nil {
		return RelayOutput{}, newError(ErrorInternal, "response_encode_error", err)
	}
	return RelayOutput{Body: body, Model: model, ToolResults: len(results)}, nil
}

// shapeBody produces the response body: the inference JSON as received, a
// {"response": text} wrapper for non-JSON replies, or the inference object
// with function_results added when tools ran.
func shapeBody(reply ollama.Reply, results []domain.ToolResult) ([]byte, error) {
	if !reply.JSON {
		return encodeJSON(map[string]string{"response": string(reply.Body)})
	}
	if len(results) == 0 {
		return reply.Body, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(reply.Body, &obj); err != nil {
		return nil, fmt.Errorf("usecase: inference reply is not an object: %w", err)
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage, 1)
	}
	encoded, err := encodeJSON(results)
	if err != nil {
		return nil, fmt.Errorf("usecase: encode function results: %w", err)
	}
	obj[functionResultsKey] = encoded
	return encodeJSON(obj)
}

func singleTurn(content string) []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.RoleUser, Content: content}}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
