package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"llm-relay/internal/domain"
)

// Dispatcher executes model-requested tool calls against a Registry.
type Dispatcher struct {
	registry      *Registry
	recordUnknown bool
}

type DispatcherOption func(*Dispatcher)

// WithRecordUnknown makes calls to unregistered tools produce an
// "unsupported tool" result instead of being skipped.
func WithRecordUnknown(record bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.recordUnknown = record
	}
}

func NewDispatcher(r *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if r == nil {
		return nil, errors.New("tools: registry must not be nil")
	}
	d := &Dispatcher{registry: r}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Declarations returns the schemas to advertise to the model.
func (d *Dispatcher) Declarations() []openai.Tool {
	return d.registry.Declarations()
}

// Dispatch runs calls sequentially in the order given. The returned results
// keep that order; skipped calls leave no entry.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []domain.ToolCall) []domain.ToolResult {
	logger := zerolog.Ctx(ctx)
	var results []domain.ToolResult
	for i, call := range calls {
		tool, ok := d.registry.Lookup(call.Name)
		if !ok {
			logger.Warn().
				Str("tool", call.Name).
				Int("index", i).
				Bool("recorded", d.recordUnknown).
				Msg("model requested unregistered tool")
			if d.recordUnknown {
				results = append(results, domain.ToolResult{
					Name:      call.Name,
					Arguments: call.Arguments,
					Result:    fmt.Sprintf("unsupported tool: %s", call.Name),
				})
			}
			continue
		}

		result := invoke(ctx, tool, call)
		logger.Debug().Str("tool", call.Name).Int("index", i).Msg("tool call executed")
		results = append(results, domain.ToolResult{
			Name:      call.Name,
			Arguments: call.Arguments,
			Result:    result,
		})
	}
	return results
}

func invoke(ctx context.Context, tool Tool, call domain.ToolCall) (result string) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Str("tool", call.Name).Interface("panic", r).Msg("tool panicked")
			result = fmt.Sprintf("tool %s failed: %v", call.Name, r)
		}
	}()
	return tool.Invoke(ctx, call.Arguments)
}
