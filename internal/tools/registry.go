package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Tool is a locally executable capability the model may request.
// Invoke never fails: every failure is reported through the returned string.
type Tool interface {
	Name() string
	Declaration() openai.Tool
	Invoke(ctx context.Context, args json.RawMessage) string
}

// Registry is the fixed set of tools advertised to the model.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, errors.New("tools: tool must not be nil")
		}
		name := strings.TrimSpace(t.Name())
		if name == "" {
			return nil, errors.New("tools: tool name must not be empty")
		}
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("tools: duplicate tool %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns the tool schemas in registration order.
func (r *Registry) Declarations() []openai.Tool {
	out := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Declaration())
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}
