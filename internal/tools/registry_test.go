package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"llm-relay/internal/domain"
)

type echoTool struct {
	name  string
	calls []string
	panic bool
}

func (e *echoTool) Name() string { return e.name }

func (e *echoTool) Declaration() openai.Tool {
	return openai.Tool{Type: openai.ToolTypeFunction, Function: &openai.FunctionDefinition{Name: e.name}}
}

func (e *echoTool) Invoke(_ context.Context, args json.RawMessage) string {
	if e.panic {
		panic("boom")
	}
	e.calls = append(e.calls, string(args))
	return e.name + ":" + string(args)
}

func call(name, args string) domain.ToolCall {
	return domain.ToolCall{Name: name, Arguments: json.RawMessage(args)}
}

func TestNewRegistry_Validates(t *testing.T) {
	_, err := NewRegistry(nil)
	require.Error(t, err)

	_, err = NewRegistry(&echoTool{name: " "})
	require.Error(t, err)

	_, err = NewRegistry(&echoTool{name: "a"}, &echoTool{name: "a"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestRegistry_DeclarationsKeepOrder(t *testing.T) {
	r, err := NewRegistry(&echoTool{name: "b"}, &echoTool{name: "a"})
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	decls := r.Declarations()
	require.Len(t, decls, 2)
	require.Equal(t, "b", decls[0].Function.Name)
	require.Equal(t, "a", decls[1].Function.Name)
}

func TestNewDispatcher_NilRegistry(t *testing.T) {
	_, err := NewDispatcher(nil)
	require.Error(t, err)
}

func TestDispatch_PreservesOrder(t *testing.T) {
	a, b := &echoTool{name: "a"}, &echoTool{name: "b"}
	r, err := NewRegistry(a, b)
	require.NoError(t, err)
	d, err := NewDispatcher(r)
	require.NoError(t, err)

	results := d.Dispatch(context.Background(), []domain.ToolCall{
		call("b", `{"n":1}`),
		call("a", `{"n":2}`),
		call("b", `{"n":3}`),
	})
	require.Len(t, results, 3)
	require.Equal(t, "b", results[0].Name)
	require.Equal(t, `b:{"n":1}`, results[0].Result)
	require.Equal(t, "a", results[1].Name)
	require.Equal(t, "b", results[2].Name)
	require.JSONEq(t, `{"n":3}`, string(results[2].Arguments))
	require.Equal(t, []string{`{"n":1}`, `{"n":3}`}, b.calls)
}

func TestDispatch_UnknownToolSkippedByDefault(t *testing.T) {
	a := &echoTool{name: "a"}
	r, err := NewRegistry(a)
	require.NoError(t, err)
	d, err := NewDispatcher(r)
	require.NoError(t, err)

	results := d.Dispatch(context.Background(), []domain.ToolCall{call("nope", `{}`)})
	require.Empty(t, results)

	results = d.Dispatch(context.Background(), []domain.ToolCall{call("nope", `{}`), call("a", `{}`)})
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].Name)
}

func TestDispatch_UnknownToolRecordedWhenEnabled(t *testing.T) {
	r, err := NewRegistry(&echoTool{name: "a"})
	require.NoError(t, err)
	d, err := NewDispatcher(r, WithRecordUnknown(true))
	require.NoError(t, err)

	results := d.Dispatch(context.Background(), []domain.ToolCall{call("nope", `{"x":1}`)})
	require.Len(t, results, 1)
	require.Equal(t, "nope", results[0].Name)
	require.Equal(t, "unsupported tool: nope", results[0].Result)
	require.JSONEq(t, `{"x":1}`, string(results[0].Arguments))
}

func TestDispatch_PanickingToolBecomesResult(t *testing.T) {
	r, err := NewRegistry(&echoTool{name: "a", panic: true})
	require.NoError(t, err)
	d, err := NewDispatcher(r)
	require.NoError(t, err)

	results := d.Dispatch(context.Background(), []domain.ToolCall{call("a", `{}`)})
	require.Len(t, results, 1)
	require.Equal(t, "tool a failed: boom", results[0].Result)
}

func TestDispatch_NoCalls(t *testing.T) {
	r, err := NewRegistry(&echoTool{name: "a"})
	require.NoError(t, err)
	d, err := NewDispatcher(r)
	require.NoError(t, err)
	require.Empty(t, d.Dispatch(context.Background(), nil))
}

func TestDecodeArgs(t *testing.T) {
	p, err := decodeArgs[weatherParams](json.RawMessage(`{"location":"Paris"}`))
	require.NoError(t, err)
	require.Equal(t, "Paris", p.Location)

	_, err = decodeArgs[weatherParams](json.RawMessage(`{}`))
	require.Error(t, err)
	require.Equal(t, `missing required argument "location"`, err.Error())

	_, err = decodeArgs[weatherParams](json.RawMessage(`{"location":"Paris","units":"imperial"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "units")

	_, err = decodeArgs[weatherParams](json.RawMessage(`{"location":42}`))
	require.Error(t, err)

	_, err = decodeArgs[weatherParams](json.RawMessage(`"Paris"`))
	require.Error(t, err)

	_, err = decodeArgs[weatherParams](json.RawMessage(`{"location":"Paris"} {}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "trailing")
}

func TestDispatcher_Declarations(t *testing.T) {
	r, err := NewRegistry(NewWeatherTool(nil))
	require.NoError(t, err)
	d, err := NewDispatcher(r)
	require.NoError(t, err)

	decls := d.Declarations()
	require.Len(t, decls, 1)
	require.Equal(t, WeatherToolName, decls[0].Function.Name)
}
