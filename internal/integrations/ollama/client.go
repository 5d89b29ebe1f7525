package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"llm-relay/internal/domain"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	defaultTimeout = 5 * time.Minute
	// MaxBodyBytes matches the Lambda synchronous response payload limit.
	MaxBodyBytes = 6 << 20
)

// chatRequest is the request shape for the /api/chat endpoint with streaming disabled.
type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
	Tools    []openai.Tool        `json:"tools,omitempty"`
}

// chatResponse is the subset of the /api/chat reply needed to find tool calls.
type chatResponse struct {
	Message struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			Function struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
}

// ChatRequest is a single non-streaming chat completion call.
type ChatRequest struct {
	Model    string
	Messages []domain.ChatMessage
	Tools    []openai.Tool
}

// Reply carries the raw inference body alongside any tool calls found in it.
// JSON is false when the endpoint answered 2xx with a body that is not JSON.
type Reply struct {
	Body      []byte
	JSON      bool
	ToolCalls []domain.ToolCall
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
// Chat wraps it with the package prefix.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to an Ollama-compatible inference server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ErrBodyTooLarge is returned when a reply exceeds MaxBodyBytes.
var ErrBodyTooLarge = fmt.Errorf("response exceeds %d bytes", MaxBodyBytes)

type Option func(*Client)

// WithHTTPClient replaces the default client. A nil client is ignored.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a Client for the server at baseURL. An empty baseURL
// selects the local default on port 11434.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("ollama: base url %q must use http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("ollama: base url %q has no host", baseURL)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/api/chat") {
		return base
	}
	if strings.HasSuffix(base, "/api") {
		return base + "/chat"
	}
	return base + "/api/chat"
}

// Chat posts a single chat request and returns the body as received. Tool
// calls are extracted on a best-effort basis; a body that does not carry the
// expected message shape simply yields none.
func (c *Client) Chat(ctx context.Context, in ChatRequest) (Reply, error) {
	if in.Model == "" {
		return Reply{}, errors.New("ollama: model must not be empty")
	}

	body, err := json.Marshal(chatRequest{
		Model:    in.Model,
		Messages: in.Messages,
		Stream:   false,
		Tools:    in.Tools,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	endpoint := chatURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if reqErr != nil {
		return Reply{}, fmt.Errorf("ollama: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	raw, err := c.doRequest(req, endpoint)
	if err != nil {
		return Reply{}, fmt.Errorf("ollama: request failed: %w", err)
	}

	if !json.Valid(raw) {
		return Reply{Body: raw}, nil
	}
	return Reply{Body: raw, JSON: true, ToolCalls: extractToolCalls(raw)}, nil
}

func extractToolCalls(raw []byte) []domain.ToolCall {
	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if len(payload.Message.ToolCalls) == 0 {
		return nil
	}
	calls := make([]domain.ToolCall, 0, len(payload.Message.ToolCalls))
	for _, tc := range payload.Message.ToolCalls {
		calls = append(calls, domain.ToolCall{
			Name:      tc.Function.Name,
			Arguments: normalizeArguments(tc.Function.Arguments),
		})
	}
	return calls
}

// normalizeArguments unwraps arguments that arrive as a JSON string holding an
// object, the OpenAI-compatible encoding, so every call carries an object.
func normalizeArguments(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	if trimmed[0] != '"' {
		return json.RawMessage(trimmed)
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return json.RawMessage(trimmed)
	}
	inner := strings.TrimSpace(s)
	if inner == "" {
		return json.RawMessage("{}")
	}
	if !json.Valid([]byte(inner)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage(inner)
}

func (c *Client) doRequest(req *http.Request, endpoint string) ([]byte, error) {
	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(buf) > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return buf, nil
}
