package domain

import "encoding/json"

const RoleUser = "user"

// ChatMessage is the single-turn chat message sent to the inference endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is one function invocation requested by the model.
// Arguments always holds a JSON object once decoded by the inference client.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// ToolResult is the outcome of executing a ToolCall locally.
type ToolResult struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    string          `json:"result"`
}
