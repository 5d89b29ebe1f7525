package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

type RelayInput struct {
	UserMessage string
	ModelName   string
}

type requestBody struct {
	UserMessage string `json:"user_message"`
	ModelName   string `json:"model_name"`
}

// ParseRequestBody decodes the envelope body. An absent body yields the zero
// input so both fields fall back to their defaults; anything other than a
// single JSON object is rejected.
func ParseRequestBody(body string) (RelayInput, error) {
	if body == "" {
		return RelayInput{}, nil
	}
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return RelayInput{}, invalidJSON(errors.New("body is not a JSON object"))
	}

	var rb requestBody
	dec := json.NewDecoder(strings.NewReader(trimmed))
	if err := dec.Decode(&rb); err != nil {
		return RelayInput{}, invalidJSON(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return RelayInput{}, invalidJSON(errors.New("trailing data after JSON object"))
	}
	return RelayInput{UserMessage: rb.UserMessage, ModelName: rb.ModelName}, nil
}

func invalidJSON(err error) *Error {
	return &Error{
		Code:    ErrorInvalidInput,
		Reason:  "malformed_json",
		Message: InvalidJSONMessage,
		Err:     err,
	}
}

// encodeJSON marshals without HTML escaping so relayed model text is unchanged.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
