package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequestBody_Absent(t *testing.T) {
	in, err := ParseRequestBody("")
	require.NoError(t, err)
	require.Equal(t, RelayInput{}, in)
}

func TestParseRequestBody_Fields(t *testing.T) {
	in, err := ParseRequestBody(`{"user_message":"What's the weather in Paris?","model_name":"qwen2.5:7b","extra":true}`)
	require.NoError(t, err)
	require.Equal(t, RelayInput{UserMessage: "What's the weather in Paris?", ModelName: "qwen2.5:7b"}, in)

	in, err = ParseRequestBody(`{}`)
	require.NoError(t, err)
	require.Equal(t, RelayInput{}, in)
}

func TestParseRequestBody_Malformed(t *testing.T) {
	for _, body := range []string{
		`not-json`,
		`{"user_message":`,
		`null`,
		`["user_message"]`,
		`"hello"`,
		`{"user_message":42}`,
		`{"user_message":"a"} {"user_message":"b"}`,
		`   `,
	} {
		_, err := ParseRequestBody(body)
		require.Error(t, err, "body=%q", body)
		expectError(t, err, ErrorInvalidInput, "malformed_json")
		var ue *Error
		require.ErrorAs(t, err, &ue)
		require.Equal(t, InvalidJSONMessage, ue.Message)
	}
}

func TestEncodeJSON_NoHTMLEscaping(t *testing.T) {
	out, err := encodeJSON(map[string]string{"response": "<b>a & b</b>"})
	require.NoError(t, err)
	require.Equal(t, `{"response":"<b>a & b</b>"}`, string(out))
}
