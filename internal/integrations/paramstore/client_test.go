package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	out *ssm.GetParameterOutput
	err error
	in  *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.in = in
	return f.out, f.err
}

func withValue(v string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name:  aws.String("/llm-relay/weather-api-key"),
		Value: aws.String(v),
		Type:  types.ParameterTypeSecureString,
	}}
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestGetParameter_DecryptsByDefault(t *testing.T) {
	api := &fakeAPI{out: withValue("owm-key")}
	c, err := New(api)
	require.NoError(t, err)

	v, err := c.GetParameter(context.Background(), " /llm-relay/weather-api-key ")
	require.NoError(t, err)
	require.Equal(t, "owm-key", v)
	require.Equal(t, "/llm-relay/weather-api-key", aws.ToString(api.in.Name))
	require.True(t, aws.ToBool(api.in.WithDecryption))
}

func TestGetParameter_WithoutDecryption(t *testing.T) {
	api := &fakeAPI{out: withValue("plain")}
	c, err := New(api, WithDecryption(false))
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.False(t, aws.ToBool(api.in.WithDecryption))
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: aws.String("p")}}}
	c, err := New(api)
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "has no value")
}

func TestGetParameter_APIError(t *testing.T) {
	c, err := New(&fakeAPI{err: errors.New("AccessDeniedException")})
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "AccessDeniedException")
}

func TestGetParameter_Validation(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")

	var nilClient *Client
	_, err = nilClient.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")

	c, err := New(&fakeAPI{})
	require.NoError(t, err)
	_, err = c.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
}
