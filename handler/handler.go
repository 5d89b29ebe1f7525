package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llm-relay/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type Relay interface {
	Relay(ctx context.Context, in usecase.RelayInput) (usecase.RelayOutput, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	relay  Relay
	logger zerolog.Logger
}

func NewHandler(relay Relay, logger zerolog.Logger) (*Handler, error) {
	if relay == nil {
		return nil, errors.New("handler: relay must not be nil")
	}
	return &Handler{relay: relay, logger: logger}, nil
}

// Handle turns one API Gateway proxy event into one response. Every failure is
// reported in the envelope; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = newCorrelationID()
	}
	logger := h.logger.With().Str("correlation_id", correlationID).Logger()
	ctx = logger.WithContext(ctx)

	body, err := requestBody(req)
	if err != nil {
		logger.Warn().Err(err).Msg("request body could not be decoded")
		return jsonResponse(http.StatusBadRequest, correlationID, errorBody(usecase.InvalidJSONMessage)), nil
	}

	in, err := usecase.ParseRequestBody(body)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected request")
		return errorResponseFor(err, correlationID), nil
	}

	out, err := h.relay.Relay(ctx, in)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("relay failed")
		return errorResponseFor(err, correlationID), nil
	}

	logger.Info().
		Str("model", out.Model).
		Int("function_results", out.ToolResults).
		Dur("elapsed", time.Since(start)).
		Msg("relay succeeded")
	return jsonResponse(http.StatusOK, correlationID, string(out.Body)), nil
}

func requestBody(req events.APIGatewayProxyRequest) (string, error) {
	if !req.IsBase64Encoded || req.Body == "" {
		return req.Body, nil
	}
	raw, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func errorResponseFor(err error, correlationID string) events.APIGatewayProxyResponse {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return jsonResponse(http.StatusInternalServerError, correlationID, errorBody(err.Error()))
	}
	return jsonResponse(statusFor(ue.Code), correlationID, errorBody(ue.Message))
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(msg string) string {
	raw, err := json.Marshal(errorResponse{Error: msg})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(raw)
}

func jsonResponse(status int, correlationID, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: body,
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
