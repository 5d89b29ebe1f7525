package main

import (
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"llm-relay/handler"
	"llm-relay/internal/config"
	"llm-relay/internal/integrations/ollama"
	"llm-relay/internal/usecase"
)

func main() {
	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		bootLogger := config.BootstrapLogger()
		bootLogger.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	logger := cfg.Logger().With().Str("relay", "chat").Logger()
	model := cfg.ModelOr(config.DefaultChatModel)

	// ---- Clients ----
	inference, err := ollama.NewClient(cfg.InferenceEndpoint, ollama.WithHTTPClient(&http.Client{Timeout: cfg.InferenceTimeout}))
	if err != nil {
		logger.Error().Err(err).Msg("failed to create inference client")
		os.Exit(1)
	}

	// ---- Handler ----
	relay, err := usecase.NewChatRelay(inference, model, cfg.DefaultUserMessage)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create chat relay")
		os.Exit(1)
	}

	h, err := handler.NewHandler(relay, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create handler")
		os.Exit(1)
	}

	logger.Info().Str("endpoint", cfg.InferenceEndpoint).Str("model", model).Msg("chat relay ready")
	lambda.Start(h.Handle)
}
