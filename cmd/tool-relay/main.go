package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"llm-relay/handler"
	"llm-relay/internal/config"
	"llm-relay/internal/integrations/ollama"
	"llm-relay/internal/integrations/openweather"
	"llm-relay/internal/integrations/paramstore"
	"llm-relay/internal/tools"
	"llm-relay/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		bootLogger := config.BootstrapLogger()
		bootLogger.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	logger := cfg.Logger().With().Str("relay", "tool").Logger()
	if err := cfg.ValidateToolRelay(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	model := cfg.ModelOr(config.DefaultToolModel)

	weatherKey, err := resolveWeatherKey(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve weather api key")
		os.Exit(1)
	}

	// ---- Clients ----
	inference, err := ollama.NewClient(cfg.InferenceEndpoint, ollama.WithHTTPClient(&http.Client{Timeout: cfg.InferenceTimeout}))
	if err != nil {
		logger.Error().Err(err).Msg("failed to create inference client")
		os.Exit(1)
	}

	weather, err := openweather.NewClient(weatherKey,
		openweather.WithBaseURL(cfg.WeatherBaseURL),
		openweather.WithHTTPClient(&http.Client{Timeout: cfg.WeatherTimeout}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create weather client")
		os.Exit(1)
	}

	// ---- Tools ----
	registry, err := tools.NewRegistry(tools.NewWeatherTool(weather))
	if err != nil {
		logger.Error().Err(err).Msg("failed to build tool registry")
		os.Exit(1)
	}
	dispatcher, err := tools.NewDispatcher(registry, tools.WithRecordUnknown(cfg.RecordUnknownTools))
	if err != nil {
		logger.Error().Err(err).Msg("failed to create tool dispatcher")
		os.Exit(1)
	}

	// ---- Handler ----
	relay, err := usecase.NewToolRelay(inference, dispatcher, model, cfg.DefaultUserMessage)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create tool relay")
		os.Exit(1)
	}

	h, err := handler.NewHandler(relay, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create handler")
		os.Exit(1)
	}

	logger.Info().
		Str("endpoint", cfg.InferenceEndpoint).
		Str("default_model", model).
		Int("tools", registry.Len()).
		Msg("tool relay ready")
	lambda.Start(h.Handle)
}

// resolveWeatherKey only builds an SSM client when the key is not already in
// the environment.
func resolveWeatherKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.WeatherAPIKey != "" {
		return cfg.ResolveWeatherAPIKey(ctx, nil)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return "", err
	}
	return cfg.ResolveWeatherAPIKey(ctx, ssmClient)
}
