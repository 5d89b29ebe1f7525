package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"llm-relay/internal/integrations/openweather"
)

const WeatherToolName = "get_current_weather"

// WeatherAPI is the provider surface WeatherTool needs.
// *openweather.Client satisfies it.
type WeatherAPI interface {
	Geocode(ctx context.Context, query string) ([]openweather.Location, error)
	Current(ctx context.Context, lat, lon float64) (openweather.Conditions, error)
}

type weatherParams struct {
	Location string `json:"location" validate:"required,max=200"`
}

// WeatherTool answers get_current_weather with a single sentence. A nil API
// means no key was configured; the tool still answers, with a fallback.
type WeatherTool struct {
	api WeatherAPI
}

var _ Tool = (*WeatherTool)(nil)

// NewWeatherTool treats a nil api, including a nil *openweather.Client, as
// "no key configured".
func NewWeatherTool(api WeatherAPI) *WeatherTool {
	if c, ok := api.(*openweather.Client); ok && c == nil {
		api = nil
	}
	return &WeatherTool{api: api}
}

func (w *WeatherTool) Name() string {
	return WeatherToolName
}

func (w *WeatherTool) Declaration() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        WeatherToolName,
			Description: "Get the current weather for a location",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"location": {
						Type:        jsonschema.String,
						Description: "The city name, optionally with country, e.g. Paris or Paris, FR",
					},
				},
				Required: []string{"location"},
			},
		},
	}
}

func (w *WeatherTool) Invoke(ctx context.Context, args json.RawMessage) string {
	params, err := decodeArgs[weatherParams](args)
	if err != nil {
		return invalidArguments(WeatherToolName, err)
	}
	location := strings.TrimSpace(params.Location)
	if location == "" {
		return invalidArguments(WeatherToolName, fmt.Errorf("missing required argument %q", "location"))
	}
	logger := zerolog.Ctx(ctx).With().Str("tool", WeatherToolName).Str("location", location).Logger()

	if w.api == nil {
		logger.Warn().Msg("weather lookup requested without an api key")
		return fmt.Sprintf("Weather lookup is not configured, so the weather for '%s' is unavailable.", location)
	}

	matches, err := w.api.Geocode(ctx, location)
	if err != nil {
		logger.Warn().Err(err).Msg("geocoding failed")
		return fmt.Sprintf("Failed to retrieve weather for '%s': %v", location, err)
	}
	if len(matches) == 0 {
		return fmt.Sprintf("Could not find location '%s'.", location)
	}
	place := matches[0]

	cond, err := w.api.Current(ctx, place.Lat, place.Lon)
	if err != nil {
		logger.Warn().Err(err).Msg("current weather lookup failed")
		return fmt.Sprintf("Failed to retrieve weather for '%s': %v", location, err)
	}
	if len(cond.Weather) == 0 {
		return fmt.Sprintf("Weather data for '%s' is incomplete.", location)
	}

	return fmt.Sprintf("The current weather in %s is %s with a temperature of %.1f°C.",
		placeName(place, location), cond.Weather[0].Description, cond.Main.Temp)
}

func placeName(loc openweather.Location, query string) string {
	name := strings.TrimSpace(loc.Name)
	if name == "" {
		name = query
	}
	if loc.Country != "" {
		return name + ", " + loc.Country
	}
	return name
}
