package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const (
	DefaultUserMessage = "Hello from Lambda!"
	DefaultChatModel   = "deepseek-r1:8b"
	DefaultToolModel   = "llama3.1:8b"
)

var stdout io.Writer = os.Stdout

type Config struct {
	InferenceEndpoint  string        `envconfig:"INFERENCE_ENDPOINT" default:"http://localhost:11434"`
	DefaultModel       string        `envconfig:"DEFAULT_MODEL"`
	DefaultUserMessage string        `envconfig:"DEFAULT_USER_MESSAGE" default:"Hello from Lambda!"`
	InferenceTimeout   time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"5m"`

	WeatherAPIKey      string        `envconfig:"WEATHER_API_KEY"`
	WeatherAPIKeyParam string        `envconfig:"WEATHER_API_KEY_PARAM"`
	WeatherBaseURL     string        `envconfig:"WEATHER_BASE_URL" default:"http://api.openweathermap.org"`
	WeatherTimeout     time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
	RecordUnknownTools bool          `envconfig:"RECORD_UNKNOWN_TOOLS" default:"false"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.InferenceEndpoint = strings.TrimSpace(c.InferenceEndpoint)
	c.DefaultModel = strings.TrimSpace(c.DefaultModel)
	c.WeatherAPIKey = strings.TrimSpace(c.WeatherAPIKey)
	c.WeatherAPIKeyParam = strings.TrimSpace(c.WeatherAPIKeyParam)
	if strings.TrimSpace(c.DefaultUserMessage) == "" {
		c.DefaultUserMessage = DefaultUserMessage
	}
}

// ModelOr returns DEFAULT_MODEL, or fallback when it is unset.
func (c *Config) ModelOr(fallback string) string {
	if c.DefaultModel != "" {
		return c.DefaultModel
	}
	return fallback
}

// ValidateToolRelay checks that the weather tool has a key source.
func (c *Config) ValidateToolRelay() error {
	if c.WeatherAPIKey == "" && c.WeatherAPIKeyParam == "" {
		return errors.New("config: WEATHER_API_KEY or WEATHER_API_KEY_PARAM is required for the tool relay")
	}
	return nil
}

// Getter is satisfied by paramstore.Client.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ResolveWeatherAPIKey returns WEATHER_API_KEY when set, otherwise the value of
// the SSM parameter named by WEATHER_API_KEY_PARAM.
func (c *Config) ResolveWeatherAPIKey(ctx context.Context, g Getter) (string, error) {
	if c.WeatherAPIKey != "" {
		return c.WeatherAPIKey, nil
	}
	if c.WeatherAPIKeyParam == "" {
		return "", nil
	}
	if g == nil {
		return "", errors.New("config: parameter getter is nil")
	}
	v, err := g.GetParameter(ctx, c.WeatherAPIKeyParam)
	if err != nil {
		return "", fmt.Errorf("config: resolve weather api key: %w", err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("config: parameter %q is empty", c.WeatherAPIKeyParam)
	}
	return v, nil
}

// Logger builds the process logger. Lambda ships stdout to CloudWatch, so
// output is plain JSON lines.
func (c *Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return newLogger(level)
}

// BootstrapLogger is used before configuration is available, so cold-start
// failures share the format of every other log line.
func BootstrapLogger() zerolog.Logger {
	return newLogger(zerolog.InfoLevel)
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(stdout).Level(level).With().Timestamp().Logger()
}
