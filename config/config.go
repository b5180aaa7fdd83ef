// Package config loads runtime configuration for the agentrt-server
// binary from environment variables, optionally seeded from a local
// .env file via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = "127.0.0.1:8080"
	defaultShutdownTimeout   = 5 * time.Second
	defaultMaxIterations     = 8
	defaultPerToolTimeout    = 30 * time.Second
	defaultOverallRunTimeout = 2 * time.Minute
	defaultMaxParallelTools  = 4
	defaultOpenAIModel       = "gpt-4.1-mini"
)

// Config controls the demonstration server's HTTP boot, model client,
// and loop bounds.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	MaxIterations     int
	DefaultToolChoice string
	PerToolTimeout    time.Duration
	OverallRunTimeout time.Duration
	MaxParallelTools  int
	Verbose           bool
}

// Load reads configuration from the environment, first loading a local
// .env file if one is present (a missing .env is not an error).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:          defaultHTTPAddr,
		ShutdownTimeout:   defaultShutdownTimeout,
		OpenAIModel:       defaultOpenAIModel,
		MaxIterations:     defaultMaxIterations,
		DefaultToolChoice: "auto",
		PerToolTimeout:    defaultPerToolTimeout,
		OverallRunTimeout: defaultOverallRunTimeout,
		MaxParallelTools:  defaultMaxParallelTools,
	}

	if addr := os.Getenv("AGENTRT_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if err := loadDuration("AGENTRT_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if model := os.Getenv("AGENTRT_MODEL"); model != "" {
		cfg.OpenAIModel = model
	}
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")

	if err := loadInt("AGENTRT_MAX_ITERATIONS", &cfg.MaxIterations); err != nil {
		return Config{}, err
	}
	if choice := os.Getenv("AGENTRT_TOOL_CHOICE"); choice != "" {
		cfg.DefaultToolChoice = choice
	}
	if err := loadDuration("AGENTRT_PER_TOOL_TIMEOUT", &cfg.PerToolTimeout); err != nil {
		return Config{}, err
	}
	if err := loadDuration("AGENTRT_OVERALL_TIMEOUT", &cfg.OverallRunTimeout); err != nil {
		return Config{}, err
	}
	if err := loadInt("AGENTRT_MAX_PARALLEL_TOOLS", &cfg.MaxParallelTools); err != nil {
		return Config{}, err
	}
	if verbose := os.Getenv("AGENTRT_VERBOSE"); verbose != "" {
		parsed, err := strconv.ParseBool(verbose)
		if err != nil {
			return Config{}, fmt.Errorf("parse AGENTRT_VERBOSE: %w", err)
		}
		cfg.Verbose = parsed
	}

	return cfg, nil
}

func loadDuration(envVar string, target *time.Duration) error {
	raw := os.Getenv(envVar)
	if raw == "" {
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", envVar, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("parse %s: value must be > 0", envVar)
	}
	*target = parsed
	return nil
}

func loadInt(envVar string, target *int) error {
	raw := os.Getenv(envVar)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", envVar, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("parse %s: value must be > 0", envVar)
	}
	*target = parsed
	return nil
}
