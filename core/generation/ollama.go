package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/model"
)

// OllamaConfig configures the connection to a local Ollama instance.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOllamaConfig returns the default Ollama configuration.
func DefaultOllamaConfig() *OllamaConfig {
	return &OllamaConfig{
		BaseURL: "http://localhost:11434",
		Model:   "llama3",
		Timeout: 120 * time.Second,
	}
}

// OllamaGenerator generates answers through Ollama's /api/generate endpoint.
type OllamaGenerator struct {
	config *OllamaConfig
	client *http.Client
	logger *slog.Logger
}

// NewOllamaGenerator creates a new generator against an Ollama instance.
// Missing config fields fall back to the defaults.
func NewOllamaGenerator(config *OllamaConfig, logger *slog.Logger) *OllamaGenerator {
	defaults := DefaultOllamaConfig()
	if config == nil {
		config = defaults
	}
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OllamaGenerator{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends the prompt to Ollama and returns the completion. An
// unreachable backend or a non-OK status fails with ErrGeneratorUnavailable,
// an expired deadline with ErrGeneratorTimeout.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, options *model.GenerateOptions) (string, error) {
	if options == nil {
		options = model.DefaultGenerateOptions()
	}

	requestOptions := map[string]any{
		"temperature":    options.Temperature,
		"top_p":          options.TopP,
		"repeat_penalty": options.RepeatPenalty,
	}
	if options.MaxTokens > 0 {
		requestOptions["num_predict"] = options.MaxTokens
	}
	if len(options.Stop) > 0 {
		requestOptions["stop"] = options.Stop
	}

	body, err := json.Marshal(generateRequest{
		Model:   g.config.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: requestOptions,
	})
	if err != nil {
		return "", helper.NewError("encode generate request", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", helper.NewError("create generate request", err)
	}
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := g.client.Do(request)
	if err != nil {
		return "", g.mapTransportError(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		message, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return "", fmt.Errorf("ollama returned status %v: %s: %w", response.StatusCode, message, model.ErrGeneratorUnavailable)
	}

	var decoded generateResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %v: %w", err, model.ErrGeneratorUnavailable)
	}

	g.logger.Debug("generation finished",
		slog.String("model", g.config.Model),
		slog.Duration("duration", time.Since(start)))

	return decoded.Response, nil
}

// Ping checks that Ollama is reachable through /api/tags.
func (g *OllamaGenerator) Ping(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return helper.NewError("create ping request", err)
	}

	response, err := g.client.Do(request)
	if err != nil {
		return g.mapTransportError(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %v: %w", response.StatusCode, model.ErrGeneratorUnavailable)
	}
	return nil
}

// ModelName returns the configured model name.
func (g *OllamaGenerator) ModelName() string {
	return g.config.Model
}

func (g *OllamaGenerator) mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("ollama request timed out: %v: %w", err, model.ErrGeneratorTimeout)
	}
	return fmt.Errorf("ollama unreachable at %v: %v: %w", g.config.BaseURL, err, model.ErrGeneratorUnavailable)
}
