package predict

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

// NewPredictor creates a predictor based on configuration
func NewPredictor(config Config) (Predictor, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "http":
		return NewHTTPPredictor(config)

	case "openai":
		return NewOpenAIPredictor(config)

	case "ollama":
		// Ollama serves an OpenAI-compatible API under /v1
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434/v1"
		}
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		p, err := NewOpenAIPredictor(config)
		if err != nil {
			return nil, err
		}
		p.name = "ollama"
		return p, nil

	case "":
		return Disabled{}, nil

	default:
		return nil, fmt.Errorf("unknown predictor provider: %s (supported: http, openai, ollama)", config.Provider)
	}
}

// Disabled answers every prediction with a remote-unavailable error
type Disabled struct{}

// Name returns the provider name
func (Disabled) Name() string {
	return "disabled"
}

// Predict always fails
func (Disabled) Predict(context.Context, Request) (model.Prediction, error) {
	return model.Prediction{}, model.NewRemoteUnavailableError(nil, "prediction (no predictor configured)")
}
