// Package predict adapts remote statistical predictors. It performs no
// classification itself: the observations go out, one label comes back.
package predict

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/sieve/internal/model"
)

// Predictor defines the interface for remote predictors
type Predictor interface {
	// Name returns the provider name
	Name() string

	// Predict returns the single class label the remote side answers.
	// Every failure is a model.ErrRemoteUnavailable; there is no retry.
	Predict(ctx context.Context, req Request) (model.Prediction, error)
}

// Request is the input of one prediction
type Request struct {
	// Observations are forwarded in submission order
	Observations []model.Observation

	// Classes are the candidate labels, used by prompt-based providers only
	Classes []string
}

// Config holds predictor configuration
type Config struct {
	// Provider name: "http", "openai", "ollama", ""
	Provider string

	// URL of the http provider endpoint
	URL string

	// Model name for openai/ollama
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Timeout bounds a single call; zero leaves it to the caller's context
	Timeout time.Duration

	// MaxTokens for the answer of prompt-based providers
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// ConfigFromModel converts model.PredictorConfig to predict.Config
func ConfigFromModel(c model.PredictorConfig) Config {
	return Config{
		Provider:   c.Provider,
		URL:        c.URL,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxTokens:  c.MaxTokens,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
	}
}

// BuildPrompt constructs the prompt for prompt-based providers
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Identify the class of an object from its observed properties.\n\n")
	b.WriteString("Candidate classes:\n")
	for _, c := range req.Classes {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nObserved properties:\n")
	for _, o := range req.Observations {
		fmt.Fprintf(&b, "- %s: %s\n", o.Name, o.Value.String())
	}
	b.WriteString("\nAnswer with exactly one class name from the list and nothing else.")
	return b.String()
}

// cleanLabel normalises a label answered by the remote side
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`.")
	return strings.TrimSpace(s)
}
