package predict

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/sieve/internal/model"
)

// OpenAIPredictor asks an OpenAI-compatible chat model to name the class
type OpenAIPredictor struct {
	name    string
	client  *openai.Client
	config  Config
	baseURL string
}

// NewOpenAIPredictor creates a new OpenAI predictor
func NewOpenAIPredictor(config Config) (*OpenAIPredictor, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy: newProxyFunc(config.HTTPProxy, config.HTTPSProxy),
		},
	}

	return &OpenAIPredictor{
		name:    "openai",
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		baseURL: clientConfig.BaseURL,
	}, nil
}

// Name returns the provider name
func (p *OpenAIPredictor) Name() string {
	return p.name
}

// Endpoint returns the API base URL
func (p *OpenAIPredictor) Endpoint() string {
	return p.baseURL
}

// Predict sends one chat completion and returns the answer verbatim
func (p *OpenAIPredictor) Predict(ctx context.Context, req Request) (model.Prediction, error) {
	modelName := p.config.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 50
	}

	chatReq := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a classifier. You answer with a single class name.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return model.Prediction{}, model.NewRemoteUnavailableError(err, p.name+" prediction")
	}

	if len(resp.Choices) == 0 {
		return model.Prediction{}, model.NewRemoteUnavailableError(nil, p.name+" prediction (no choices)")
	}

	label := cleanLabel(resp.Choices[0].Message.Content)
	if label == "" {
		return model.Prediction{}, model.NewRemoteUnavailableError(nil, p.name+" prediction (empty answer)")
	}

	return model.Prediction{PredictedClass: label}, nil
}
