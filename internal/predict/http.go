package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

const maxResponseBytes = 1 << 20

func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// HTTPPredictor forwards observations to a JSON-over-HTTP model service.
// The body is the observation array; the answer is {"predicted_class": "..."}.
type HTTPPredictor struct {
	url        string
	httpClient *http.Client
}

type httpErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// NewHTTPPredictor creates a new HTTP predictor
func NewHTTPPredictor(config Config) (*HTTPPredictor, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("predictor URL is required")
	}
	if _, err := url.ParseRequestURI(config.URL); err != nil {
		return nil, fmt.Errorf("invalid predictor URL %q: %w", config.URL, err)
	}

	return &HTTPPredictor{
		url: strings.TrimSuffix(config.URL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(config.HTTPProxy, config.HTTPSProxy),
			},
		},
	}, nil
}

// Name returns the provider name
func (p *HTTPPredictor) Name() string {
	return "http"
}

// Endpoint returns the URL predictions are posted to
func (p *HTTPPredictor) Endpoint() string {
	return p.url
}

// Predict posts the observations once and returns the answered label
func (p *HTTPPredictor) Predict(ctx context.Context, req Request) (model.Prediction, error) {
	observations := req.Observations
	if observations == nil {
		observations = []model.Observation{}
	}

	body, err := json.Marshal(observations)
	if err != nil {
		return model.Prediction{}, model.NewRemoteUnavailableError(err, "encode prediction request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return model.Prediction{}, model.NewRemoteUnavailableError(err, "create prediction request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return model.Prediction{}, model.NewRemoteUnavailableError(err, "prediction request")
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return model.Prediction{}, model.NewRemoteUnavailableError(err, "read prediction response")
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr httpErrorBody
		if err := json.Unmarshal(respBody, &apiErr); err == nil && (apiErr.Error != "" || apiErr.Detail != "") {
			return model.Prediction{}, model.NewRemoteUnavailableError(
				fmt.Errorf("HTTP %d: %s%s", httpResp.StatusCode, apiErr.Error, apiErr.Detail), "prediction")
		}
		return model.Prediction{}, model.NewRemoteUnavailableError(
			fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody))), "prediction")
	}

	var resp model.Prediction
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return model.Prediction{}, model.NewRemoteUnavailableError(err, "decode prediction response")
	}

	resp.PredictedClass = cleanLabel(resp.PredictedClass)
	if resp.PredictedClass == "" {
		return model.Prediction{}, model.NewRemoteUnavailableError(nil, "prediction (empty predicted_class)")
	}

	return resp, nil
}
