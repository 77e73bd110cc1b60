package predict

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/sieve/internal/model"
)

func sampleRequest() Request {
	return Request{
		Observations: []model.Observation{
			{Name: "caliber", Value: model.StringValue("9x19")},
			{Name: "magazine_capacity", Value: model.NumberValue(17)},
		},
		Classes: []string{"Glock 17", "AK-74"},
	}
}

func TestHTTPPredictor_Predict_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		var got []map[string]interface{}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("Failed to decode body %s: %v", body, err)
		}
		if len(got) != 2 || got[0]["name"] != "caliber" || got[0]["value"] != "9x19" {
			t.Errorf("Unexpected first observation: %v", got)
		}
		if got[1]["value"] != float64(17) {
			t.Errorf("Expected numeric value to stay a number, got %#v", got[1]["value"])
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"predicted_class": " Glock 17 "})
	}))
	defer server.Close()

	p, err := NewHTTPPredictor(Config{URL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create predictor: %v", err)
	}

	resp, err := p.Predict(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if resp.PredictedClass != "Glock 17" {
		t.Errorf("Unexpected class: %q", resp.PredictedClass)
	}
}

func TestHTTPPredictor_Predict_ServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "model not loaded"}`))
	}))
	defer server.Close()

	p, _ := NewHTTPPredictor(Config{URL: server.URL})
	_, err := p.Predict(context.Background(), sampleRequest())
	if !model.IsRemoteUnavailable(err) {
		t.Fatalf("Expected remote unavailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected exactly one attempt, got %d", calls)
	}
}

func TestHTTPPredictor_Predict_MalformedAndEmpty(t *testing.T) {
	for name, body := range map[string]string{
		"malformed": `not json`,
		"empty":     `{"predicted_class": ""}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			p, _ := NewHTTPPredictor(Config{URL: server.URL})
			if _, err := p.Predict(context.Background(), sampleRequest()); !model.IsRemoteUnavailable(err) {
				t.Errorf("Expected remote unavailable, got %v", err)
			}
		})
	}
}

func TestHTTPPredictor_Predict_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p, _ := NewHTTPPredictor(Config{URL: url})
	if _, err := p.Predict(context.Background(), sampleRequest()); !model.IsRemoteUnavailable(err) {
		t.Errorf("Expected remote unavailable, got %v", err)
	}
}

func TestNewHTTPPredictor_RequiresURL(t *testing.T) {
	if _, err := NewHTTPPredictor(Config{}); err == nil {
		t.Error("Expected error for missing URL")
	}
}

type stubWaiter struct {
	keys []string
	err  error
}

func (w *stubWaiter) Wait(_ context.Context, key string) error {
	w.keys = append(w.keys, key)
	return w.err
}

func TestThrottle_KeysByEndpointAndFailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predicted_class": "AK-74"}`))
	}))
	defer server.Close()

	p, _ := NewHTTPPredictor(Config{URL: server.URL})
	w := &stubWaiter{}
	throttled := Throttle(p, w)

	if _, err := throttled.Predict(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(w.keys) != 1 || w.keys[0] != server.URL {
		t.Errorf("Expected limiter keyed by endpoint, got %v", w.keys)
	}

	w.err = errors.New("context canceled")
	if _, err := throttled.Predict(context.Background(), sampleRequest()); !model.IsRemoteUnavailable(err) {
		t.Errorf("Expected remote unavailable on limiter failure, got %v", err)
	}
}
