package worker

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}

	l3 := NewLimiter(0, 1)
	if l3.defaultRate != rate.Inf {
		t.Errorf("expected unlimited rate for 0 rps, got %v", l3.defaultRate)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://localhost:8000/predict"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_SharesBucketPerHost(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	if !limiter.Allow("http://predictor:8000/predict") {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow("http://predictor:8000/other") {
		t.Error("second request to same host should be throttled")
	}
	if !limiter.Allow("http://elsewhere:8000/predict") {
		t.Error("different host should have its own bucket")
	}
	if !limiter.Allow("openai") {
		t.Error("plain key should have its own bucket")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	_ = limiter.Allow("openai")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "openai"); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.SetRate("http://fast:1/", 1000, 10)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("http://fast:1/predict") {
			t.Fatalf("request %d should be allowed under custom rate", i)
		}
	}
}
