package predict

import (
	"context"

	"github.com/ppiankov/sieve/internal/model"
)

// Waiter blocks until a call against key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Throttled rate limits a predictor per endpoint
type Throttled struct {
	next   Predictor
	waiter Waiter
	key    string
}

// Throttle wraps a predictor. The limiter key is the endpoint when the
// predictor exposes one, otherwise its name.
func Throttle(p Predictor, w Waiter) *Throttled {
	key := p.Name()
	if e, ok := p.(interface{ Endpoint() string }); ok {
		key = e.Endpoint()
	}
	return &Throttled{next: p, waiter: w, key: key}
}

// Name returns the wrapped provider name
func (t *Throttled) Name() string {
	return t.next.Name()
}

// Predict waits for the limiter, then makes the single remote attempt
func (t *Throttled) Predict(ctx context.Context, req Request) (model.Prediction, error) {
	if err := t.waiter.Wait(ctx, t.key); err != nil {
		return model.Prediction{}, model.NewRemoteUnavailableError(err, t.next.Name()+" prediction (rate limit)")
	}
	return t.next.Predict(ctx, req)
}
