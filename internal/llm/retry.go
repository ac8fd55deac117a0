package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Backoff configures WithRetry. Delays grow as Base<<attempt, capped at
// Cap, with full jitter.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Cap
	if shifted := b.Base << attempt; attempt < 32 && shifted > 0 && shifted < b.Cap {
		d = shifted
	}
	if d <= 0 {
		return 0
	}
	return rand.N(d) + 1
}

type retrying struct {
	Provider
	backoff Backoff
	sleep   func(context.Context, time.Duration) error
}

// WithRetry retries temporary failures. Invalid output is retried once,
// since the model tends to repeat the same mistake. A vendor's Retry-After
// overrides the computed delay.
func WithRetry(p Provider, b Backoff) Provider {
	if b.Attempts < 1 {
		b.Attempts = 1
	}
	return &retrying{Provider: p, backoff: b, sleep: sleepCtx}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	var err error
	invalidSeen := false
	for attempt := 0; attempt < r.backoff.Attempts; attempt++ {
		if attempt > 0 {
			wait := r.backoff.delay(attempt - 1)
			var e *Error
			if errors.As(err, &e) && e.RetryAfter > 0 {
				wait = e.RetryAfter
			}
			if serr := r.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
		}

		var resp *Response
		resp, err = r.Provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		var e *Error
		if !errors.As(err, &e) || !e.Temporary() {
			return nil, err
		}
		if e.Kind == KindInvalidOutput {
			if invalidSeen {
				return nil, err
			}
			invalidSeen = true
		}
	}
	return nil, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
