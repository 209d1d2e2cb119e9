package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// RetryProvider re-sends failed generations with capped exponential
// backoff. Permanent failures and cancellations are returned at once, and
// output that failed schema validation gets exactly one more attempt.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    zerolog.Logger
}

// WithRetry wraps p with retry logic.
func WithRetry(p Provider, cfg RetryConfig, log zerolog.Logger) Provider {
	return &RetryProvider{inner: p, config: cfg, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		err             error
		resp            *Response
		invalidAttempts int
	)

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) {
			invalidAttempts++
		}
		if !retryable(err) || invalidAttempts > 1 || attempt == r.config.MaxAttempts-1 {
			return nil, err
		}

		wait := r.backoff(attempt, err)
		r.log.Debug().Err(err).
			Str("purpose", string(PurposeFrom(ctx))).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("retrying llm request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether another attempt could succeed. Unclassified
// errors are usually network failures and count as transient.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !IsPermanent(err)
}

// backoff returns how long to wait before the attempt after attempt. A
// provider's Retry-After wins over the computed delay.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	base := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	base = math.Min(base, float64(r.config.MaxWait))

	// ±20% jitter
	wait := base * (0.8 + 0.4*rand.Float64())
	return time.Duration(max(wait, 0))
}
