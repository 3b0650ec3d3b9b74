package folio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RetryConfig configures retries of temporarily failing provider calls.
type RetryConfig struct {
	// MaxAttempts counts the first call. 1 disables retries.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig retries a temporary failure once.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:       2,
	InitialBackoff:    500 * time.Millisecond,
	MaxBackoff:        8 * time.Second,
	BackoffMultiplier: 2.0,
}

// retryingAdapter re-invokes the wrapped adapter while it fails with a
// temporary ProviderError.
type retryingAdapter struct {
	Adapter
	cfg RetryConfig
	log zerolog.Logger
}

func (r *retryingAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err := r.Adapter.GenerateText(ctx, prompt, system)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		backoff := calculateBackoff(attempt, r.cfg)
		r.log.Warn().Err(err).
			Str("provider", string(r.Provider())).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("provider call failed, retrying")

		select {
		case <-ctx.Done():
			return GenerationResponse{}, transportError(ctx, r.Provider(), ctx.Err())
		case <-time.After(backoff):
		}
	}
	return GenerationResponse{}, lastErr
}

func isRetryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Temporary()
}

func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	mult := cfg.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	backoff := float64(cfg.InitialBackoff) * math.Pow(mult, float64(attempt))
	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// timeoutAdapter bounds every call with its own deadline.
type timeoutAdapter struct {
	Adapter
	timeout time.Duration
}

func (t *timeoutAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Adapter.GenerateText(ctx, prompt, system)
}

// rateLimitedAdapter waits for a token before each call.
type rateLimitedAdapter struct {
	Adapter
	limiter *rate.Limiter
}

func newRateLimitedAdapter(a Adapter, perMinute int) *rateLimitedAdapter {
	burst := perMinute / 2
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedAdapter{
		Adapter: a,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}
}

func (r *rateLimitedAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return GenerationResponse{}, transportError(ctx, r.Provider(), err)
	}
	return r.Adapter.GenerateText(ctx, prompt, system)
}

// decorate stacks the configured decorators around a concrete adapter:
// cache, then retry, then rate limit, then the per-attempt timeout.
func decorate(a Adapter, cfg Config) Adapter {
	if cfg.Timeout > 0 {
		a = &timeoutAdapter{Adapter: a, timeout: cfg.Timeout}
	}
	if cfg.RequestsPerMinute > 0 {
		a = newRateLimitedAdapter(a, cfg.RequestsPerMinute)
	}
	if cfg.Retry.MaxAttempts > 1 {
		a = &retryingAdapter{Adapter: a, cfg: cfg.Retry, log: cfg.Logger}
	}
	if cfg.Cache != nil {
		a = &cachingAdapter{Adapter: a, cache: cfg.Cache, log: cfg.Logger}
	}
	return a
}
