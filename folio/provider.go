package folio

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Adapter is the single text-generation capability every backend implements.
// An adapter owns one credential and one model and performs exactly one
// outbound call per GenerateText. It never retries.
type Adapter interface {
	Provider() Provider
	Model() string
	// GenerateText sends prompt with an optional system instruction (empty
	// means none). Failures are returned as *ProviderError.
	GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error)
}

// adapterOptions is the provider-agnostic slice of Config each concrete
// adapter needs.
type adapterOptions struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int
	Temperature     *float32
}

func optionsFor(p Provider, cfg Config) adapterOptions {
	return adapterOptions{
		APIKey:          cfg.Credentials.Key(p),
		Model:           cfg.Models.model(p),
		BaseURL:         cfg.BaseURLs.model(p),
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
	}
}

// newAdapter builds the concrete adapter for p. cfg must already carry defaults.
func newAdapter(p Provider, cfg Config) (Adapter, error) {
	opts := optionsFor(p, cfg)
	if opts.APIKey == "" {
		return nil, &ConfigurationError{Provider: p}
	}
	switch p {
	case ProviderOpenAI:
		return newOpenAIAdapter(opts, cfg.HTTPClient), nil
	case ProviderAnthropic:
		return newAnthropicAdapter(opts, cfg.HTTPClient), nil
	case ProviderGoogle:
		return newGoogleAdapter(opts, cfg.HTTPClient)
	default:
		return nil, fmt.Errorf("folio: unsupported provider %q", p)
	}
}

// transportError wraps a failure that happened before any status code was
// seen. Caller cancellation is tagged so the retry layer leaves it alone.
func transportError(ctx context.Context, p Provider, err error) *ProviderError {
	pe := &ProviderError{Provider: p, Err: err}
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		pe.Err = fmt.Errorf("%w: %w", errCallerCanceled, err)
		pe.Message = "request canceled"
		return pe
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
		pe.Message = "request timed out"
	}
	return pe
}
