package folio

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Orchestrator holds one adapter per configured provider and exposes the
// task-level operations. The adapter map is fixed at construction, so an
// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	cfg      Config
	adapters map[Provider]Adapter
	log      zerolog.Logger
	now      func() time.Time
}

// Option customizes NewOrchestrator.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	adapters []Adapter
	now      func() time.Time
}

// WithAdapter registers a for a.Provider(), replacing any adapter built from
// credentials. Injected adapters get the same decorators as built ones.
func WithAdapter(a Adapter) Option {
	return func(o *orchestratorOptions) {
		o.adapters = append(o.adapters, a)
	}
}

// withClock overrides the clock used to derive profile metadata.
func withClock(now func() time.Time) Option {
	return func(o *orchestratorOptions) {
		o.now = now
	}
}

// NewOrchestrator builds an adapter for every provider with a credential. A
// missing credential leaves that provider absent; it is not an error.
func NewOrchestrator(cfg Config, opts ...Option) (*Orchestrator, error) {
	cfg = cfg.withDefaults()

	var oo orchestratorOptions
	for _, opt := range opts {
		opt(&oo)
	}
	if oo.now == nil {
		oo.now = time.Now
	}

	adapters := make(map[Provider]Adapter, len(allProviders))
	for _, p := range cfg.Credentials.Providers() {
		a, err := newAdapter(p, cfg)
		if err != nil {
			return nil, err
		}
		adapters[p] = decorate(a, cfg)
	}
	for _, a := range oo.adapters {
		adapters[a.Provider()] = decorate(a, cfg)
	}

	o := &Orchestrator{
		cfg:      cfg,
		adapters: adapters,
		log:      cfg.Logger,
		now:      oo.now,
	}
	for _, p := range o.Providers() {
		o.log.Debug().
			Str("provider", string(p)).
			Str("model", adapters[p].Model()).
			Msg("provider configured")
	}
	return o, nil
}

// Providers lists the configured providers in fixed order.
func (o *Orchestrator) Providers() []Provider {
	out := make([]Provider, 0, len(o.adapters))
	for _, p := range allProviders {
		if _, ok := o.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Model returns the model configured for p, or "" when p is absent.
func (o *Orchestrator) Model(p Provider) string {
	if a, ok := o.adapters[p]; ok {
		return a.Model()
	}
	return ""
}

// HasProvider reports whether p is configured.
func (o *Orchestrator) HasProvider(p Provider) bool {
	_, ok := o.adapters[p]
	return ok
}

// candidates returns the adapters GenerateContent may try, preferred first,
// then the fallback order.
func (o *Orchestrator) candidates(preferred Provider) []Adapter {
	out := make([]Adapter, 0, len(o.adapters))
	if a, ok := o.adapters[preferred]; ok {
		out = append(out, a)
	}
	for _, p := range fallbackOrder {
		if p == preferred {
			continue
		}
		if a, ok := o.adapters[p]; ok {
			out = append(out, a)
		}
	}
	return out
}

// GenerateContent sends prompt to preferred when it is configured, otherwise
// to the first configured provider in the order anthropic, google, openai.
// With zero providers it returns ErrNoProviderAvailable without any call.
// Callers that care which model answered must read the response's Model.
func (o *Orchestrator) GenerateContent(ctx context.Context, prompt, system string, preferred Provider) (GenerationResponse, error) {
	cands := o.candidates(preferred)
	if len(cands) == 0 {
		return GenerationResponse{}, ErrNoProviderAvailable
	}
	if cands[0].Provider() != preferred {
		o.log.Debug().
			Str("preferred", string(preferred)).
			Str("provider", string(cands[0].Provider())).
			Msg("preferred provider not configured, using fallback")
	}

	var lastErr error
	for i, a := range cands {
		resp, err := o.call(ctx, a, prompt, system)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !o.cfg.FallbackOnError || i == len(cands)-1 || ctx.Err() != nil || !errors.Is(err, ErrProvider) {
			break
		}
		o.log.Warn().Err(err).
			Str("provider", string(a.Provider())).
			Str("next", string(cands[i+1].Provider())).
			Msg("provider failed, falling back")
	}
	return GenerationResponse{}, lastErr
}

// generateWith calls the adapter for p, which the operation requires.
func (o *Orchestrator) generateWith(ctx context.Context, p Provider, operation, prompt, system string) (GenerationResponse, error) {
	a, ok := o.adapters[p]
	if !ok {
		return GenerationResponse{}, &ConfigurationError{Provider: p, Operation: operation}
	}
	return o.call(ctx, a, prompt, system)
}

func (o *Orchestrator) call(ctx context.Context, a Adapter, prompt, system string) (GenerationResponse, error) {
	start := time.Now()
	resp, err := a.GenerateText(ctx, prompt, system)
	if err != nil {
		o.log.Debug().Err(err).
			Str("provider", string(a.Provider())).
			Str("model", a.Model()).
			Dur("elapsed", time.Since(start)).
			Msg("generation failed")
		return GenerationResponse{}, err
	}

	ev := o.log.Debug().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Dur("elapsed", time.Since(start))
	if resp.Usage != nil {
		ev = ev.Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Int("total_tokens", resp.Usage.TotalTokens)
	}
	ev.Msg("generation complete")
	return resp, nil
}
