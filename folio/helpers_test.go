package folio

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeAdapter records calls and answers from a script.
type fakeAdapter struct {
	provider Provider
	model    string
	reply    func(call int, prompt, system string) (string, error)

	mu      sync.Mutex
	calls   int
	prompts []string
	systems []string
}

func newFake(p Provider, model, content string) *fakeAdapter {
	return &fakeAdapter{
		provider: p,
		model:    model,
		reply: func(int, string, string) (string, error) {
			return content, nil
		},
	}
}

func (f *fakeAdapter) Provider() Provider { return f.provider }

func (f *fakeAdapter) Model() string { return f.model }

func (f *fakeAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, system)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return GenerationResponse{}, transportError(ctx, f.provider, err)
	}
	content, err := f.reply(call, prompt, system)
	if err != nil {
		return GenerationResponse{}, err
	}
	return GenerationResponse{
		Content:  content,
		Model:    f.model,
		Provider: f.provider,
		Usage:    &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAdapter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeAdapter) lastSystem() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.systems) == 0 {
		return ""
	}
	return f.systems[len(f.systems)-1]
}

// testConfig disables retries so failing fakes fail fast.
func testConfig() Config {
	cfg := DefaultConfig(CredentialSet{})
	cfg.Retry = RetryConfig{MaxAttempts: 1}
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg Config, adapters ...Adapter) *Orchestrator {
	t.Helper()
	opts := make([]Option, 0, len(adapters))
	for _, a := range adapters {
		opts = append(opts, WithAdapter(a))
	}
	o, err := NewOrchestrator(cfg, opts...)
	require.NoError(t, err)
	return o
}
