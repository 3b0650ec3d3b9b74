package folio

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

type googleAdapter struct {
	client *genai.Client
	opts   adapterOptions
}

func newGoogleAdapter(opts adapterOptions, hc *http.Client) (*googleAdapter, error) {
	gc, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: opts.BaseURL,
		},
	})
	if err != nil {
		// The genai error text embeds the whole client config, key included.
		return nil, &ProviderError{Provider: ProviderGoogle, Message: "create genai client"}
	}
	return &googleAdapter{client: gc, opts: opts}, nil
}

func (a *googleAdapter) Provider() Provider { return ProviderGoogle }

func (a *googleAdapter) Model() string { return a.opts.Model }

func (a *googleAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if a.opts.Temperature != nil {
		cfg.Temperature = genai.Ptr[float32](*a.opts.Temperature)
	}
	if a.opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(a.opts.MaxOutputTokens)
	}

	res, err := a.client.Models.GenerateContent(ctx, a.opts.Model, genai.Text(prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return GenerationResponse{}, &ProviderError{Provider: ProviderGoogle, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		return GenerationResponse{}, transportError(ctx, ProviderGoogle, err)
	}
	if res == nil || len(res.Candidates) == 0 {
		return GenerationResponse{}, &ProviderError{Provider: ProviderGoogle, StatusCode: http.StatusOK, Message: "no candidates in response"}
	}
	return toGenerationResponse(res, a.opts.Model), nil
}

func toGenerationResponse(res *genai.GenerateContentResponse, model string) GenerationResponse {
	out := GenerationResponse{Model: model, Provider: ProviderGoogle}
	if c := res.Candidates[0].Content; c != nil {
		texts := make([]string, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p == nil || p.Thought || p.Text == "" {
				continue
			}
			texts = append(texts, p.Text)
		}
		out.Content = strings.Join(texts, "")
	}

	if um := res.UsageMetadata; um != nil && (um.PromptTokenCount > 0 || um.CandidatesTokenCount > 0 || um.TotalTokenCount > 0) {
		out.Usage = &Usage{
			PromptTokens:     int(um.PromptTokenCount),
			CompletionTokens: int(um.CandidatesTokenCount),
			TotalTokens:      int(um.TotalTokenCount),
		}
	}
	return out
}
