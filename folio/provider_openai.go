package folio

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIAdapter struct {
	client *openai.Client
	opts   adapterOptions
}

func newOpenAIAdapter(opts adapterOptions, hc *http.Client) *openAIAdapter {
	oc := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		oc.BaseURL = opts.BaseURL
	}
	if hc != nil {
		oc.HTTPClient = hc
	}
	return &openAIAdapter{client: openai.NewClientWithConfig(oc), opts: opts}
}

func (a *openAIAdapter) Provider() Provider { return ProviderOpenAI }

func (a *openAIAdapter) Model() string { return a.opts.Model }

func (a *openAIAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:    a.opts.Model,
		Messages: msgs,
	}
	if a.opts.Temperature != nil {
		req.Temperature = *a.opts.Temperature
	}
	if a.opts.MaxOutputTokens > 0 {
		req.MaxCompletionTokens = a.opts.MaxOutputTokens
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return GenerationResponse{}, a.translateError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return GenerationResponse{}, &ProviderError{Provider: ProviderOpenAI, StatusCode: http.StatusOK, Message: "no choices in response"}
	}

	out := GenerationResponse{
		Content:  resp.Choices[0].Message.Content,
		Model:    a.opts.Model,
		Provider: ProviderOpenAI,
	}
	if u := resp.Usage; u.PromptTokens > 0 || u.CompletionTokens > 0 || u.TotalTokens > 0 {
		out.Usage = &Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}

func (a *openAIAdapter) translateError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: ProviderOpenAI, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &ProviderError{Provider: ProviderOpenAI, StatusCode: reqErr.HTTPStatusCode, Message: msg, Err: err}
	}
	return transportError(ctx, ProviderOpenAI, err)
}
