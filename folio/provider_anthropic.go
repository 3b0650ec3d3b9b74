package folio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicRequestTimeout is handed to the SDK so it skips its own
// non-streaming guard; Config.Timeout bounds each attempt.
const anthropicRequestTimeout = 10 * time.Minute

// anthropicAdapter talks to the Anthropic Messages API through the official SDK.
type anthropicAdapter struct {
	client anthropic.Client
	opts   adapterOptions
}

func newAnthropicAdapter(opts adapterOptions, hc *http.Client) *anthropicAdapter {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// Retries belong to the retry decorator.
		option.WithMaxRetries(0),
		option.WithRequestTimeout(anthropicRequestTimeout),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if hc != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(hc))
	}
	return &anthropicAdapter{client: anthropic.NewClient(reqOpts...), opts: opts}
}

func (a *anthropicAdapter) Provider() Provider { return ProviderAnthropic }

func (a *anthropicAdapter) Model() string { return a.opts.Model }

func (a *anthropicAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: int64(a.opts.MaxOutputTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if s := strings.TrimSpace(system); s != "" {
		params.System = []anthropic.TextBlockParam{{Text: s}}
	}
	if a.opts.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*a.opts.Temperature))
	}

	var httpResp *http.Response
	msg, err := a.client.Messages.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		return GenerationResponse{}, a.translateError(ctx, httpResp, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	out := GenerationResponse{
		Content:  text.String(),
		Model:    a.opts.Model,
		Provider: ProviderAnthropic,
	}
	if msg.JSON.Usage.Valid() {
		in, outTokens := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
		out.Usage = &Usage{
			PromptTokens:     in,
			CompletionTokens: outTokens,
			TotalTokens:      in + outTokens,
		}
	}
	return out, nil
}

// translateError maps SDK failures onto *ProviderError by status code.
// httpResp is whatever the SDK saw last; nil means the request never got an
// answer.
func (a *anthropicAdapter) translateError(ctx context.Context, httpResp *http.Response, err error) *ProviderError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   ProviderAnthropic,
			StatusCode: apiErr.StatusCode,
			Message:    anthropicErrorMessage(apiErr.StatusCode, apiErr.RawJSON()),
		}
	}
	if httpResp == nil {
		return transportError(ctx, ProviderAnthropic, err)
	}
	if httpResp.StatusCode >= 400 {
		// The SDK could not read the error body as JSON.
		return &ProviderError{
			Provider:   ProviderAnthropic,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", httpResp.StatusCode),
		}
	}
	return &ProviderError{Provider: ProviderAnthropic, StatusCode: httpResp.StatusCode, Message: "decode response", Err: err}
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func anthropicErrorMessage(status int, raw string) string {
	var body anthropicErrorBody
	if json.Unmarshal([]byte(raw), &body) == nil && body.Error.Message != "" {
		if body.Error.Type != "" {
			return body.Error.Type + ": " + body.Error.Message
		}
		return body.Error.Message
	}
	return fmt.Sprintf("unexpected status %d", status)
}
