package folio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Generator is the content-generation boundary used by UI actions: it checks
// credentials, builds the prompt for a content type, calls the orchestrator
// and parses the JSON answer.
type Generator struct {
	orch      *Orchestrator
	preferred Provider
}

// GeneratorOption customizes NewGenerator.
type GeneratorOption func(*Generator)

// WithPreferredProvider overrides the provider Submit asks for first. When p is
// not configured the orchestrator's fallback order applies.
func WithPreferredProvider(p Provider) GeneratorOption {
	return func(g *Generator) {
		g.preferred = p
	}
}

// NewGenerator returns a Generator backed by orch.
func NewGenerator(orch *Orchestrator, opts ...GeneratorOption) *Generator {
	g := &Generator{orch: orch}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit generates content of type ct from input and returns the model's JSON
// object. See BuildPrompt for the accepted input forms.
func (g *Generator) Submit(ctx context.Context, ct ContentType, input any) (map[string]any, error) {
	data, _, err := g.SubmitResult(ctx, ct, input)
	return data, err
}

// SubmitResult is Submit that also returns the raw generation, so callers can
// see which provider and model answered.
func (g *Generator) SubmitResult(ctx context.Context, ct ContentType, input any) (map[string]any, GenerationResponse, error) {
	if len(g.orch.Providers()) == 0 {
		return nil, GenerationResponse{}, &ConfigurationError{}
	}
	prompt, system, err := BuildPrompt(ct, input)
	if err != nil {
		return nil, GenerationResponse{}, err
	}
	return g.generate(ctx, ct, prompt, system)
}

// contentCaption labels caption requests in errors and logs. It is not one of
// ContentTypes.
const contentCaption ContentType = "caption"

// Caption writes an image caption from a CaptionInput, accepted in the same
// forms as Submit input. The result carries a "caption" key.
func (g *Generator) Caption(ctx context.Context, input any) (map[string]any, GenerationResponse, error) {
	if len(g.orch.Providers()) == 0 {
		return nil, GenerationResponse{}, &ConfigurationError{}
	}
	in, err := decodeInput[CaptionInput](contentCaption, input)
	if err != nil {
		return nil, GenerationResponse{}, err
	}
	return g.generate(ctx, contentCaption, CaptionPrompt(in), CaptionSystemInstruction)
}

func (g *Generator) generate(ctx context.Context, ct ContentType, prompt, system string) (map[string]any, GenerationResponse, error) {
	preferred := g.preferred
	if preferred == "" {
		preferred = g.orch.Providers()[0]
	}

	g.orch.log.Debug().
		Str("content_type", string(ct)).
		Str("preferred", string(preferred)).
		Msg("submitting generation request")

	resp, err := g.orch.GenerateContent(ctx, prompt, withJSONInstruction(system), preferred)
	if err != nil {
		return nil, GenerationResponse{}, err
	}

	data, err := decodeJSONObject(resp.Content)
	if err != nil {
		g.orch.log.Warn().
			Str("content_type", string(ct)).
			Str("provider", string(resp.Provider)).
			Msg("generation returned malformed JSON")
		return nil, resp, err
	}
	return data, resp, nil
}

// decodeInput converts the accepted input forms into T and validates it.
func decodeInput[T any](ct ContentType, input any) (T, error) {
	var in T
	switch v := input.(type) {
	case T:
		in = v
	case *T:
		if v == nil {
			return in, &InvalidInputError{ContentType: ct, Err: errors.New("input is nil")}
		}
		in = *v
	case json.RawMessage:
		if err := json.Unmarshal(v, &in); err != nil {
			return in, &InvalidInputError{ContentType: ct, Err: err}
		}
	case []byte:
		if err := json.Unmarshal(v, &in); err != nil {
			return in, &InvalidInputError{ContentType: ct, Err: err}
		}
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return in, &InvalidInputError{ContentType: ct, Err: err}
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return in, &InvalidInputError{ContentType: ct, Err: err}
		}
	case nil:
		return in, &InvalidInputError{ContentType: ct, Err: errors.New("input is nil")}
	default:
		return in, &InvalidInputError{ContentType: ct, Err: fmt.Errorf("unsupported input type %T", input)}
	}

	if err := validate.Struct(in); err != nil {
		return in, &InvalidInputError{ContentType: ct, Err: err}
	}
	return in, nil
}
