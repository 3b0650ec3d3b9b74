package folio

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/resume_profile.json
var profileSchemaJSON string

var profileSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(profileSchemaJSON))
})

// ParseResume extracts a Profile from plain résumé text. It always runs
// against the primary provider.
func (o *Orchestrator) ParseResume(ctx context.Context, text string) (*Profile, error) {
	const op = "parse resume"
	if !o.HasProvider(ProviderOpenAI) {
		return nil, &ConfigurationError{Provider: ProviderOpenAI, Operation: op}
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResume
	}

	resp, err := o.generateWith(ctx, ProviderOpenAI, op, ExtractionPrompt(text), withJSONInstruction(ExtractionSystemInstruction))
	if err != nil {
		return nil, err
	}

	p, err := DecodeProfile(resp.Content)
	if err != nil {
		o.log.Warn().Err(err).Str("provider", string(resp.Provider)).Msg("resume extraction returned malformed profile")
		return nil, err
	}
	return p, nil
}

// DecodeProfile parses model output into a normalized Profile. Markdown code
// fences are stripped first. Output that is not JSON, or JSON that lacks the
// required top-level sections, yields a *MalformedResponseError.
func DecodeProfile(raw string) (*Profile, error) {
	body := StripCodeFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	if err := validateProfile(doc); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	var p Profile
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	p.Normalize()
	return &p, nil
}

func validateProfile(doc any) error {
	schema, err := profileSchema()
	if err != nil {
		return fmt.Errorf("load profile schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate profile: %w", err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		f := desc.Field()
		if f == "" {
			f = "(root)"
		}
		msgs = append(msgs, f+": "+desc.Description())
	}
	return fmt.Errorf("profile does not match schema: %s", strings.Join(msgs, "; "))
}

// StripCodeFences removes a surrounding markdown code fence (```json or a bare
// ```) and trims whitespace. Text that is already valid JSON, or that has no
// fence at the start of a line, is only trimmed.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) {
		return text
	}

	start := openingFence(text)
	if start < 0 {
		return text
	}
	body := text[start+3:]

	// Drop a language tag such as "json" on the opening fence line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if len(tag) < 20 && !strings.ContainsAny(tag, " {[") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimPrefix(body, "json")
	}

	if end := closingFence(body); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// openingFence returns the index of the first ``` that starts a line,
// ignoring indentation, or -1.
func openingFence(text string) int {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], "```")
		if i < 0 {
			return -1
		}
		i += from
		lineStart := strings.LastIndexByte(text[:i], '\n') + 1
		if strings.TrimLeft(text[lineStart:i], " \t") == "" {
			return i
		}
		from = i + 3
	}
	return -1
}

// closingFence returns the index of the last ``` in body that starts a line
// or ends the text, or -1.
func closingFence(body string) int {
	for end := strings.LastIndex(body, "```"); end >= 0; end = strings.LastIndex(body[:end], "```") {
		lineStart := strings.LastIndexByte(body[:end], '\n') + 1
		if strings.TrimLeft(body[lineStart:end], " \t") == "" || strings.TrimSpace(body[end+3:]) == "" {
			return end
		}
	}
	return -1
}

// decodeJSONObject parses fenced or bare model output as a JSON object.
func decodeJSONObject(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &out); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	if out == nil {
		return nil, &MalformedResponseError{Raw: raw, Err: fmt.Errorf("expected a JSON object, got null")}
	}
	return out, nil
}
