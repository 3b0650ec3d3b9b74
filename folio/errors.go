package folio

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching. The typed errors below match their
// sentinel through Is, so callers can use either style.
var (
	ErrConfiguration          = errors.New("folio: configuration error")
	ErrProvider               = errors.New("folio: provider error")
	ErrMalformedResponse      = errors.New("folio: malformed model response")
	ErrNoProviderAvailable    = errors.New("folio: no AI provider available; configure at least one API key")
	ErrUnsupportedContentType = errors.New("folio: unsupported content type")
	ErrInvalidInput           = errors.New("folio: invalid input")
	ErrEmptyResume            = errors.New("folio: resume text is empty")
)

// envVar names the environment variable a user sets to configure p. Used only
// in messages.
func envVar(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// ConfigurationError reports a missing credential. Provider is empty when no
// provider at all is configured. Not retryable.
type ConfigurationError struct {
	Provider Provider
	// Operation is the call that needed the provider, e.g. "parse resume".
	Operation string
}

func (e *ConfigurationError) Error() string {
	if e.Provider == "" {
		return "folio: no AI API keys configured; set at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY"
	}
	if e.Operation != "" {
		return fmt.Sprintf("folio: %s requires the %s provider; set %s", e.Operation, e.Provider, envVar(e.Provider))
	}
	return fmt.Sprintf("folio: %s provider not configured; set %s", e.Provider, envVar(e.Provider))
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ProviderError is a failed backend call: non-success status, transport
// failure, timeout, or an unreadable response body.
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("folio: %s provider failed (status %d): %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("folio: %s provider failed: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Temporary reports whether the failure may succeed on retry.
func (e *ProviderError) Temporary() bool {
	switch {
	case e.StatusCode == 408, e.StatusCode == 429, e.StatusCode >= 500:
		return true
	case e.StatusCode != 0:
		return false
	}
	// No status: transport failure or timeout of a single attempt. A
	// cancelled caller context is not worth retrying.
	return !errors.Is(e.Err, errCallerCanceled)
}

// errCallerCanceled marks a ProviderError caused by the caller's context.
var errCallerCanceled = errors.New("caller canceled")

// MalformedResponseError means the provider answered but its content was not
// the expected JSON. Raw keeps the text so a caller can show it or ask for a
// regeneration.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return ErrMalformedResponse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrMalformedResponse.Error(), e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// UnsupportedContentTypeError is returned for a content type with no prompt builder.
type UnsupportedContentTypeError struct {
	ContentType ContentType
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("folio: unsupported content type %q", e.ContentType)
}

func (e *UnsupportedContentTypeError) Is(target error) bool { return target == ErrUnsupportedContentType }

// InvalidInputError reports a task input that failed decoding or validation.
type InvalidInputError struct {
	ContentType ContentType
	Err         error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("folio: invalid %s input: %v", e.ContentType, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }
