package folio

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// CredentialSet holds one API key per provider. An empty key means the
// provider is not configured.
type CredentialSet struct {
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
	Google    string `yaml:"google"`
}

// CredentialsFromEnv reads the conventional environment variables. It is the
// only place in the package that touches the environment, and callers decide
// whether to use it.
func CredentialsFromEnv() CredentialSet {
	google := os.Getenv("GOOGLE_API_KEY")
	if google == "" {
		google = os.Getenv("GOOGLE_AI_API_KEY")
	}
	if google == "" {
		google = os.Getenv("GEMINI_API_KEY")
	}
	return CredentialSet{
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		Google:    google,
	}
}

// Key returns the credential for p.
func (c CredentialSet) Key(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderAnthropic:
		return c.Anthropic
	case ProviderGoogle:
		return c.Google
	default:
		return ""
	}
}

// Empty reports whether no credential is present.
func (c CredentialSet) Empty() bool {
	return len(c.Providers()) == 0
}

// Providers lists the providers with a non-empty credential, in fixed order.
func (c CredentialSet) Providers() []Provider {
	out := make([]Provider, 0, len(allProviders))
	for _, p := range allProviders {
		if c.Key(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// ModelSet names the model used for each provider.
type ModelSet struct {
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
	Google    string `yaml:"google"`
}

func (m ModelSet) model(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return m.OpenAI
	case ProviderAnthropic:
		return m.Anthropic
	case ProviderGoogle:
		return m.Google
	default:
		return ""
	}
}

// Default model identifiers.
const (
	DefaultModelOpenAI    = "gpt-4o-mini"
	DefaultModelAnthropic = "claude-3-haiku-20240307"
	DefaultModelGoogle    = "gemini-1.5-flash"
)

// Config is the orchestrator-wide configuration. Secrets live in Credentials;
// everything else is tuning.
type Config struct {
	Credentials CredentialSet

	// Models overrides the per-provider default model.
	Models ModelSet

	// BaseURLs overrides the per-provider API endpoint (self-hosted gateways,
	// Azure-style proxies, tests).
	BaseURLs ModelSet

	// Shared HTTP client for all adapters. nil uses a fresh http.Client.
	HTTPClient *http.Client

	// Timeout bounds each provider attempt. Zero uses DefaultTimeout; a
	// negative value disables the per-attempt deadline.
	Timeout time.Duration

	Retry RetryConfig

	// RequestsPerMinute caps calls per provider. Zero means unlimited.
	RequestsPerMinute int

	// FallbackOnError lets GenerateContent move on to the next provider in
	// priority order when a provider call fails.
	FallbackOnError bool

	// EnhanceConcurrency bounds parallel per-section enhancement calls.
	EnhanceConcurrency int

	// Optional response shaping applied by every adapter.
	MaxOutputTokens int
	Temperature     *float32

	// Cache, when set, memoizes successful responses.
	Cache ResponseCache

	Logger zerolog.Logger
}

// DefaultTimeout bounds a single provider attempt when Config.Timeout is zero.
const DefaultTimeout = 60 * time.Second

const (
	defaultMaxOutputTokens    = 4096
	defaultEnhanceConcurrency = 4
)

// DefaultConfig returns a Config with default models, timeout and retry policy
// and the given credentials.
func DefaultConfig(creds CredentialSet) Config {
	return Config{
		Credentials:        creds,
		Models:             ModelSet{OpenAI: DefaultModelOpenAI, Anthropic: DefaultModelAnthropic, Google: DefaultModelGoogle},
		Timeout:            DefaultTimeout,
		Retry:              DefaultRetryConfig,
		EnhanceConcurrency: defaultEnhanceConcurrency,
		MaxOutputTokens:    defaultMaxOutputTokens,
		Logger:             zerolog.Nop(),
	}
}

// withDefaults fills unset fields. A zero-value Logger writes nowhere, which is
// what the library wants when the caller did not pass one.
func (c Config) withDefaults() Config {
	if c.Models.OpenAI == "" {
		c.Models.OpenAI = DefaultModelOpenAI
	}
	if c.Models.Anthropic == "" {
		c.Models.Anthropic = DefaultModelAnthropic
	}
	if c.Models.Google == "" {
		c.Models.Google = DefaultModelGoogle
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = DefaultRetryConfig
	}
	if c.EnhanceConcurrency <= 0 {
		c.EnhanceConcurrency = defaultEnhanceConcurrency
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = defaultMaxOutputTokens
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	return c
}
