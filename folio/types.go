package folio

// Provider identifies a model backend.
type Provider string

const (
	// ProviderOpenAI is the primary provider. Résumé extraction runs against it.
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is the secondary provider. Narrative enhancement runs against it.
	ProviderAnthropic Provider = "anthropic"
	// ProviderGoogle is the tertiary provider.
	ProviderGoogle Provider = "google"
)

// allProviders is the fixed listing order used by Providers() and CLI output.
var allProviders = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}

// AllProviders lists every supported provider in priority order: primary,
// secondary, tertiary.
func AllProviders() []Provider {
	return append([]Provider(nil), allProviders...)
}

// fallbackOrder is the order GenerateContent walks when the preferred
// provider is not configured.
var fallbackOrder = []Provider{ProviderAnthropic, ProviderGoogle, ProviderOpenAI}

// EnvVar names the environment variable that configures p.
func (p Provider) EnvVar() string { return envVar(p) }

// ParseProvider maps a user-facing name to a Provider. Model nicknames (gpt4,
// claude, gemini) and priority names (primary, secondary, tertiary) are
// accepted too.
func ParseProvider(s string) (Provider, bool) {
	switch s {
	case "openai", "gpt4", "gpt-4", "primary":
		return ProviderOpenAI, true
	case "anthropic", "claude", "secondary":
		return ProviderAnthropic, true
	case "google", "gemini", "tertiary":
		return ProviderGoogle, true
	default:
		return "", false
	}
}

// Usage holds token accounting as reported by a backend.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// GenerationResponse is the provider-agnostic result of one adapter call.
type GenerationResponse struct {
	// Content is always set, possibly to "" on degenerate output.
	Content string `json:"content"`

	// Usage is nil when the backend did not report token counts.
	Usage *Usage `json:"usage,omitempty"`

	// Model is the model identifier that actually answered.
	Model string `json:"model"`

	Provider Provider `json:"provider"`
}

// ContentType selects a portfolio content-generation task.
type ContentType string

const (
	ContentSummary    ContentType = "summary"
	ContentExperience ContentType = "experience"
	ContentProject    ContentType = "project"
	ContentSkills     ContentType = "skills"
	ContentRewrite    ContentType = "rewrite"
)

// ContentTypes lists every content type the generator accepts.
func ContentTypes() []ContentType {
	return []ContentType{ContentSummary, ContentExperience, ContentProject, ContentSkills, ContentRewrite}
}
