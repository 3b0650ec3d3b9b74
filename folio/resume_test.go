package folio

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalProfileJSON = `{"personal":{"name":"Jane Doe"},"experience":[],"education":[],"skills":[{"name":"Go","category":"language"}]}`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `  {"a":1}  `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around fence", "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy.", `{"a":1}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
		{"fence with object on first line", "```{\"a\":1}\n```", `{"a":1}`},
		{"backticks inside bare json", "{\"s\":\"see ```go``` here\"}", "{\"s\":\"see ```go``` here\"}"},
		{"backticks inside fenced json", "```json\n{\"s\":\"see ```go``` here\"}\n```", "{\"s\":\"see ```go``` here\"}"},
		{"indented fence", "  Sure:\n  ```json\n  {\"a\":1}\n  ```", `{"a":1}`},
		{"inline backticks in prose", "Use ```go``` blocks.", "Use ```go``` blocks."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestDecodeProfileFencedEqualsBare(t *testing.T) {
	bare, err := DecodeProfile(minimalProfileJSON)
	require.NoError(t, err)
	fenced, err := DecodeProfile("```json\n" + minimalProfileJSON + "\n```")
	require.NoError(t, err)
	assert.Equal(t, bare, fenced)

	assert.Equal(t, "Jane Doe", bare.Personal.Name)
	assert.NotNil(t, bare.Projects)
	assert.NotNil(t, bare.Awards)
}

func TestDecodeProfileBackticksInValue(t *testing.T) {
	raw := `{"personal":{"name":"Jane Doe"},"summary":"Writes docs with ` + "```go```" + ` snippets","experience":[],"education":[],"skills":[]}`

	p, err := DecodeProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, "Writes docs with ```go``` snippets", p.Summary)

	fenced, err := DecodeProfile("```json\n" + raw + "\n```")
	require.NoError(t, err)
	assert.Equal(t, p, fenced)
}

func TestDecodeProfileMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "I could not find a resume in that text."},
		{"truncated", `{"personal":{"name":"Jane"`},
		{"missing sections", `{"personal":{"name":"Jane"}}`},
		{"wrong type", `{"personal":{},"experience":"none","education":[],"skills":[]}`},
		{"skill without name", `{"personal":{},"experience":[],"education":[],"skills":[{"category":"tool"}]}`},
		{"array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProfile(tt.raw)
			var me *MalformedResponseError
			require.ErrorAs(t, err, &me)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, tt.raw, me.Raw)
		})
	}
}

func TestParseResume(t *testing.T) {
	fake := newFake(ProviderOpenAI, DefaultModelOpenAI, "```json\n"+minimalProfileJSON+"\n```")
	o := newTestOrchestrator(t, testConfig(), fake)

	p, err := o.ParseResume(context.Background(), "Jane Doe\nGo developer")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.Personal.Name)

	assert.Contains(t, fake.lastPrompt(), "Jane Doe\nGo developer")
	assert.Contains(t, fake.lastSystem(), ExtractionSystemInstruction)
	assert.True(t, strings.HasSuffix(fake.lastSystem(), JSONOutputInstruction))
}

func TestParseResumeFixture(t *testing.T) {
	raw, err := os.ReadFile("testdata/profile.json")
	require.NoError(t, err)
	fake := newFake(ProviderOpenAI, DefaultModelOpenAI, string(raw))
	o := newTestOrchestrator(t, testConfig(), fake)

	p, err := o.ParseResume(context.Background(), "resume")
	require.NoError(t, err)
	assert.Len(t, p.Experience, 2)
	assert.Len(t, p.Languages, 2)
}

func TestParseResumeRequiresPrimary(t *testing.T) {
	other := newFake(ProviderAnthropic, DefaultModelAnthropic, minimalProfileJSON)
	o := newTestOrchestrator(t, testConfig(), other)

	_, err := o.ParseResume(context.Background(), "resume")
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ProviderOpenAI, ce.Provider)
	assert.Equal(t, 0, other.callCount())
}

func TestParseResumeEmptyText(t *testing.T) {
	fake := newFake(ProviderOpenAI, DefaultModelOpenAI, minimalProfileJSON)
	o := newTestOrchestrator(t, testConfig(), fake)

	_, err := o.ParseResume(context.Background(), " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyResume)
	assert.Equal(t, 0, fake.callCount())
}

func TestParseResumeMalformed(t *testing.T) {
	fake := newFake(ProviderOpenAI, DefaultModelOpenAI, "Sorry, I can't help with that.")
	o := newTestOrchestrator(t, testConfig(), fake)

	_, err := o.ParseResume(context.Background(), "resume")
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "Sorry, I can't help with that.", me.Raw)
}

func TestParseResumeProviderFailure(t *testing.T) {
	fake := &fakeAdapter{provider: ProviderOpenAI, model: "m", reply: func(int, string, string) (string, error) {
		return "", &ProviderError{Provider: ProviderOpenAI, StatusCode: 401, Message: "invalid key"}
	}}
	o := newTestOrchestrator(t, testConfig(), fake)

	_, err := o.ParseResume(context.Background(), "resume")
	assert.ErrorIs(t, err, ErrProvider)
}
