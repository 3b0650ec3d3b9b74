package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraraka-deko/folio/folio"
)

const (
	testOpenAIKey    = "sk-cli-openai-secret"
	testAnthropicKey = "sk-cli-anthropic-secret"
)

// fakeBackends serves the OpenAI chat completions and Anthropic messages
// endpoints from one server. Each handler answers with the given text.
type fakeBackends struct {
	srv       *httptest.Server
	openai    string
	anthropic string
	calls     atomic.Int32
}

func newFakeBackends(t *testing.T) *fakeBackends {
	t.Helper()
	fb := &fakeBackends{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		fb.calls.Add(1)
		assert.Equal(t, "Bearer "+testOpenAIKey, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   folio.DefaultModelOpenAI,
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": fb.openai}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	})
	mux.HandleFunc("/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		fb.calls.Add(1)
		assert.Equal(t, testAnthropicKey, r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   folio.DefaultModelAnthropic,
			"content": []any{map[string]any{"type": "text", "text": fb.anthropic}},
			"usage":   map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	})
	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GOOGLE_AI_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(k, "")
	}
}

// writeTestConfig points the OpenAI and Anthropic adapters at fb and
// disables retries.
func writeTestConfig(t *testing.T, fb *fakeBackends, extra string) string {
	t.Helper()
	content := fmt.Sprintf(`
providers:
  openai:
    base_url: %s/v1
  anthropic:
    base_url: %s
retry:
  max_attempts: 1
logger:
  level: debug
  format: json
%s`, fb.srv.URL, fb.srv.URL, extra)
	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	for _, key := range []string{testOpenAIKey, testAnthropicKey} {
		assert.NotContains(t, out.String(), key)
		assert.NotContains(t, errOut.String(), key)
		if err != nil {
			assert.NotContains(t, err.Error(), key)
		}
	}
	return out.String(), errOut.String(), err
}

func TestProvidersCommand(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)

	out, _, err := runCLI(t, "--config", writeTestConfig(t, fb, ""), "providers")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "PROVIDER")
	assert.Contains(t, lines[1], "openai")
	assert.Contains(t, lines[1], "not configured (set OPENAI_API_KEY)")
	assert.Contains(t, lines[2], folio.DefaultModelAnthropic)
	assert.Contains(t, lines[2], "configured")
	assert.Contains(t, lines[3], "not configured (set GOOGLE_API_KEY)")
	assert.Zero(t, fb.calls.Load())
}

func TestParseCommand(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", testOpenAIKey)
	fb := newFakeBackends(t)
	fb.openai = "```json\n" + `{"personal":{"name":"Jane Doe"},"experience":[],"education":[],"skills":[{"name":"Go","category":"language"}]}` + "\n```"

	dir := t.TempDir()
	in := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(in, []byte("Jane Doe\nGo developer"), 0o644))
	outPath := filepath.Join(dir, "out", "profile.json")

	_, _, err := runCLI(t, "--config", writeTestConfig(t, fb, ""), "parse", "--in", in, "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var p folio.Profile
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, "Jane Doe", p.Personal.Name)
	assert.Equal(t, []folio.Project{}, p.Projects)
}

func TestParseCommandWithoutPrimaryKey(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)

	in := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(in, []byte("Jane"), 0o644))

	_, _, err := runCLI(t, "--config", writeTestConfig(t, fb, ""), "parse", "--in", in)
	require.ErrorIs(t, err, folio.ErrConfiguration)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Zero(t, fb.calls.Load())
}

func TestEnhanceCommand(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	fb.anthropic = `{"summary":"Ships reliable payment systems."}`

	in := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"personal":{"name":"Jane"},"summary":"Engineer.","experience":[{"company":"Acme","position":"Engineer","startDate":"2020-01","description":"Built things.","highlights":[]}],"education":[],"skills":[]}`), 0o644))

	out, _, err := runCLI(t, "--config", writeTestConfig(t, fb, ""), "enhance", "--in", in)
	require.NoError(t, err)

	var ep folio.EnhancedProfile
	require.NoError(t, json.Unmarshal([]byte(out), &ep))
	assert.Equal(t, "Ships reliable payment systems.", ep.Enhanced.Summary.Recommended)
	assert.Equal(t, "Engineer.", ep.Enhanced.Summary.Original)
	require.Len(t, ep.Enhanced.Experience, 1)
	assert.Equal(t, int32(1), fb.calls.Load())
}

func TestGenerateCommand(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	fb.anthropic = `{"rewritten":"Sharper copy."}`

	out, logs, err := runCLI(t, "--config", writeTestConfig(t, fb, ""),
		"generate", "--type", "rewrite", "--input", `{"content":"I code.","context":"bio"}`)
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "Sharper copy.", data["rewritten"])
	assert.Contains(t, logs, `"provider":"anthropic"`)
}

func TestGenerateCommandInputFile(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", testOpenAIKey)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	fb.openai = `{"description":"A ledger.","highlights":["fast"]}`

	in := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"name":"ledgerd","technologies":["Go"],"basicDescription":"ledger"}`), 0o644))

	out, _, err := runCLI(t, "--config", writeTestConfig(t, fb, ""),
		"generate", "-t", "project", "--input-file", in, "--provider", "gpt4")
	require.NoError(t, err)
	assert.Contains(t, out, `"description": "A ledger."`)
}

func TestGenerateCommandErrors(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	cfg := writeTestConfig(t, fb, "")

	_, _, err := runCLI(t, "--config", cfg, "generate", "--type", "rewrite")
	require.Error(t, err, "one of --input or --input-file is required")

	_, _, err = runCLI(t, "--config", cfg, "generate", "--type", "rewrite", "--input", "{}", "--input-file", "x.json")
	require.Error(t, err)

	_, _, err = runCLI(t, "--config", cfg, "generate", "--type", "rewrite", "--input", `{"content":"a","context":"b"}`, "--provider", "mistral")
	require.ErrorContains(t, err, "unknown provider")

	_, _, err = runCLI(t, "--config", cfg, "generate", "--type", "haiku", "--input", `{}`)
	require.ErrorIs(t, err, folio.ErrUnsupportedContentType)

	_, _, err = runCLI(t, "--config", cfg, "generate", "--type", "rewrite", "--input", `{"content":""}`)
	require.ErrorIs(t, err, folio.ErrInvalidInput)
	assert.Zero(t, fb.calls.Load())
}

func TestGenerateCommandMalformedOutput(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	fb.anthropic = "Here is your rewrite: punchier words."

	_, logs, err := runCLI(t, "--config", writeTestConfig(t, fb, ""),
		"generate", "--type", "rewrite", "--input", `{"content":"a","context":"b"}`)
	var mre *folio.MalformedResponseError
	require.True(t, errors.As(err, &mre))
	assert.Contains(t, logs, "punchier words")
}

func TestGenerateCommandNoKeys(t *testing.T) {
	clearKeyEnv(t)
	fb := newFakeBackends(t)

	_, _, err := runCLI(t, "--config", writeTestConfig(t, fb, ""),
		"generate", "--type", "rewrite", "--input", `{"content":"a","context":"b"}`)
	require.ErrorIs(t, err, folio.ErrConfiguration)
}

func TestCaptionCommand(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	fb.anthropic = `{"caption":"Ledger throughput dashboard."}`
	cfg := writeTestConfig(t, fb, "")

	out, logs, err := runCLI(t, "--config", cfg, "caption", "--project", "ledgerd", "--category", "screenshot")
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "Ledger throughput dashboard.", data["caption"])
	assert.Contains(t, logs, "caption generated")

	_, _, err = runCLI(t, "--config", cfg, "caption", "--project", "ledgerd", "--category", "selfie")
	require.ErrorIs(t, err, folio.ErrInvalidInput)

	_, _, err = runCLI(t, "--config", cfg, "caption", "--project", "ledgerd")
	require.Error(t, err)
	assert.Equal(t, int32(1), fb.calls.Load())
}

func TestInvalidConfig(t *testing.T) {
	clearKeyEnv(t)
	fb := newFakeBackends(t)

	_, _, err := runCLI(t, "--config", writeTestConfig(t, fb, "cache:\n  type: disk\n"), "providers")
	require.ErrorContains(t, err, "cache.type")
}

func TestRedisCacheFlag(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	fb.anthropic = `{"rewritten":"cached"}`
	mr := miniredis.RunT(t)
	cfg := writeTestConfig(t, fb, "")

	for i := 0; i < 2; i++ {
		out, _, err := runCLI(t, "--config", cfg, "--redis-addr", mr.Addr(), "--cache-ttl", "10m",
			"generate", "--type", "rewrite", "--input", `{"content":"a","context":"b"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "cached")
	}
	assert.Equal(t, int32(1), fb.calls.Load())
	assert.Len(t, mr.Keys(), 1)
	assert.True(t, strings.HasPrefix(mr.Keys()[0], folio.DefaultRedisKeyPrefix))
}

func TestRedisUnavailable(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", testAnthropicKey)
	fb := newFakeBackends(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := runCLI(t, "--config", writeTestConfig(t, fb, ""), "--redis-addr", addr, "providers")
	require.ErrorContains(t, err, "connect to redis")
}
