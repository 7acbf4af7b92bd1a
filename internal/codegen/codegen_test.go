package codegen_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"site-deployer/internal/codegen"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, body string, captured *chatRequest, auth *string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completionBody(content string) string {
	data, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "openai/gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(data)
}

func TestBuildPrompt(t *testing.T) {
	brief := "a counter app with <b>bold</b> & \"quotes\""
	checks := []string{"has a button", "shows the count in #count", "uses <script>"}

	prompt, err := codegen.BuildPrompt(brief, checks)
	require.NoError(t, err)

	assert.Contains(t, prompt, brief)
	for _, check := range checks {
		assert.Contains(t, prompt, check)
	}
	assert.Contains(t, prompt, "has a button\nshows the count in #count\nuses <script>")
	assert.Contains(t, prompt, "Only return the HTML code, nothing else.")
}

func TestBuildPromptNoChecks(t *testing.T) {
	prompt, err := codegen.BuildPrompt("a todo list", nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "a todo list")
	assert.Contains(t, prompt, "Requirements to check:\n\n")
}

func TestGenerate(t *testing.T) {
	var captured chatRequest
	var auth string
	html := "<html>\n<body><button>+</button></body>\n</html>"
	srv := completionServer(t, http.StatusOK, completionBody(html), &captured, &auth)

	gen := codegen.NewOpenAIGenerator(srv.URL+"/v1/", "llm-token", "openai/gpt-4o-mini", 0)

	out, err := gen.Generate(context.Background(), "a counter app", []string{"has a button", "starts at zero"})
	require.NoError(t, err)

	assert.Equal(t, html, out)
	assert.Equal(t, "Bearer llm-token", auth)
	assert.Equal(t, "openai/gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "a counter app")
	assert.Contains(t, captured.Messages[0].Content, "has a button")
	assert.Contains(t, captured.Messages[0].Content, "starts at zero")
}

func TestGenerateKeepsProse(t *testing.T) {
	reply := "Here is your app:\n```html\n<html></html>\n```"
	srv := completionServer(t, http.StatusOK, completionBody(reply), nil, nil)

	gen := codegen.NewOpenAIGenerator(srv.URL+"/v1/", "llm-token", "m", 0)
	out, err := gen.Generate(context.Background(), "brief", []string{"check"})
	require.NoError(t, err)
	assert.Equal(t, reply, out)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("UpstreamError", func(t *testing.T) {
		srv := completionServer(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`, nil, nil)
		gen := codegen.NewOpenAIGenerator(srv.URL+"/v1/", "llm-token", "m", 0)

		_, err := gen.Generate(context.Background(), "brief", nil)
		assert.ErrorContains(t, err, "code generation failed")
	})

	t.Run("NoChoices", func(t *testing.T) {
		srv := completionServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil, nil)
		gen := codegen.NewOpenAIGenerator(srv.URL+"/v1/", "llm-token", "m", 0)

		_, err := gen.Generate(context.Background(), "brief", nil)
		assert.ErrorIs(t, err, codegen.ErrNoChoices)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := completionServer(t, http.StatusOK, completionBody("x"), nil, nil)
		url := srv.URL
		srv.Close()

		gen := codegen.NewOpenAIGenerator(url+"/v1/", "llm-token", "m", 0)
		_, err := gen.Generate(context.Background(), "brief", nil)
		assert.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "code generation failed"))
	})
}
