package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/pkg/config"
)

func newAnthropicTest(url string) *AnthropicService {
	s := NewAnthropicService("sk-test", "claude-test")
	s.endpoint = url
	return s
}

func TestAnthropic_Chat(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":" Dzień dobry "}]}`))
	}))
	defer srv.Close()

	reply, err := newAnthropicTest(srv.URL).Chat(context.Background(), ports.ChatRequest{
		SystemPrompt: "Jesteś asystentem biura rachunkowego.",
		MaxTokens:    512,
		Temperature:  0.3,
		Messages: []ports.ChatMessage{
			{Role: "user", Content: "Cześć"},
			{Role: "assistant", Content: "Witaj"},
			{Role: "user", Content: "Jaki jest termin VAT?"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dzień dobry", reply)
	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	assert.Len(t, got.Messages, 3)
	assert.Equal(t, "Jesteś asystentem biura rachunkowego.", got.System)
}

func TestAnthropic_ErrorDeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	_, err := newAnthropicTest(srv.URL).Chat(context.Background(), ports.ChatRequest{
		Messages: []ports.ChatMessage{{Role: "user", Content: "hola"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication_error")
}

func TestAnthropic_RespuestaVacia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	_, err := newAnthropicTest(srv.URL).Chat(context.Background(), ports.ChatRequest{})
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	f := NewFactory(config.AIConfig{AnthropicAPIKey: "server-key", AnthropicModel: "claude-test"})

	llm, err := f.For("anthropic", "")
	require.NoError(t, err)
	assert.Equal(t, "server-key", llm.(*AnthropicService).apiKey)

	llm, err = f.For("anthropic", "company-key")
	require.NoError(t, err)
	assert.Equal(t, "company-key", llm.(*AnthropicService).apiKey)

	_, err = f.For("gemini", "")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = f.For("openai", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestToGeminiContents_Roles(t *testing.T) {
	out := toGeminiContents([]ports.ChatMessage{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "user", out[0].Role)
	assert.Equal(t, "model", out[1].Role)
}
