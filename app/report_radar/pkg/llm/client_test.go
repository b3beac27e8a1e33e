package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.LLMConfig{BaseURL: srv.URL + "/", APIKey: "test-key"})
}

func writeContent(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
}

func TestClient_Generate(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		writeContent(w, "## 行业概览\n内容")
	})

	out, err := c.Generate(context.Background(), Request{Prompt: "写一段"})
	require.NoError(t, err)
	assert.Equal(t, "## 行业概览\n内容", out)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.InDelta(t, 0.35, got.Temperature, 1e-9)
	assert.Equal(t, "text", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, DefaultSystem, got.Messages[0].Content)
	assert.Equal(t, "写一段", got.Messages[1].Content)
}

func TestClient_CustomSystemAndTokens(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeContent(w, "{}")
	})

	_, err := c.Generate(context.Background(), Request{Prompt: "p", System: "只输出 JSON", MaxTokens: 1200})
	require.NoError(t, err)
	assert.Equal(t, "只输出 JSON", got.Messages[0].Content)
	assert.Equal(t, 1200, got.MaxTokens)
}

func TestClient_ConfigurationError(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := NewClient(config.LLMConfig{BaseURL: srv.URL, APIKey: "  "})
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.False(t, called, "no request may be sent without a credential")
}

func TestClient_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	})

	_, err := c.Generate(context.Background(), Request{Prompt: "p"})

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "rate limited")
	assert.Contains(t, err.Error(), "429")
}

func TestClient_TimeoutError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := c.Generate(context.Background(), Request{Prompt: "p", Timeout: 50 * time.Millisecond})

	var toErr *TimeoutError
	require.True(t, errors.As(err, &toErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(config.LLMConfig{BaseURL: url, APIKey: "k"})
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})

	var toErr *TimeoutError
	assert.True(t, errors.As(err, &toErr))
}

func TestClient_EmptyResponse(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "blank content", handler: func(w http.ResponseWriter, r *http.Request) { writeContent(w, "  \n ") }},
		{name: "no choices", handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"choices":[]}`)) }},
		{name: "not json", handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html>`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Generate(context.Background(), Request{Prompt: "p"})

			var emptyErr *EmptyResponseError
			assert.True(t, errors.As(err, &emptyErr))
		})
	}
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(config.ConcurrencyConfig{}))

	l := NewLimiter(config.ConcurrencyConfig{RPM: 120})
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
	assert.InDelta(t, 2.0, float64(l.Limit()), 1e-9)
}

func TestNew_Provider(t *testing.T) {
	g, err := New(context.Background(), config.LLMConfig{APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Client{}, g)

	_, err = New(context.Background(), config.LLMConfig{Provider: "bogus"}, nil)
	assert.Error(t, err)

	g, err = New(context.Background(), config.LLMConfig{Provider: "eino"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &EinoClient{}, g)
	_, err = g.Generate(context.Background(), Request{Prompt: "p"})
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
