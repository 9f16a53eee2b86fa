package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragguard/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

var fastRetry = httpclient.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer lm-studio", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "local-model", req["model"])
		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "prompt text", msgs[1].(map[string]any)["content"])
		assert.Contains(t, req, "temperature")
		assert.EqualValues(t, 64, req["max_tokens"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  the answer \n"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL + "/v1/", APIKey: "lm-studio", Model: "local-model"})

	answer, err := s.Generate(context.Background(), "prompt text", driven.GenerateOptions{
		MaxTokens: 64,
		System:    "be brief",
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "local-model", s.ModelName())
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"api error", http.StatusBadRequest, `{"error":{"message":"context too long"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"status", http.StatusInternalServerError, `{}`},
		{"not json", http.StatusOK, `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s := NewLLMService(LLMConfig{BaseURL: server.URL, Retry: fastRetry})
			_, err := s.Generate(context.Background(), "p", driven.GenerateOptions{})
			assert.Error(t, err)
		})
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: server.URL}).Ping(context.Background()))
}

func TestGenerate_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	answer, err := NewLLMService(LLMConfig{BaseURL: server.URL, Retry: fastRetry}).
		Generate(context.Background(), "p", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: server.URL, Retry: fastRetry}).
		Generate(context.Background(), "p", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(3), calls.Load())
}
