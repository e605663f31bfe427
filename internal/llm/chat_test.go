package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/mycelian-journal/internal/model"
)

func newTestClient(url string, retries int) *ChatClient {
	return NewChatClient(Config{
		BaseURL:        url,
		APIKey:         "k-test",
		Model:          "test-model",
		Timeout:        2 * time.Second,
		MaxRetries:     retries,
		RatePerSec:     1000,
		InitialBackoff: time.Millisecond,
	}, zerolog.Nop())
}

func TestChatClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k-test", r.Header.Get("Authorization"))

		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, 500, body.MaxTokens)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, RoleSystem, body.Messages[0].Role)
			assert.Equal(t, "hello", body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"You are doing well."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, 0).Complete(context.Background(), Prompt("sys", "hello", 0.7, 500))
	require.NoError(t, err)
	assert.Equal(t, "You are doing well.", out)
}

func TestChatClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"third time"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, 3).Complete(context.Background(), Prompt("s", "u", 0.7, 10))
	require.NoError(t, err)
	assert.Equal(t, "third time", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestChatClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Complete(context.Background(), Prompt("s", "u", 0.7, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrBackendUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestChatClient_EmptyAndMalformedContent(t *testing.T) {
	for name, payload := range map[string]string{
		"no choices": `{"choices":[]}`,
		"blank":      `{"choices":[{"message":{"content":"   "}}]}`,
		"not json":   `<html>oops</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(payload))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, 2).Complete(context.Background(), Prompt("s", "u", 0.7, 10))
			assert.True(t, errors.Is(err, model.ErrBackendUnavailable))
		})
	}
}

func TestChatClient_HealthPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.NoError(t, newTestClient(srv.URL, 0).HealthPing(context.Background()))
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), Prompt("s", "u", 0.7, 10))
	assert.True(t, errors.Is(err, model.ErrBackendUnavailable))
}
