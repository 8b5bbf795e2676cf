package completion

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
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

func newTestServer(t *testing.T, status int, body string, seen *capturedRequest, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	var seen capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Hello."}}]}`, &seen, nil)

	c := NewClient(srv.URL+"/v1/", 5*time.Second)
	out, err := c.Complete(context.Background(), Request{
		Text:   "helo",
		Prompt: "fix it",
		APIKey: "sk-test",
		Model:  "gpt-test",
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello.", out)

	assert.Equal(t, "gpt-test", seen.Model)
	assert.InDelta(t, 0.7, seen.Temperature, 1e-9)
	assert.InDelta(t, 0.8, seen.TopP, 1e-9)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "fix it", seen.Messages[0].Content)
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Equal(t, "helo", seen.Messages[1].Content)
}

func TestCompleteDefaultsPromptAndModel(t *testing.T) {
	var seen capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`, &seen, nil)

	_, err := NewClient(srv.URL+"/v1/", time.Second).Complete(context.Background(), Request{Text: "x", APIKey: "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, DefaultSystemPrompt, seen.Messages[0].Content)
}

func TestCompleteMissingChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"x"}`, nil, nil)

	_, err := NewClient(srv.URL+"/v1/", time.Second).Complete(context.Background(), Request{Text: "x", APIKey: "sk-test"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCompleteMissingContent(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant"}}]}`, nil, nil)

	_, err := NewClient(srv.URL+"/v1/", time.Second).Complete(context.Background(), Request{Text: "x", APIKey: "sk-test"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCompleteMalformedJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"choices": [`, nil, nil)

	_, err := NewClient(srv.URL+"/v1/", time.Second).Complete(context.Background(), Request{Text: "x", APIKey: "sk-test"})
	assert.Error(t, err)
}

func TestCompleteHTTPErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`, nil, &calls)

	_, err := NewClient(srv.URL+"/v1/", time.Second).Complete(context.Background(), Request{Text: "x", APIKey: "sk-test"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url+"/v1/", time.Second).Complete(context.Background(), Request{Text: "x", APIKey: "sk-test"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}
