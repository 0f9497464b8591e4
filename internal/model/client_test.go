package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyze/internal/prompt"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"single part", `{"candidates":[{"content":{"parts":[{"text":"Save **more**"}]}}]}`, "Save **more**"},
		{"parts joined with a space", `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`, "a b"},
		{"no candidates", `{}`, NoResponseText},
		{"empty candidates", `{"candidates":[]}`, NoResponseText},
		{"no content", `{"candidates":[{"finishReason":"SAFETY"}]}`, NoResponseText},
		{"parts not an array", `{"candidates":[{"content":{"parts":"x"}}]}`, NoResponseText},
		{"empty parts", `{"candidates":[{"content":{"parts":[]}}]}`, NoResponseText},
		{"parts without text", `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`, NoResponseText},
		{"only first candidate", `{"candidates":[{"content":{"parts":[{"text":"first"}]}},{"content":{"parts":[{"text":"second"}]}}]}`, "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTextInvalidJSON(t *testing.T) {
	_, err := ExtractText([]byte("<html>oops</html>"))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestRespond(t *testing.T) {
	var gotKey string
	var gotBody prompt.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hello"}]}}]}`))
	}))
	defer srv.Close()

	payload, err := prompt.Build("hi", nil)
	require.NoError(t, err)

	c := NewClient(srv.URL, "secret")
	text, err := c.Respond(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, payload, gotBody)
}

func TestRespondNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	payload, _ := prompt.Build("hi", nil)
	_, err := NewClient(srv.URL, "").Respond(context.Background(), payload)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestRespondMissingCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"OTHER"}}`))
	}))
	defer srv.Close()

	payload, _ := prompt.Build("hi", nil)
	text, err := NewClient(srv.URL, "").Respond(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, NoResponseText, text)
}

func TestRespondHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	payload, _ := prompt.Build("hi", nil)
	_, err := NewClient(srv.URL, "").Respond(ctx, payload)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
