package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractors_RequireAPIKey(t *testing.T) {
	_, err := NewGeminiExtractor(context.Background(), GeminiOptions{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewOpenAIExtractor(OpenAIOptions{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestGeminiExtractor_Extract(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"id\":\"A1\",\"platform\":\"Airbnb\",\"status\":\"OK\"}]"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	g, err := NewGeminiExtractor(context.Background(), GeminiOptions{APIKey: "test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	text, err := g.Extract(context.Background(), Document{Name: "a.png", MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)
	assert.Contains(t, text, `"A1"`)
	assert.Contains(t, gotBody, "generationConfig")
}

func TestGeminiExtractor_ErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
		sentinel  error
	}{
		{http.StatusTooManyRequests, true, nil},
		{http.StatusServiceUnavailable, true, nil},
		{http.StatusForbidden, false, ErrMissingCredentials},
		{http.StatusBadRequest, false, nil},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"ERR"}}`, tt.status)
		}))

		g, err := NewGeminiExtractor(context.Background(), GeminiOptions{APIKey: "test", BaseURL: srv.URL, HTTPClient: srv.Client()})
		require.NoError(t, err)

		_, err = g.Extract(context.Background(), Document{MIMEType: "image/png", Data: []byte("x")})
		require.Error(t, err)
		assert.Equal(t, tt.transient, IsTransient(err), "status %d", tt.status)
		if tt.sentinel != nil {
			assert.ErrorIs(t, err, tt.sentinel, "status %d", tt.status)
		}
		srv.Close()
	}
}

func TestGeminiExtractor_Blocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	}))
	defer srv.Close()

	g, err := NewGeminiExtractor(context.Background(), GeminiOptions{APIKey: "test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = g.Extract(context.Background(), Document{MIMEType: "application/pdf", Data: []byte("%PDF")})
	assert.ErrorIs(t, err, ErrContentBlocked)
}

func TestOpenAIExtractor_Extract(t *testing.T) {
	var req struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"reservations\":[{\"id\":\"B1\",\"platform\":\"Booking.com\"}]}"}}]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAIExtractor(OpenAIOptions{APIKey: "test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	text, err := o.Extract(context.Background(), Document{Name: "b.jpg", MIMEType: "image/jpeg", Data: []byte("jpeg")})
	require.NoError(t, err)

	assert.Equal(t, "json_object", req.ResponseFormat.Type)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, string(req.Messages[1].Content), "data:image/jpeg;base64,")

	items, err := ParseCandidates(text)
	require.NoError(t, err)
	records, _ := NormalizeCandidates(items)
	require.Len(t, records, 1)
	assert.Equal(t, "B1", records[0].ID)
}

func TestOpenAIExtractor_RejectsPDF(t *testing.T) {
	o, err := NewOpenAIExtractor(OpenAIOptions{APIKey: "test", BaseURL: "http://127.0.0.1:1/v1"})
	require.NoError(t, err)

	_, err = o.Extract(context.Background(), Document{MIMEType: "application/pdf"})
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestOpenAIExtractor_RateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	o, err := NewOpenAIExtractor(OpenAIOptions{APIKey: "test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = o.Extract(context.Background(), Document{MIMEType: "image/png", Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestDetectMIMEType(t *testing.T) {
	tests := map[string]string{
		"list.PDF":    "application/pdf",
		"shot.png":    "image/png",
		"photo.jpeg":  "image/jpeg",
		"export.xlsx": "",
	}
	for name, want := range tests {
		got, ok := DetectMIMEType(name)
		assert.Equal(t, want != "", ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestTransientError(t *testing.T) {
	base := errors.New("boom")
	err := Transient(base)

	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsTransient(base))
	assert.Nil(t, Transient(nil))
}
