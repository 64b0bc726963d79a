package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auricast/auricast/internal/apperr"
)

func TestHTTPClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transcriptions", r.URL.Path)

		var req transcribeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn/ep1.mp3", req.AudioURL)

		_ = json.NewEncoder(w).Encode(transcribeResponse{Text: "hello world."})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	text, err := client.Transcribe(context.Background(), "https://cdn/ep1.mp3")
	require.NoError(t, err)
	assert.Equal(t, "hello world.", text)
}

func TestHTTPClient_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech", r.URL.Path)
		_ = json.NewEncoder(w).Encode(SynthesisResult{AudioURL: "https://cdn/out.mp3", DurationMs: 4200})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	res, err := client.Synthesize(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/out.mp3", res.AudioURL)
	assert.Equal(t, int64(4200), res.DurationMs)
}

func TestHTTPClient_Synthesize_IncompleteResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SynthesisResult{AudioURL: "https://cdn/out.mp3"})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "hello")
	assert.Error(t, err)
}

func TestHTTPClient_RateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), "https://cdn/ep1.mp3")
	require.Error(t, err)

	var te *apperr.TransientError
	assert.ErrorAs(t, err, &te)
}

func TestHTTPClient_EmptyInputs(t *testing.T) {
	client, err := NewHTTPClient("http://localhost:9999")
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), "")
	assert.Error(t, err)

	_, err = client.Synthesize(context.Background(), "")
	assert.Error(t, err)
}
