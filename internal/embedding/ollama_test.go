package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auricast/auricast/internal/apperr"
)

func TestOllamaClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "test-model")
	require.NoError(t, err)

	vec, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaClient_EmbedBatch_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "test-model")
	require.NoError(t, err)

	_, err = client.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestOllamaClient_Embed_EmptyText(t *testing.T) {
	client, err := NewOllamaClient("http://localhost:11434", "test-model")
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "")
	require.Error(t, err)

	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestOllamaClient_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "test-model")
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, apperr.IsRetryable(err))
}

func TestOllamaClient_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := NewOllamaClient(srv.URL, "test-model",
		WithHttpClient(&http.Client{Timeout: 20 * time.Millisecond}))
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "hello")
	require.Error(t, err)

	var te *apperr.TransientError
	assert.ErrorAs(t, err, &te)
}

func TestNewOllamaClient_MissingModel(t *testing.T) {
	_, err := NewOllamaClient("http://localhost:11434", "")
	assert.Error(t, err)
}
