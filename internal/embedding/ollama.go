package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/auricast/auricast/internal/apperr"
)

type OllamaOption func(client *OllamaClient)

// OllamaClient calls an Ollama-compatible embedding API.
type OllamaClient struct {
	base  url.URL
	model string
	http  *http.Client
}

const defaultTimeout = 60 * time.Second

func NewOllamaClient(baseURL, model string, opts ...OllamaOption) (*OllamaClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if model == "" {
		return nil, apperr.NewValidation("missing embedding model name")
	}

	client := &OllamaClient{
		base:  *base,
		model: model,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func WithHttpClient(httpClient *http.Client) OllamaOption {
	return func(client *OllamaClient) {
		client.http = httpClient
	}
}

type embedRequest struct {
	Model string `json:"model"`
	// Input accepts a single string or a list of strings.
	Input any `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (oc *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, apperr.NewValidation("missing text to embed")
	}

	var resp embedResponse
	if err := oc.do(ctx, "/api/embed", embedRequest{Model: oc.model, Input: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(resp.Embeddings))
	}

	return resp.Embeddings[0], nil
}

func (oc *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, apperr.NewValidation("missing texts to embed")
	}

	var resp embedResponse
	if err := oc.do(ctx, "/api/embed", embedRequest{Model: oc.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	return resp.Embeddings, nil
}

func (oc *OllamaClient) do(ctx context.Context, path string, reqData, respData any) error {
	body, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := oc.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := oc.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return apperr.NewTransientWrap("embedding request timed out", err)
		}
		return apperr.NewTransientWrap("embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return apperr.NewTransientWrap("embedding service unavailable", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding request rejected: status %d: %s", resp.StatusCode, payload)
	}

	if err := json.NewDecoder(resp.Body).Decode(respData); err != nil {
		return fmt.Errorf("failed to decode embedding response: %w", err)
	}

	return nil
}
