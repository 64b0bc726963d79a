package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/auricast/auricast/internal/apperr"
)

// HTTPClient calls a speech service exposing /v1/transcriptions and
// /v1/speech endpoints. One client serves both directions.
type HTTPClient struct {
	base url.URL
	http *http.Client
}

type HTTPOption func(*HTTPClient)

const defaultTimeout = 120 * time.Second

func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	client := &HTTPClient{
		base: *base,
		http: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func WithHttpClient(httpClient *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.http = httpClient
	}
}

type transcribeRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func (c *HTTPClient) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if audioURL == "" {
		return "", apperr.NewValidation("missing audio url to transcribe")
	}

	var resp transcribeResponse
	if err := c.do(ctx, "/v1/transcriptions", transcribeRequest{AudioURL: audioURL}, &resp); err != nil {
		return "", err
	}

	return resp.Text, nil
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

func (c *HTTPClient) Synthesize(ctx context.Context, text string) (*SynthesisResult, error) {
	if text == "" {
		return nil, apperr.NewValidation("missing text to synthesize")
	}

	var resp SynthesisResult
	if err := c.do(ctx, "/v1/speech", synthesizeRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if resp.AudioURL == "" || resp.DurationMs <= 0 {
		return nil, fmt.Errorf("speech service returned incomplete result: url=%q duration=%d", resp.AudioURL, resp.DurationMs)
	}

	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, path string, reqData, respData any) error {
	body, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return apperr.NewTransientWrap("speech request timed out", err)
		}
		return apperr.NewTransientWrap("speech request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return apperr.NewTransientWrap("speech service unavailable", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("speech request rejected: status %d: %s", resp.StatusCode, payload)
	}

	if err := json.NewDecoder(resp.Body).Decode(respData); err != nil {
		return fmt.Errorf("failed to decode speech response: %w", err)
	}

	return nil
}
