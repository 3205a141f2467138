// Package imagegen provides the outbound image-generation client, the
// retrying job runner, and the scheduler that fans image jobs out across a
// bounded worker pool.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultModel is the image-generation model.
	DefaultModel = "gemini-2.0-flash-exp-image-generation"
	// DefaultBaseURL is the generative language API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultCallTimeout bounds a single outbound image call.
	DefaultCallTimeout = 90 * time.Second
)

// Image is a generated image payload with its declared media type.
type Image struct {
	MIMEType string
	Data     []byte
}

// Client issues a single image-generation call per prompt. A successful call
// that produced no usable image returns (nil, nil).
type Client interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
}

// APIError is a classified failure from the image-generation endpoint.
// Transient failures (remote rate limiting, server-side errors) are worth
// retrying; everything else is permanent.
type APIError struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("image API returned %d: %s", e.StatusCode, e.Message)
}

// HTTPClient calls the generative language image endpoint over HTTP.
type HTTPClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the API root, primarily for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *HTTPClient) { c.baseURL = url }
}

// WithModel overrides the image-generation model.
func WithModel(model string) ClientOption {
	return func(c *HTTPClient) { c.model = model }
}

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// NewHTTPClient creates an image-generation client for the given API key.
func NewHTTPClient(apiKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultCallTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request/response shapes for the generateContent endpoint.

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData *struct {
					MIMEType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate issues one image-generation call. HTTP 429 and 5xx responses are
// classified transient, other non-success responses permanent. A 200 response
// without inline image data is not an error: it returns (nil, nil).
func (c *HTTPClient) Generate(ctx context.Context, prompt string) (*Image, error) {
	payload := generateRequest{
		Contents: []requestContent{
			{Parts: []requestPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"Text", "Image"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncateBody(respBody),
			Transient:  isTransientStatus(resp.StatusCode),
		}
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 {
		return nil, nil
	}
	for _, part := range decoded.Candidates[0].Content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return &Image{MIMEType: mime, Data: data}, nil
	}
	return nil, nil
}

// isTransientStatus reports whether an HTTP status is worth retrying.
func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// truncateBody bounds an error body for diagnostics.
func truncateBody(body []byte) string {
	const max = 300
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}

// DataURI encodes an image payload for inline embedding.
func DataURI(img *Image) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
}
