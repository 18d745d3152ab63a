// Package speech talks to the external speech engine that renders validated
// (or unvalidated) SSML to audio.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// Default values.
const (
	defaultTemperature = 0.75
	defaultLanguage    = "ja"
)

// Error messages.
const (
	errFmtServiceErrorWithCode = "speech service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "speech service returned non-OK status: %s, body: %s"
)

var (
	// ErrTextEmpty indicates an empty synthesis request.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrEmptyAudio indicates a successful response without audio.
	ErrEmptyAudio = errors.New("received empty audio data")
	// ErrUnexpectedContentType indicates a response that is not WAV audio.
	ErrUnexpectedContentType = errors.New("unexpected content type")
	// ErrMarkupRejected indicates that the engine could not interpret the
	// markup in the request. Callers may retry with plain text.
	ErrMarkupRejected = errors.New("speech engine rejected markup")
)

// HTTPClient is a client for the speech engine HTTP service.
type HTTPClient struct {
	httpClient  *http.Client
	baseURL     string
	language    string
	temperature float64
}

// Request is the JSON payload of a speech generation request.
type Request struct {
	// Text is the input, plain or SSML.
	Text string `json:"text"`

	// Language is the target language code (e.g., "ja", "en").
	Language string `json:"language"`

	// Temperature controls randomness in speech generation.
	Temperature float64 `json:"temperature"`
}

// ErrorResponse is a structured error returned by the engine.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates a client for the engine at baseURL, e.g.
// "http://localhost:8000". Zero language and temperature use the defaults.
func NewHTTPClient(baseURL, language string, temperature float64, timeout time.Duration) *HTTPClient {
	if language == "" {
		language = defaultLanguage
	}

	if temperature == 0 {
		temperature = defaultTemperature
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		language:    language,
		temperature: temperature,
	}
}

// Synthesize renders text with the client's language and temperature.
func (c *HTTPClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return c.GenerateSpeech(ctx, Request{
		Text:        text,
		Language:    c.language,
		Temperature: c.temperature,
	})
}

// GenerateSpeech sends a generation request and returns WAV audio. A 400 or
// 422 answer is reported as ErrMarkupRejected.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to speech service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeWAV {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedContentType, contentTypeWAV, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the speech service is up.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// parseErrorResponse decodes a structured error, falling back to the raw body.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var cause error

	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		cause = fmt.Errorf(errFmtServiceErrorWithCode, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	} else {
		cause = fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		return fmt.Errorf("%w: %w", ErrMarkupRejected, cause)
	}

	return cause
}
