// Package googletts implements the tts.Synthesizer interface against the
// Google Cloud Text-to-Speech REST API (v1beta1), requesting SSML_MARK
// timepointing so the backend reports an offset for every honored mark.
package googletts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/voxcue/voxcue/internal/tts"
)

// Static errors for client construction.
var (
	// ErrAPIKeyNotSet is returned when no API key is provided and the
	// GOOGLE_TTS_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("googletts: GOOGLE_TTS_API_KEY environment variable is not set")
	// ErrEmptyAudio is returned when the backend responds without audio content.
	ErrEmptyAudio = errors.New("googletts: response contains no audio")
)

const defaultBaseURL = "https://texttospeech.googleapis.com/v1beta1"

// Client is the HTTP implementation of the tts.Synthesizer interface.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	policy     tts.Policy
}

// Compile-time interface implementation check.
var _ tts.Synthesizer = (*Client)(nil)

// Option is a function that configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithPolicy sets the retry policy applied around synthesis requests.
func WithPolicy(p tts.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// NewClient creates a new Google TTS HTTP client. The API key can be set via
// the WithAPIKey option; if not provided, it is read from the environment
// variable GOOGLE_TTS_API_KEY. A missing key is a construction-time error,
// never deferred to the first request.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		policy:     tts.DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("GOOGLE_TTS_API_KEY")
	}
	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// Synthesize renders the SSML document and returns audio bytes plus the
// timepoints the backend reported. A partial timepoint list is returned
// as-is; filling gaps is the aligner's responsibility.
func (c *Client) Synthesize(ctx context.Context, ssmlDoc string, voice tts.VoiceConfig) (tts.Result, error) {
	if err := voice.Validate(); err != nil {
		return tts.Result{}, err
	}

	reqBody := synthesizeRequest{
		Input: synthesisInput{SSML: ssmlDoc},
		Voice: voiceParams{
			LanguageCode: voice.LanguageCode,
			Name:         voice.VoiceName,
			SSMLGender:   voice.Gender,
		},
		AudioConfig: audioConfig{
			AudioEncoding: voice.AudioEncoding,
			SpeakingRate:  voice.SpeakingRate,
		},
		EnableTimePointing: []string{"SSML_MARK"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return tts.Result{}, fmt.Errorf("googletts: marshal request: %w", err)
	}

	url := c.baseURL + "/text:synthesize"

	var resp synthesizeResponse
	err = c.policy.Do(ctx, func() error {
		return c.doRequest(ctx, url, bodyBytes, len(ssmlDoc), &resp)
	})
	if err != nil {
		return tts.Result{}, err
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return tts.Result{}, fmt.Errorf("googletts: decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return tts.Result{}, ErrEmptyAudio
	}

	timepoints := make([]tts.Timepoint, 0, len(resp.Timepoints))
	for _, tp := range resp.Timepoints {
		timepoints = append(timepoints, tts.Timepoint{
			Mark:   tp.MarkName,
			Offset: time.Duration(tp.TimeSeconds * float64(time.Second)),
		})
	}

	return tts.Result{Audio: audio, Timepoints: timepoints}, nil
}

// doRequest performs a single HTTP request and maps the response status to
// the tts error taxonomy.
func (c *Client) doRequest(ctx context.Context, url string, body []byte, ssmlBytes int, result *synthesizeResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("googletts: create request: %w", err)
	}

	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &tts.TransientError{Err: fmt.Errorf("googletts: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &tts.TransientError{Err: fmt.Errorf("googletts: read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapStatusError(resp.StatusCode, respBody, ssmlBytes)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("googletts: unmarshal response: %w", err)
	}

	return nil
}

// mapStatusError converts a non-2xx response into the tts error taxonomy.
func (c *Client) mapStatusError(status int, body []byte, ssmlBytes int) error {
	message := string(body)
	var envelope errorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", tts.ErrAuthentication, message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", tts.ErrQuotaExceeded, message)
	case status == http.StatusBadRequest:
		return &tts.InvalidRequestError{SSMLBytes: ssmlBytes, Message: message}
	case status >= 500:
		return &tts.TransientError{Err: fmt.Errorf("googletts: server error %d: %s", status, message)}
	default:
		return fmt.Errorf("googletts: request failed with status %d: %s", status, message)
	}
}
