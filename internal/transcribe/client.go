// Package transcribe drives the external speech-to-text service: one
// client call per chunk, bounded-parallel orchestration with retry and
// manifest checkpointing.
package transcribe

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Request is one transcription call.
type Request struct {
	AudioPath      string
	Model          string
	ResponseFormat string // "json" or "text"
	Prompt         string // domain-vocabulary hint, not conversation context
}

// Client is the transcription service collaborator.
type Client interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// OpenAIClient calls the OpenAI audio transcription endpoint.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient builds a client with a per-call HTTP timeout so an
// unresponsive upload cannot stall a worker slot indefinitely.
func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// Transcribe uploads the chunk audio and returns its text.
func (c *OpenAIClient) Transcribe(ctx context.Context, req Request) (string, error) {
	format := openai.AudioResponseFormatJSON
	if req.ResponseFormat == "text" {
		format = openai.AudioResponseFormatText
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    req.Model,
		FilePath: req.AudioPath,
		Prompt:   req.Prompt,
		Format:   format,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Error markers that identify a transient service failure.
var transientMarkers = []string{
	"rate_limit_exceeded",
	"server_error",
	"temporarily_unavailable",
}

// IsTransient reports whether err is worth retrying: rate limits, server
// errors and temporary unavailability. Anything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return true
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500 {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
