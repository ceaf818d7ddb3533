// Package sonar is the client for the generative text-completion service
// (a Perplexity-style chat-completions HTTP API). It owns timeouts and the
// retry/backoff policy; callers make a single logical attempt.
package sonar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai/chat/completions"
	DefaultModel   = "sonar-reasoning-pro"

	maxRetries     = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 30 * time.Second
)

var (
	// ErrServiceUnavailable marks network failures, timeouts and non-200
	// statuses that survived the retry loop. Callers should tell the user
	// to try again; session state must not advance.
	ErrServiceUnavailable = errors.New("generative service unavailable")

	// ErrNoContent marks a 200 response that carried no usable text.
	ErrNoContent = errors.New("no content in service response")
)

// Format selects the response shape the prompt asks for. The provider does
// not enforce it; the content parser's fallback path exists for exactly that
// reason.
type Format string

const (
	FormatJSON  Format = "json"
	FormatProse Format = "prose"
)

// Request is one completion call.
type Request struct {
	System string
	Prompt string
	Format Format

	// Schema optionally describes the JSON object the model must emit.
	// Only meaningful with FormatJSON.
	Schema any
}

// Client talks to the completion endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint. An empty baseURL
// selects the public API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// --- Structs for the chat-completions request/response ---

type chatPayload struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Schema any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt and returns the raw response text. The response
// may or may not conform to the requested format.
func (c *Client) Complete(ctx context.Context, log *zerolog.Logger, req Request) (string, error) {
	if c.apiKey == "" {
		log.Error().Msg("FATAL: SONAR_API_KEY environment variable is not set.")
		return "", fmt.Errorf("server is not configured for AI generation: %w", ErrServiceUnavailable)
	}

	payload := chatPayload{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.Format == FormatJSON && req.Schema != nil {
		payload.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Schema: req.Schema},
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error

	// Exponential backoff retry loop
	for i := 0; i < maxRetries; i++ {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)

		httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL, bytes.NewReader(payloadBytes))
		if err != nil {
			cancel()
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		log.Info().Msgf("Attempt %d: Calling completion API...", i+1)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			cancel()
			lastErr = fmt.Errorf("request failed: %w", err)
			log.Warn().Err(lastErr).Msgf("Attempt %d failed", i+1)

			if ctx.Err() != nil {
				break
			}
			time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(i))))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			cancel()
			lastErr = fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, string(body))
			log.Warn().Err(lastErr).Msgf("Attempt %d failed", i+1)

			time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(i))))
			continue
		}

		var chatResp chatResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&chatResp)
		resp.Body.Close()
		cancel()
		if decodeErr != nil {
			return "", fmt.Errorf("failed to decode response: %w", decodeErr)
		}

		if len(chatResp.Choices) > 0 && chatResp.Choices[0].Message.Content != "" {
			return chatResp.Choices[0].Message.Content, nil
		}

		return "", ErrNoContent
	}

	return "", fmt.Errorf("completion API failed after %d attempts: %v: %w", maxRetries, lastErr, ErrServiceUnavailable)
}
