// Package openai implements the llm.Generator capability against an
// OpenAI-compatible chat completions API, consuming the SSE stream the API
// produces when stream=true.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/foliostack/folio/pkg/llm"
	"github.com/foliostack/folio/pkg/sse"
)

// DefaultBaseURL is the default OpenAI API URL.
const DefaultBaseURL = "https://api.openai.com"

// Generator streams chat completions from an OpenAI-compatible endpoint.
type Generator struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the OpenAI generator.
type Config struct {
	// BaseURL is the API root (e.g. "https://api.openai.com").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string
}

// chatRequest is the wire format of a streaming chat completion request.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatChunk is a single SSE data payload from the completions stream.
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// apiError is the error envelope returned on non-2xx responses.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewGenerator creates a generator for an OpenAI-compatible chat API.
func NewGenerator(cfg Config) (*Generator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Generator{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Generation requests can be slow, especially with long contexts
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Generate opens the completion stream. The returned Stream stays live
// until io.EOF, an error, Close, or ctx cancellation.
func (g *Generator) Generate(ctx context.Context, req *llm.GenerateRequest) (llm.Stream, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", llm.ErrProvider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", llm.ErrProvider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Credentials.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Credentials.APIKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", llm.ErrProvider, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	return &stream{
		body:   resp.Body,
		reader: sse.NewReader(resp.Body),
	}, nil
}

// Close releases resources held by the generator.
func (g *Generator) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// stream adapts the SSE event sequence to the llm.Stream contract.
type stream struct {
	body   io.ReadCloser
	reader *sse.Reader
	done   bool
}

// Next returns the next non-empty content fragment.
func (s *stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for {
		ev, err := s.reader.Next()
		if err != nil {
			s.done = true
			return "", fmt.Errorf("%w: reading stream: %v", llm.ErrProvider, err)
		}
		if ev == nil || ev.Data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			// Unparseable keep-alive noise; skip rather than abort a
			// stream that may still carry content.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
		if chunk.Choices[0].FinishReason != "" {
			s.done = true
			return "", io.EOF
		}
	}
}

// Close drops the provider connection. No fragments are delivered after
// Close returns.
func (s *stream) Close() error {
	s.done = true
	return s.body.Close()
}

// statusError maps a non-200 response to the llm error taxonomy.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))

	msg := http.StatusText(resp.StatusCode)
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", llm.ErrAuthentication, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", llm.ErrRateLimited, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", llm.ErrProvider, resp.StatusCode, msg)
	}
}

// Ensure Generator implements llm.Generator
var _ llm.Generator = (*Generator)(nil)
