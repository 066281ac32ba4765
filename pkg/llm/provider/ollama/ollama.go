// Package ollama implements the llm.Generator capability against Ollama's
// chat API, which streams newline-delimited JSON rather than SSE.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/foliostack/folio/pkg/llm"
)

// DefaultBaseURL is the default Ollama API URL.
const DefaultBaseURL = "http://localhost:11434"

// Generator streams chat completions from a local Ollama server. Ollama
// needs no credential; the per-call credential is accepted and ignored so
// any provider satisfying the Generator contract stays interchangeable.
type Generator struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string
}

// chatRequest is the request body for Ollama's chat API.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatLine is one NDJSON line from the chat stream.
type chatLine struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// NewGenerator creates a generator for an Ollama chat API.
func NewGenerator(cfg Config) (*Generator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Generator{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Local models can be slow to load and generate
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Generate opens the chat stream.
func (g *Generator) Generate(ctx context.Context, req *llm.GenerateRequest) (llm.Stream, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:    req.Model,
		Messages: normalizeRoles(req.Messages),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", llm.ErrProvider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", llm.ErrProvider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", llm.ErrProvider, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", llm.ErrProvider, resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &stream{
		body:    resp.Body,
		scanner: scanner,
	}, nil
}

// Close releases resources held by the generator.
func (g *Generator) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// normalizeRoles downgrades the developer role to system. Ollama's chat API
// only understands system, user, assistant and tool.
func normalizeRoles(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		if m.Role == llm.RoleDeveloper {
			m.Role = llm.RoleSystem
		}
		out[i] = m
	}
	return out
}

// stream adapts the NDJSON line sequence to the llm.Stream contract.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// Next returns the next non-empty content fragment.
func (s *stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		raw := bytes.TrimSpace(s.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var line chatLine
		if err := json.Unmarshal(raw, &line); err != nil {
			s.done = true
			return "", fmt.Errorf("%w: decoding stream line: %v", llm.ErrProvider, err)
		}

		if line.Message.Content != "" {
			if line.Done {
				s.done = true
			}
			return line.Message.Content, nil
		}
		if line.Done {
			s.done = true
			return "", io.EOF
		}
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: reading stream: %v", llm.ErrProvider, err)
	}
	return "", io.EOF
}

// Close drops the provider connection. No fragments are delivered after
// Close returns.
func (s *stream) Close() error {
	s.done = true
	return s.body.Close()
}

// Ensure Generator implements llm.Generator
var _ llm.Generator = (*Generator)(nil)
