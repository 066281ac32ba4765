package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/llm"
)

const (
	// contextSeparator joins retrieved chunks inside the system message.
	contextSeparator = "\n---\n"

	// contextPrefix heads the system message carrying retrieved chunks.
	contextPrefix = "Relevant document context:\n"
)

// Streamer drives a generation provider and forwards its fragments to a
// writer as they arrive. Provider failures mid-stream degrade to a single
// terminal in-band error fragment so output already delivered stays visible.
type Streamer struct {
	generator llm.Generator
	logger    *zap.Logger
}

// StreamRequest is one generation request with its assembled context.
type StreamRequest struct {
	// ContextTexts are the retrieved chunks in rank order. Empty means
	// context-free generation.
	ContextTexts []string

	DeveloperMessage string
	UserMessage      string

	Model       string
	Credentials llm.Credentials
}

// NewStreamer creates a streamer over the given generator.
func NewStreamer(generator llm.Generator, logger *zap.Logger) *Streamer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Streamer{
		generator: generator,
		logger:    logger,
	}
}

// BuildMessages assembles the ordered message list for a request: the
// context system message when context is present, then the developer
// message, then the user message.
func BuildMessages(req *StreamRequest) []llm.Message {
	messages := make([]llm.Message, 0, 3)

	if len(req.ContextTexts) > 0 {
		messages = append(messages, llm.NewMessage(
			llm.RoleSystem,
			contextPrefix+strings.Join(req.ContextTexts, contextSeparator),
		))
	}
	messages = append(messages,
		llm.NewMessage(llm.RoleDeveloper, req.DeveloperMessage),
		llm.NewMessage(llm.RoleUser, req.UserMessage),
	)

	return messages
}

// Stream generates a completion for req and writes each fragment to w as
// it arrives. It returns when the provider finishes, the context is
// canceled, the writer fails, or a provider error has been reported
// in-band. The returned error reflects writer or cancellation failures
// only; provider errors are consumed by the in-band conversion.
func (s *Streamer) Stream(ctx context.Context, req *StreamRequest, w io.Writer) error {
	stream, err := s.generator.Generate(ctx, &llm.GenerateRequest{
		Model:       req.Model,
		Messages:    BuildMessages(req),
		Credentials: req.Credentials,
	})
	if err != nil {
		// Nothing has been written yet; still report in-band so the
		// caller's stream carries exactly one terminal marker.
		return s.writeErrorFragment(w, err)
	}
	defer stream.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fragment, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return s.writeErrorFragment(w, err)
		}

		if _, err := io.WriteString(w, fragment); err != nil {
			return fmt.Errorf("writing fragment: %w", err)
		}
	}
}

// writeErrorFragment converts a provider error into the terminal in-band
// fragment.
func (s *Streamer) writeErrorFragment(w io.Writer, genErr error) error {
	s.logger.Warn("generation failed, reporting in-band", zap.Error(genErr))

	msg := genErr.Error()
	if errors.Is(genErr, llm.ErrAuthentication) {
		msg = "invalid API key. Please check your credentials."
	}

	if _, err := fmt.Fprintf(w, "\n[ERROR] %s\n", msg); err != nil {
		return fmt.Errorf("writing error fragment: %w", err)
	}
	return nil
}
