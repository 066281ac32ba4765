package api

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/chunk"
	"github.com/foliostack/folio/pkg/document"
	"github.com/foliostack/folio/pkg/eventstream"
	"github.com/foliostack/folio/pkg/ingest"
	"github.com/foliostack/folio/pkg/llm"
	"github.com/foliostack/folio/pkg/rag"
	"github.com/foliostack/folio/pkg/vector"
)

// UploadResponse is returned on successful ingestion.
type UploadResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// ChatRequest is the chat endpoint request body.
type ChatRequest struct {
	DeveloperMessage string `json:"developer_message"`
	UserMessage      string `json:"user_message"`
	Model            string `json:"model,omitempty"`
	APIKey           string `json:"api_key,omitempty"`
	SessionID        string `json:"session_id,omitempty"`
}

// handleHealth returns a constant readiness signal.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleUpload ingests one uploaded document and returns its session id.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Kind:    "parse",
			Message: "multipart field 'file' is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Kind:    "parse",
			Message: "unreadable upload",
		})
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, document.DefaultMaxBytes+1))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Kind:    "parse",
			Message: "unreadable upload",
		})
	}

	sess, err := s.pool.Ingest(c.Context(), &ingest.Request{
		Source:      fileHeader.Filename,
		Payload:     payload,
		Credentials: llm.Credentials{APIKey: c.FormValue("api_key")},
	})
	if err != nil {
		s.logger.Warn("ingestion failed",
			zap.String("source", fileHeader.Filename),
			zap.Error(err),
		)
		status, resp := errorResponse(err)
		return c.Status(status).JSON(resp)
	}

	return c.JSON(UploadResponse{Status: "ok", SessionID: sess.ID})
}

// handleChat streams a retrieval-augmented completion as markdown text.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Kind:    "parse",
			Message: "invalid JSON body",
		})
	}
	if req.UserMessage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Kind:    "parse",
			Message: "user_message is required",
		})
	}

	model := req.Model
	if model == "" {
		model = s.config.DefaultModel
	}
	creds := llm.Credentials{APIKey: req.APIKey}

	// Retrieval happens before the response starts so its failures can
	// still be reported as a structured error rather than in-band.
	contextTexts, err := s.augmentor.Augment(c.Context(), req.UserMessage, req.SessionID, creds)
	if err != nil {
		s.logger.Warn("context retrieval failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		status, resp := errorResponse(err)
		return c.Status(status).JSON(resp)
	}

	streamReq := &rag.StreamRequest{
		ContextTexts:     contextTexts,
		DeveloperMessage: req.DeveloperMessage,
		UserMessage:      req.UserMessage,
		Model:            model,
		Credentials:      creds,
	}

	// Use context.Background() instead of c.Context() because fasthttp
	// recycles its RequestCtx after the handler returns, but the streaming
	// goroutine outlives it. A client disconnect closes the pipe reader,
	// which fails the next write and stops the stream.
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		if err := s.streamer.Stream(context.Background(), streamReq, pw); err != nil {
			s.logger.Debug("chat stream ended early", zap.Error(err))
		}
	}()

	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")

	// Unknown size (-1) triggers chunked transfer encoding, and io.Pipe
	// gives direct backpressure for true per-fragment streaming.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// handleDeleteSession removes a session and releases its store. Deleting an
// absent session is a no-op, so the endpoint is idempotent.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.registry.Delete(id); err != nil {
		status, resp := errorResponse(err)
		return c.Status(status).JSON(resp)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(c.Context(), eventstream.NewSessionDeleted(id)); err != nil {
			s.logger.Warn("failed to publish deletion event",
				zap.String("session_id", id),
				zap.Error(err),
			)
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// errorResponse maps pipeline errors to an HTTP status and the structured
// {kind, message} error body.
func errorResponse(err error) (int, llm.ErrorResponse) {
	switch {
	case errors.Is(err, chunk.ErrConfiguration):
		return fiber.StatusBadRequest, llm.ErrorResponse{Kind: "configuration", Message: err.Error()}
	case errors.Is(err, document.ErrParse):
		return fiber.StatusBadRequest, llm.ErrorResponse{Kind: "parse", Message: err.Error()}
	case errors.Is(err, llm.ErrAuthentication):
		return fiber.StatusUnauthorized, llm.ErrorResponse{Kind: "authentication", Message: err.Error()}
	case errors.Is(err, llm.ErrRateLimited):
		return fiber.StatusTooManyRequests, llm.ErrorResponse{Kind: "rate_limited", Message: err.Error()}
	case errors.Is(err, vector.ErrDimensionMismatch):
		return fiber.StatusInternalServerError, llm.ErrorResponse{Kind: "dimension_mismatch", Message: err.Error()}
	case errors.Is(err, vector.ErrConnection):
		return fiber.StatusBadGateway, llm.ErrorResponse{Kind: "connection", Message: err.Error()}
	case errors.Is(err, ingest.ErrBusy):
		return fiber.StatusServiceUnavailable, llm.ErrorResponse{Kind: "busy", Message: err.Error()}
	case errors.Is(err, llm.ErrProvider):
		return fiber.StatusBadGateway, llm.ErrorResponse{Kind: "provider", Message: err.Error()}
	default:
		return fiber.StatusInternalServerError, llm.ErrorResponse{Kind: "internal", Message: err.Error()}
	}
}
