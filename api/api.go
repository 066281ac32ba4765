package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/document"
	"github.com/foliostack/folio/pkg/eventstream"
	"github.com/foliostack/folio/pkg/ingest"
	"github.com/foliostack/folio/pkg/rag"
	"github.com/foliostack/folio/pkg/session"
)

// Server is the HTTP server for the folio system.
type Server struct {
	config    Config
	pool      *ingest.Pool
	augmentor *rag.Augmentor
	streamer  *rag.Streamer
	registry  session.Registry
	publisher eventstream.Publisher
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server. Collaborators are injected so the
// same registry and pipeline can be shared with other components.
func NewServer(
	config Config,
	pool *ingest.Pool,
	augmentor *rag.Augmentor,
	streamer *rag.Streamer,
	registry session.Registry,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             document.DefaultMaxBytes + 1<<20,
	})

	s := &Server{
		config:    config,
		pool:      pool,
		augmentor: augmentor,
		streamer:  streamer,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
		app:       app,
	}

	app.Post("/api/upload", s.handleUpload)
	app.Post("/api/chat", s.handleChat)
	app.Delete("/api/session/:id", s.handleDeleteSession)
	app.Get("/api/health", s.handleHealth)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
