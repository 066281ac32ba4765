// Package servecmder provides the serve command for running the folio API
// server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foliostack/folio/api"
	"github.com/foliostack/folio/pkg/config"
	embeddingutils "github.com/foliostack/folio/pkg/embeddings/utils"
	eventstreamutils "github.com/foliostack/folio/pkg/eventstream/utils"
	"github.com/foliostack/folio/pkg/ingest"
	llmutils "github.com/foliostack/folio/pkg/llm/utils"
	"github.com/foliostack/folio/pkg/logger"
	"github.com/foliostack/folio/pkg/rag"
	sessionmemory "github.com/foliostack/folio/pkg/session/memory"
	vectorutils "github.com/foliostack/folio/pkg/vector/utils"
)

type ServeCommander struct {
	listen    string
	configDir string
	debug     bool
	logger    *zap.Logger
}

const serveLongDesc string = `Run the folio API server.

The server exposes document ingestion, retrieval-augmented chat and health
endpoints. Configuration is resolved from defaults, config.toml and FOLIO_
environment variables; flags override the listen address.`

const serveShortDesc string = "Run the folio API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the API server to listen on (overrides config)")
	cmd.Flags().StringVarP(&cmder.configDir, "config-dir", "c", "", "Directory containing config.toml")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg := config.FromViper(v)
	if c.listen != "" {
		cfg.API.Listen = c.listen
	}

	registry := sessionmemory.NewRegistry(sessionmemory.Config{
		TTL:         cfg.Sessions.TTL,
		MaxSessions: cfg.Sessions.MaxSessions,
	}, c.logger)
	defer registry.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	generator, err := llmutils.NewGenerator(&llmutils.NewGeneratorOpts{
		ProviderType: cfg.Generation.Provider,
		TargetURL:    cfg.Generation.Target,
	})
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	defer generator.Close()

	storeFactory, err := vectorutils.NewStoreFactory(&vectorutils.NewStoreFactoryOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    cfg.VectorStore.Target,
		APIKey:       cfg.VectorStore.APIKey,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector store factory: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	ingestor, err := ingest.NewIngestor(ingest.Config{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
	}, embedder, storeFactory, registry, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating ingestor: %w", err)
	}

	pool, err := ingest.NewPool(ingest.PoolConfig{
		NumWorkers: cfg.Ingest.Workers,
		QueueSize:  cfg.Ingest.QueueSize,
	}, ingestor, c.logger)
	if err != nil {
		return fmt.Errorf("creating ingestion pool: %w", err)
	}

	augmentor := rag.NewAugmentor(rag.AugmentorConfig{
		TopK:            cfg.Retrieval.TopK,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
	}, registry, embedder, c.logger)
	streamer := rag.NewStreamer(generator, c.logger)

	server := api.NewServer(api.Config{
		ListenAddr:   cfg.API.Listen,
		DefaultModel: cfg.API.DefaultModel,
	}, pool, augmentor, streamer, registry, publisher, c.logger)

	c.logger.Info("starting folio",
		zap.String("listen", cfg.API.Listen),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.String("vector_store", cfg.VectorStore.Provider),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		pool.Close()
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		if err := server.Shutdown(); err != nil {
			c.logger.Warn("server shutdown failed", zap.Error(err))
		}
		// Drain in-flight ingestions after the server stops accepting work.
		pool.Close()
		return nil
	}
}
