package config

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0

	defaultAPIListen    = ":8080"
	defaultDefaultModel = "gpt-4.1-mini"

	defaultChunkSize    = 1000
	defaultChunkOverlap = 200

	defaultTopK = 3

	defaultEmbeddingProvider = "openai"
	defaultEmbeddingModel    = "text-embedding-3-small"

	defaultGenerationProvider = "openai"

	defaultVectorProvider = "memory"

	defaultIngestWorkers   = 3
	defaultIngestQueueSize = 64

	defaultEventTopic = "folio.sessions"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen:       defaultAPIListen,
			DefaultModel: defaultDefaultModel,
		},
		Chunking: ChunkingConfig{
			Size:    defaultChunkSize,
			Overlap: defaultChunkOverlap,
		},
		Retrieval: RetrievalConfig{
			TopK: defaultTopK,
		},
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
			Model:    defaultEmbeddingModel,
		},
		Generation: GenerationConfig{
			Provider: defaultGenerationProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
		},
		Events: EventsConfig{
			Topic: defaultEventTopic,
		},
	}
}
