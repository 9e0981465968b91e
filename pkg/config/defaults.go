package config

import (
	"github.com/recaplabs/recap/pkg/vector"
)

const (
	defaultStorageProvider = "sqlite"
	defaultStorageTarget   = "recap.db"

	defaultTranscriptsDir = "transcripts"

	defaultAPIListen       = ":8082"
	defaultClientAPITarget = "http://localhost:8082"

	defaultVectorProvider = "sqlitevec"
	defaultVectorTarget   = "recap-vectors.db"
	defaultVectorDistance = "cosine"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "recap.transcripts"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
			Target:   defaultStorageTarget,
		},
		Transcripts: TranscriptsConfig{
			Dir: defaultTranscriptsDir,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultVectorTarget,
			Collection: vector.DefaultCollectionName,
			Dimensions: vector.DefaultDimensions,
			Distance:   defaultVectorDistance,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Target: defaultEmbeddingTarget,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
