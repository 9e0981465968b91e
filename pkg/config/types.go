// Package config holds the recap configuration model and its viper wiring.
package config

// Config represents the recap configuration stored as config.toml. The TOML
// layout uses sections for logical grouping; every key can also be supplied
// through RECAP_-prefixed environment variables or CLI flags.
type Config struct {
	Storage     StorageConfig     `mapstructure:"storage"`
	Transcripts TranscriptsConfig `mapstructure:"transcripts"`
	API         APIConfig         `mapstructure:"api"`
	Client      ClientConfig      `mapstructure:"client"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	LLM         LLMConfig         `mapstructure:"llm"`
	EventStream EventStreamConfig `mapstructure:"eventstream"`
}

// StorageConfig holds chat store settings.
type StorageConfig struct {
	// Provider is "postgres", "sqlite", or "memory".
	Provider string `mapstructure:"provider"`

	// Target is the postgres connection string or the sqlite database path.
	Target string `mapstructure:"target"`
}

// TranscriptsConfig holds the transcript file store settings.
type TranscriptsConfig struct {
	Dir string `mapstructure:"dir"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

// ClientConfig holds settings for CLI commands that connect to a running API
// server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `mapstructure:"api_target"`
}

// VectorStoreConfig holds vector index settings.
type VectorStoreConfig struct {
	// Provider is "qdrant", "sqlitevec", or "memory".
	Provider string `mapstructure:"provider"`

	// Target is the qdrant host or the sqlite database path.
	Target string `mapstructure:"target"`

	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
	Dimensions uint   `mapstructure:"dimensions"`
	Distance   string `mapstructure:"distance"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Target     string `mapstructure:"target"`
	Model      string `mapstructure:"model"`
	Dimensions uint   `mapstructure:"dimensions"`
}

// LLMConfig holds answer-generation model settings.
type LLMConfig struct {
	// Provider is "openai", "anthropic", or "ollama". Empty selects by
	// available API keys, falling back to ollama.
	Provider string `mapstructure:"provider"`

	Model  string `mapstructure:"model"`
	Target string `mapstructure:"target"`
}

// EventStreamConfig holds ingestion event publishing settings.
type EventStreamConfig struct {
	// Provider is "kafka" or "nop".
	Provider string `mapstructure:"provider"`

	// Brokers is a comma-separated list of kafka bootstrap addresses.
	Brokers string `mapstructure:"brokers"`

	Topic string `mapstructure:"topic"`
}
