// Package stack assembles the recap runtime from configuration: embedder,
// vector index, chat store, transcript files, event publisher, and the
// engine on top of them. Commands share this wiring so flags and config keys
// behave identically everywhere.
package stack

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/chunker"
	"github.com/recaplabs/recap/pkg/config"
	"github.com/recaplabs/recap/pkg/embeddings"
	embeddingutils "github.com/recaplabs/recap/pkg/embeddings/utils"
	"github.com/recaplabs/recap/pkg/eventstream"
	eskafka "github.com/recaplabs/recap/pkg/eventstream/kafka"
	"github.com/recaplabs/recap/pkg/eventstream/nop"
	"github.com/recaplabs/recap/pkg/llm"
	"github.com/recaplabs/recap/pkg/rag"
	"github.com/recaplabs/recap/pkg/store"
	storeutils "github.com/recaplabs/recap/pkg/store/utils"
	"github.com/recaplabs/recap/pkg/transcripts"
	"github.com/recaplabs/recap/pkg/vector"
	vectorutils "github.com/recaplabs/recap/pkg/vector/utils"
)

// Stack holds the assembled runtime components.
type Stack struct {
	Config    *config.Config
	Engine    *rag.Engine
	Store     store.Store
	Files     *transcripts.FileStore
	Embedder  embeddings.Embedder
	Index     vector.Index
	Publisher eventstream.Publisher

	logger *zap.Logger
}

// ResolveConfig runs the viper precedence chain (flag > env > file > default)
// for the given registry flag keys and returns the effective configuration.
func ResolveConfig(cmd *cobra.Command, configDir string, flagKeys []string) (*config.Config, error) {
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	return config.LoadConfig(v)
}

// Build constructs every component from cfg and initializes the embedder and
// collection. Callers own the returned stack and must Close it.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	if err := embedder.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	index, err := vectorutils.NewIndex(&vectorutils.NewIndexOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       cfg.VectorStore.Target,
		APIKey:       cfg.VectorStore.APIKey,
		Collection: vector.Config{
			CollectionName: cfg.VectorStore.Collection,
			Dimensions:     cfg.VectorStore.Dimensions,
			Distance:       vector.Distance(cfg.VectorStore.Distance),
		},
		Logger: logger,
	})
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("creating vector index: %w", err)
	}

	if err := index.EnsureCollection(ctx); err != nil {
		embedder.Close()
		index.Close()
		return nil, fmt.Errorf("ensuring collection: %w", err)
	}

	caller, err := llm.NewCaller(llm.CallerConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.Target,
	})
	if err != nil {
		embedder.Close()
		index.Close()
		return nil, fmt.Errorf("creating model caller: %w", err)
	}

	storer, err := storeutils.NewStore(ctx, &storeutils.NewStoreOpts{
		ProviderType: cfg.Storage.Provider,
		Target:       cfg.Storage.Target,
	})
	if err != nil {
		embedder.Close()
		index.Close()
		return nil, fmt.Errorf("creating chat store: %w", err)
	}

	files, err := transcripts.NewFileStore(cfg.Transcripts.Dir)
	if err != nil {
		embedder.Close()
		index.Close()
		storer.Close()
		return nil, fmt.Errorf("creating transcript file store: %w", err)
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		embedder.Close()
		index.Close()
		storer.Close()
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	engine, err := rag.NewEngine(rag.Config{
		Splitter:  chunker.NewSplitter(chunker.Config{}),
		Embedder:  embedder,
		Index:     index,
		LLM:       caller,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		embedder.Close()
		index.Close()
		storer.Close()
		publisher.Close()
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	return &Stack{
		Config:    cfg,
		Engine:    engine,
		Store:     storer,
		Files:     files,
		Embedder:  embedder,
		Index:     index,
		Publisher: publisher,
		logger:    logger,
	}, nil
}

// Close releases every component. Errors are logged, not returned, since
// Close runs on the way out.
func (s *Stack) Close() {
	if err := s.Publisher.Close(); err != nil {
		s.logger.Warn("closing publisher", zap.Error(err))
	}
	if err := s.Store.Close(); err != nil {
		s.logger.Warn("closing store", zap.Error(err))
	}
	if err := s.Index.Close(); err != nil {
		s.logger.Warn("closing vector index", zap.Error(err))
	}
	if err := s.Embedder.Close(); err != nil {
		s.logger.Warn("closing embedder", zap.Error(err))
	}
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (eventstream.Publisher, error) {
	switch cfg.EventStream.Provider {
	case "kafka":
		brokers := strings.Split(cfg.EventStream.Brokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		return eskafka.NewPublisher(eskafka.Config{
			Brokers: brokers,
			Topic:   cfg.EventStream.Topic,
		}, logger)
	case "nop", "":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", cfg.EventStream.Provider)
	}
}
