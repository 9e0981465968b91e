// Package vectorutils is the vector index utility package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/vector"
	"github.com/recaplabs/recap/pkg/vector/inmemory"
	"github.com/recaplabs/recap/pkg/vector/qdrant"
	"github.com/recaplabs/recap/pkg/vector/sqlitevec"
)

type NewIndexOpts struct {
	// ProviderType selects the backend: "qdrant", "sqlitevec", or "memory".
	ProviderType string

	// Target is the qdrant host or the sqlite database path, depending on
	// the provider. Ignored by "memory".
	Target string

	// APIKey is the optional qdrant API key.
	APIKey string

	// Collection configures the collection schema.
	Collection vector.Config

	Logger *zap.Logger
}

func NewIndex(o *NewIndexOpts) (vector.Index, error) {
	switch o.ProviderType {
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Host:       o.Target,
			APIKey:     o.APIKey,
			Collection: o.Collection,
		}, o.Logger)
	case "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Collection: o.Collection,
		}, o.Logger)
	case "memory":
		return inmemory.NewIndex(o.Collection), nil
	default:
		return nil, fmt.Errorf("unsupported vector index provider: %s", o.ProviderType)
	}
}
