// Package storeutils is the chat store utility package
package storeutils

import (
	"context"
	"fmt"

	"github.com/recaplabs/recap/pkg/store"
	"github.com/recaplabs/recap/pkg/store/inmemory"
	"github.com/recaplabs/recap/pkg/store/postgres"
	"github.com/recaplabs/recap/pkg/store/sqlite"
)

type NewStoreOpts struct {
	// ProviderType selects the backend: "postgres", "sqlite", or "memory".
	ProviderType string

	// Target is the postgres connection string or the sqlite database path,
	// depending on the provider. Ignored by "memory".
	Target string
}

func NewStore(ctx context.Context, o *NewStoreOpts) (store.Store, error) {
	switch o.ProviderType {
	case "postgres":
		return postgres.NewDriver(ctx, o.Target)
	case "sqlite":
		return sqlite.NewDriver(o.Target)
	case "memory":
		return inmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", o.ProviderType)
	}
}
