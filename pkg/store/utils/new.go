// Package storeutils is the store utility package
package storeutils

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/store/inmemory"
	"github.com/papercomputeco/driftlens/pkg/store/postgres"
	"github.com/papercomputeco/driftlens/pkg/store/qdrant"
	"github.com/papercomputeco/driftlens/pkg/store/redis"
	"github.com/papercomputeco/driftlens/pkg/store/sqlite"
)

type NewStoreOpts struct {
	ProviderType string

	// Target is the backend address: a file path for sqlite, a connection
	// string for postgres, host:port for qdrant and redis.
	Target     string
	APIKey     string
	Collection string
	Dimensions uint
	Logger     *zap.Logger
}

func NewStore(ctx context.Context, o *NewStoreOpts) (store.Store, error) {
	switch o.ProviderType {
	case "", "inmemory":
		return inmemory.NewStore(), nil
	case "sqlite":
		return sqlite.NewStore(o.Target, o.Logger)
	case "postgres":
		return postgres.NewStore(ctx, postgres.Config{
			ConnString: o.Target,
			Table:      o.Collection,
		}, o.Logger)
	case "qdrant":
		host, port, err := splitHostPort(o.Target, qdrant.DefaultPort)
		if err != nil {
			return nil, err
		}
		return qdrant.NewStore(ctx, qdrant.Config{
			Host:       host,
			Port:       port,
			APIKey:     o.APIKey,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "redis":
		return redis.NewStore(ctx, redis.Config{
			Addr:     o.Target,
			Password: o.APIKey,
			Prefix:   o.Collection,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", o.ProviderType)
	}
}

func splitHostPort(target string, defaultPort int) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("store target is required")
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// No port given.
		return target, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid store port %q: %w", portStr, err)
	}
	return host, port, nil
}
