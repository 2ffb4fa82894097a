package checkpoint

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/graph"
)

// Store is a CheckpointStore that holds resources.
type Store interface {
	graph.CheckpointStore
	Close() error
}

type memory struct {
	graph.CheckpointStore
}

// Close is a no-op for the in-memory store.
func (memory) Close() error { return nil }

// Open builds the store named by cfg.Store.
//
//   - "memory": process memory
//   - "file": JSON files under cfg.Path (default "checkpoints")
//   - "sqlite": database file cfg.Path (default "checkpoints.db")
//   - "redis": server at cfg.URL, keys expiring after cfg.TTL
func Open(ctx context.Context, cfg config.CheckpointConfig) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return memory{graph.NewMemoryStore()}, nil
	case "file":
		root := cfg.Path
		if root == "" {
			root = "checkpoints"
		}
		return NewFileStore(filepath.Clean(root)), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "checkpoints.db"
		}
		return OpenSQLite(ctx, path)
	case "redis":
		if cfg.URL == "" {
			return nil, fmt.Errorf("redis checkpoint store requires a url")
		}
		return OpenRedis(ctx, cfg.URL, DefaultRedisPrefix, cfg.TTL.Std())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Store)
	}
}
