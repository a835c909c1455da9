// Package store provides the workspace storage interfaces and their SQL
// implementations.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/nodeset-import/internal/model"
)

// ErrNotFound is returned when a nodeset id is not in the workspace.
var ErrNotFound = errors.New("not found")

// KV is a minimal key-value capability. Get reports ok=false for a
// missing key.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Workspace persists the metadata of accepted nodesets. Parsed models are
// never stored.
type Workspace interface {
	// SaveNodeset inserts or replaces the metadata record with meta.ID.
	SaveNodeset(ctx context.Context, meta model.NodesetMetadata) error

	// ListNodesets returns all records, most recently loaded first.
	ListNodesets(ctx context.Context) ([]model.NodesetMetadata, error)

	// DeleteNodeset removes a record. Returns ErrNotFound for unknown ids.
	DeleteNodeset(ctx context.Context, id string) error
}

// Store is the full workspace store.
type Store interface {
	KV
	Workspace

	// Close closes the store.
	Close() error
}
