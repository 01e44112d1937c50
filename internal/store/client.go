// Package store provides the document-store client backing retrieval. The
// workflow depends only on the Client interface; OpenSearch is the one real
// implementation.
package store

import (
	"context"
	"errors"
)

// ErrBadQuery marks a search request the store rejected as malformed.
// Callers must not retry it.
var ErrBadQuery = errors.New("store rejected query")

// Hit is one raw search hit.
type Hit struct {
	Source map[string]any
	Score  float64
}

// Result is the outcome of one search call.
type Result struct {
	Hits  []Hit
	Total int
}

// Client is the consumed store surface.
type Client interface {
	Ping(ctx context.Context) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, index, body string, size int) (*Result, error)
}
