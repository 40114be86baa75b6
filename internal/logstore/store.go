// Package logstore persists pipeline interaction records.
package logstore

import (
	"context"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

// Store appends one interaction record.
type Store interface {
	Insert(ctx context.Context, rec models.Interaction) error
}

// Func adapts a plain function to Store.
type Func func(ctx context.Context, rec models.Interaction) error

func (f Func) Insert(ctx context.Context, rec models.Interaction) error {
	return f(ctx, rec)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Insert(context.Context, models.Interaction) error { return nil }

// Indexer is satisfied by the Elasticsearch client.
type Indexer interface {
	IndexInteraction(ctx context.Context, rec models.Interaction) error
}

// Elastic stores records through an Elasticsearch index.
func Elastic(idx Indexer) Store {
	return Func(idx.IndexInteraction)
}
