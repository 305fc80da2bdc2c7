package source

import (
	"context"

	"github.com/baldanca/csv-exporter/table"
)

// Sourcer yields a stream of same-schema batches.
//
// Next returns io.EOF when the source is drained. Implementations should
// ensure every batch carries a schema structurally equal to the one
// reported by Schema.
type Sourcer interface {
	Schema(ctx context.Context) (*table.Schema, error)
	Next(ctx context.Context) (*table.Batch, error)
}
