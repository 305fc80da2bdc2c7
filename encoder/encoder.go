// Package encoder converts columnar batches into delimiter-separated text.
//
// The output is byte-identical regardless of how the input is chunked:
// encoding with any batch size, or encoding a table instead of the single
// batch it contains, produces the same bytes. Null values render as bare
// empty fields; present text values are always quoted, so a present empty
// string ("") can never be confused with a null ().
package encoder

import (
	"context"

	"github.com/baldanca/csv-exporter/sink"
	"github.com/baldanca/csv-exporter/table"
)

// StreamWriter writes a header (if configured) followed by any number of
// same-schema batches to a sink.
//
// Begin is idempotent and may be called explicitly to force header
// emission for inputs with no batches; WriteBatch calls it implicitly.
type StreamWriter interface {
	Begin(ctx context.Context) error
	WriteBatch(ctx context.Context, b *table.Batch) error
}

// Encoder is the contract the exporter wires against: a factory for
// schema-bound stream writers plus output metadata.
type Encoder interface {
	NewStreamWriter(schema *table.Schema, s sink.Sink) (StreamWriter, error)
	FileExtension() string
	ContentType() string
}
