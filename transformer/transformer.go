// Package transformer reshapes batches between the source and the
// encoder.
package transformer

import (
	"context"
	"fmt"

	"github.com/baldanca/csv-exporter/table"
)

// Transformer converts batches from one shape to another.
//
// Schema reports the output shape for a given input shape so callers can
// emit headers before the first batch arrives; Transform must produce
// batches matching it.
type Transformer interface {
	Schema(in *table.Schema) (*table.Schema, error)
	Transform(ctx context.Context, b *table.Batch) (*table.Batch, error)
}

// Projection selects and reorders columns by name.
type Projection struct {
	names []string
}

func NewProjection(names ...string) *Projection {
	return &Projection{names: append([]string(nil), names...)}
}

func (p *Projection) Schema(in *table.Schema) (*table.Schema, error) {
	fields := make([]table.Field, 0, len(p.names))
	for _, name := range p.names {
		i := in.FieldIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("projection: no field %q in %s", name, in)
		}
		fields = append(fields, in.Field(i))
	}
	return table.NewSchema(fields)
}

func (p *Projection) Transform(ctx context.Context, b *table.Batch) (*table.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := p.Schema(b.Schema())
	if err != nil {
		return nil, err
	}

	columns := make([]table.Column, 0, len(p.names))
	for _, name := range p.names {
		columns = append(columns, b.Column(b.Schema().FieldIndex(name)))
	}
	return table.NewBatch(out, columns)
}
