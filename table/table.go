// Package table holds the columnar in-memory model the encoder reads from:
// typed columns with validity masks, batches of equal-length columns, and
// tables as ordered sequences of same-schema batches.
//
// Everything is immutable after construction. The encoder only calls
// accessors; it never mutates a batch or table.
package table

import "fmt"

// Batch is one bounded run of rows: a schema plus one column per field,
// all columns the same length.
type Batch struct {
	schema  *Schema
	columns []Column
	rows    int
}

// NewBatch validates that columns match the schema in arity, type, and
// length, and returns the assembled batch.
func NewBatch(schema *Schema, columns []Column) (*Batch, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is nil")
	}
	if len(columns) != schema.NumFields() {
		return nil, fmt.Errorf("batch has %d columns, schema has %d fields",
			len(columns), schema.NumFields())
	}

	rows := 0
	for i, col := range columns {
		f := schema.Field(i)
		if col == nil {
			return nil, fmt.Errorf("column %d (%q) is nil", i, f.Name)
		}
		if col.Type() != f.Type {
			return nil, fmt.Errorf("column %d (%q) has type %s, schema declares %s",
				i, f.Name, col.Type(), f.Type)
		}
		if i == 0 {
			rows = col.Len()
		} else if col.Len() != rows {
			return nil, fmt.Errorf("column %d (%q) has %d rows, column 0 has %d",
				i, f.Name, col.Len(), rows)
		}
	}

	return &Batch{
		schema:  schema,
		columns: append([]Column(nil), columns...),
		rows:    rows,
	}, nil
}

// Schema returns the batch schema.
func (b *Batch) Schema() *Schema { return b.schema }

// NumRows returns the row count shared by every column.
func (b *Batch) NumRows() int { return b.rows }

// Column returns the column at position i.
func (b *Batch) Column(i int) Column { return b.columns[i] }

// NewZeroFieldBatch builds a batch over a zero-field schema with an
// explicit row count, since there is no column to derive it from.
func NewZeroFieldBatch(schema *Schema, rows int) (*Batch, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is nil")
	}
	if schema.NumFields() != 0 {
		return nil, fmt.Errorf("schema has %d fields, want 0", schema.NumFields())
	}
	if rows < 0 {
		return nil, fmt.Errorf("row count %d is negative", rows)
	}
	return &Batch{schema: schema, rows: rows}, nil
}

// Table is the row-wise concatenation of its batches, in order. Every
// batch shares one structurally identical schema.
type Table struct {
	schema  *Schema
	batches []*Batch
	rows    int
}

// NewTable validates that every batch's schema equals the declared schema
// and returns the assembled table. A table with zero batches is legal and
// has zero rows.
func NewTable(schema *Schema, batches []*Batch) (*Table, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is nil")
	}

	rows := 0
	for i, b := range batches {
		if b == nil {
			return nil, fmt.Errorf("batch %d is nil", i)
		}
		if !schema.Equal(b.Schema()) {
			return nil, fmt.Errorf("batch %d schema %s does not match table schema %s",
				i, b.Schema(), schema)
		}
		rows += b.NumRows()
	}

	return &Table{
		schema:  schema,
		batches: append([]*Batch(nil), batches...),
		rows:    rows,
	}, nil
}

// Schema returns the table schema.
func (t *Table) Schema() *Schema { return t.schema }

// NumRows returns the total row count across batches.
func (t *Table) NumRows() int { return t.rows }

// NumBatches returns the number of batches.
func (t *Table) NumBatches() int { return len(t.batches) }

// Batch returns the batch at position i.
func (t *Table) Batch(i int) *Batch { return t.batches[i] }
