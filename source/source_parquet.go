package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/baldanca/csv-exporter/table"
)

// SourceParquetConfig controls batch shaping.
type SourceParquetConfig struct {
	// RowsPerBatch bounds the rows loaded per batch. <= 0 means 1024.
	RowsPerBatch int
}

// DefaultSourceParquetConfig matches the encoder's default batch size.
var DefaultSourceParquetConfig = SourceParquetConfig{RowsPerBatch: 1024}

// SourceParquet reads a parquet file and yields its rows as columnar
// batches. Only flat schemas are supported: every field must be a
// non-repeated leaf. Optional fields map to nullable columns.
type SourceParquet struct {
	file   *os.File
	pq     *parquet.File
	schema *table.Schema

	rowsPerBatch int
	groups       []parquet.RowGroup
	group        int
	rows         parquet.Rows
	rowBuf       []parquet.Row
}

// NewSourceParquet opens path and validates its schema.
func NewSourceParquet(path string, cfg SourceParquetConfig) (*SourceParquet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pq, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	src, err := newSourceParquet(pq, cfg)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	src.file = file
	return src, nil
}

// NewSourceParquetFile wraps an already-open parquet file. The caller
// retains ownership of the underlying storage.
func NewSourceParquetFile(pq *parquet.File, cfg SourceParquetConfig) (*SourceParquet, error) {
	return newSourceParquet(pq, cfg)
}

func newSourceParquet(pq *parquet.File, cfg SourceParquetConfig) (*SourceParquet, error) {
	schema, err := schemaFromParquet(pq.Schema())
	if err != nil {
		return nil, err
	}

	rowsPerBatch := cfg.RowsPerBatch
	if rowsPerBatch <= 0 {
		rowsPerBatch = DefaultSourceParquetConfig.RowsPerBatch
	}

	return &SourceParquet{
		pq:           pq,
		schema:       schema,
		rowsPerBatch: rowsPerBatch,
		groups:       pq.RowGroups(),
		rowBuf:       make([]parquet.Row, rowsPerBatch),
	}, nil
}

func (s *SourceParquet) Schema(ctx context.Context) (*table.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.schema, nil
}

// Next reads up to RowsPerBatch rows, crossing row-group boundaries as
// needed, and returns them as one batch. It returns io.EOF when the file
// is drained.
func (s *SourceParquet) Next(ctx context.Context) (*table.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	builders := newBuilders(s.schema)
	count := 0

	for count < s.rowsPerBatch {
		if s.rows == nil {
			if s.group >= len(s.groups) {
				break
			}
			s.rows = s.groups[s.group].Rows()
			s.group++
		}

		n, err := s.rows.ReadRows(s.rowBuf[:s.rowsPerBatch-count])
		for _, row := range s.rowBuf[:n] {
			for _, v := range row {
				builders[v.Column()].append(v)
			}
		}
		count += n

		if err == io.EOF {
			if cerr := s.rows.Close(); cerr != nil {
				return nil, fmt.Errorf("close row group reader: %w", cerr)
			}
			s.rows = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}

	if count == 0 {
		return nil, io.EOF
	}

	columns := make([]table.Column, len(builders))
	for i, b := range builders {
		columns[i] = b.build()
	}
	return table.NewBatch(s.schema, columns)
}

// Close releases the file handle, if this source opened one.
func (s *SourceParquet) Close() error {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

func schemaFromParquet(ps *parquet.Schema) (*table.Schema, error) {
	pqFields := ps.Fields()
	fields := make([]table.Field, 0, len(pqFields))

	for _, f := range pqFields {
		if !f.Leaf() {
			return nil, fmt.Errorf("field %q: nested parquet schemas are not supported", f.Name())
		}
		if f.Repeated() {
			return nil, fmt.Errorf("field %q: repeated parquet fields are not supported", f.Name())
		}

		var t table.Type
		switch f.Type().Kind() {
		case parquet.Boolean:
			t = table.Bool
		case parquet.Int32:
			t = table.Int32
		case parquet.Int64:
			t = table.Int64
		case parquet.Float:
			t = table.Float32
		case parquet.Double:
			t = table.Float64
		case parquet.ByteArray, parquet.FixedLenByteArray:
			t = table.String
		default:
			return nil, fmt.Errorf("field %q: unsupported parquet kind %s", f.Name(), f.Type().Kind())
		}
		fields = append(fields, table.Field{Name: f.Name(), Type: t})
	}

	return table.NewSchema(fields)
}

// columnBuilder accumulates one column's values for the batch being
// assembled. Null slots keep a zero value and a false validity bit.
type columnBuilder struct {
	typ   table.Type
	valid []bool

	bools []bool
	i32s  []int32
	i64s  []int64
	f32s  []float32
	f64s  []float64
	strs  []string
}

func newBuilders(schema *table.Schema) []*columnBuilder {
	builders := make([]*columnBuilder, schema.NumFields())
	for i := range builders {
		builders[i] = &columnBuilder{typ: schema.Field(i).Type}
	}
	return builders
}

func (b *columnBuilder) append(v parquet.Value) {
	null := v.IsNull()
	b.valid = append(b.valid, !null)

	switch b.typ {
	case table.Bool:
		var x bool
		if !null {
			x = v.Boolean()
		}
		b.bools = append(b.bools, x)
	case table.Int32:
		var x int32
		if !null {
			x = v.Int32()
		}
		b.i32s = append(b.i32s, x)
	case table.Int64:
		var x int64
		if !null {
			x = v.Int64()
		}
		b.i64s = append(b.i64s, x)
	case table.Float32:
		var x float32
		if !null {
			x = v.Float()
		}
		b.f32s = append(b.f32s, x)
	case table.Float64:
		var x float64
		if !null {
			x = v.Double()
		}
		b.f64s = append(b.f64s, x)
	case table.String:
		var x string
		if !null {
			// Copies out of the reader's shared buffer.
			x = string(v.ByteArray())
		}
		b.strs = append(b.strs, x)
	}
}

func (b *columnBuilder) build() table.Column {
	switch b.typ {
	case table.Bool:
		return table.NewBoolColumn(b.bools, b.valid)
	case table.Int32:
		return table.NewInt32Column(b.i32s, b.valid)
	case table.Int64:
		return table.NewInt64Column(b.i64s, b.valid)
	case table.Float32:
		return table.NewFloat32Column(b.f32s, b.valid)
	case table.Float64:
		return table.NewFloat64Column(b.f64s, b.valid)
	default:
		return table.NewStringColumn(b.strs, b.valid)
	}
}
