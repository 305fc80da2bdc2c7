package encoder

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/baldanca/csv-exporter/batcher"
	"github.com/baldanca/csv-exporter/sink"
	"github.com/baldanca/csv-exporter/table"
)

// quoteChar is the CSV quote character. Embedded occurrences are escaped
// by doubling; no other character is ever escaped.
const quoteChar = '"'

// WriteOptions configures a CSV encode. The encoder never mutates it.
type WriteOptions struct {
	// BatchSize bounds how many rows are rendered per sink append. It
	// bounds peak memory only; it has no effect on the emitted bytes.
	BatchSize int

	// IncludeHeader emits one header row of quoted field names before any
	// data row, even for zero-row input.
	IncludeHeader bool

	// Delimiter separates fields within a row. The zero value means ','.
	Delimiter rune

	// RecordSeparator terminates each row. Empty means "\n".
	RecordSeparator string
}

// DefaultWriteOptions mirrors the conventional CSV shape: comma-delimited,
// newline-terminated, header included.
var DefaultWriteOptions = WriteOptions{
	BatchSize:       1024,
	IncludeHeader:   true,
	Delimiter:       ',',
	RecordSeparator: "\n",
}

// Validate rejects option values that have no meaningful interpretation.
func (o WriteOptions) Validate() error {
	if o.BatchSize <= 0 {
		return fmt.Errorf("%w: %d", ErrBatchSize, o.BatchSize)
	}
	return nil
}

func (o WriteOptions) normalized() WriteOptions {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.RecordSeparator == "" {
		o.RecordSeparator = "\n"
	}
	return o
}

// CSVEncoder encodes batches and tables as RFC 4180-style CSV with a
// strict null/empty distinction.
type CSVEncoder struct {
	Options WriteOptions
}

func NewCSVEncoder(opts WriteOptions) CSVEncoder {
	return CSVEncoder{Options: opts}
}

func (e CSVEncoder) FileExtension() string { return ".csv" }

func (e CSVEncoder) ContentType() string { return "text/csv" }

// NewStreamWriter validates options and schema and returns a writer bound
// to them. Every batch later written must carry a structurally equal
// schema.
func (e CSVEncoder) NewStreamWriter(schema *table.Schema, s sink.Sink) (StreamWriter, error) {
	return e.newStreamWriter(schema, s)
}

func (e CSVEncoder) newStreamWriter(schema *table.Schema, s sink.Sink) (*csvStreamWriter, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema is nil", ErrSchemaMismatch)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: sink is nil", ErrSinkWrite)
	}
	if err := e.Options.Validate(); err != nil {
		return nil, err
	}
	for _, f := range schema.Fields() {
		if f.Type.Category() == table.InvalidCategory {
			return nil, fmt.Errorf("%w: field %q has type %s", ErrUnsupportedType, f.Name, f.Type)
		}
	}
	return &csvStreamWriter{
		opts:   e.Options.normalized(),
		schema: schema,
		sink:   s,
	}, nil
}

// EncodeBatch writes the optional header followed by all rows of b.
func (e CSVEncoder) EncodeBatch(ctx context.Context, b *table.Batch, s sink.Sink) error {
	if b == nil {
		return fmt.Errorf("%w: batch is nil", ErrSchemaMismatch)
	}
	w, err := e.newStreamWriter(b.Schema(), s)
	if err != nil {
		return err
	}
	return w.WriteBatch(ctx, b)
}

// EncodeTable writes the optional header followed by the rows of every
// batch, in table order. The result is byte-identical to encoding the
// same rows as one batch.
func (e CSVEncoder) EncodeTable(ctx context.Context, t *table.Table, s sink.Sink) error {
	if t == nil {
		return fmt.Errorf("%w: table is nil", ErrSchemaMismatch)
	}
	w, err := e.newStreamWriter(t.Schema(), s)
	if err != nil {
		return err
	}
	if err := w.Begin(ctx); err != nil {
		return err
	}
	for i := 0; i < t.NumBatches(); i++ {
		if err := w.WriteBatch(ctx, t.Batch(i)); err != nil {
			return err
		}
	}
	return nil
}

// Encode is a convenience that encodes b into memory.
func (e CSVEncoder) Encode(ctx context.Context, b *table.Batch) ([]byte, error) {
	var buf sink.Buffer
	if err := e.EncodeBatch(ctx, b, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type csvStreamWriter struct {
	opts   WriteOptions
	schema *table.Schema
	sink   sink.Sink
	buf    bytes.Buffer

	started bool
}

func (w *csvStreamWriter) appendSink(ctx context.Context, p []byte) error {
	if err := w.sink.Append(ctx, p); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	return nil
}

// Begin emits the header row when configured. Calling it more than once
// is a no-op, so zero-batch inputs still get exactly one header.
func (w *csvStreamWriter) Begin(ctx context.Context) error {
	if w.started {
		return nil
	}
	w.started = true

	if !w.opts.IncludeHeader {
		return nil
	}

	w.buf.Reset()
	for i := 0; i < w.schema.NumFields(); i++ {
		if i > 0 {
			w.buf.WriteRune(w.opts.Delimiter)
		}
		// Header names are always quoted, whatever the field type.
		appendQuoted(&w.buf, w.schema.Field(i).Name)
	}
	w.buf.WriteString(w.opts.RecordSeparator)
	return w.appendSink(ctx, w.buf.Bytes())
}

// WriteBatch renders all rows of b in chunks of at most BatchSize rows,
// appending each chunk to the sink. Chunking never changes the bytes.
func (w *csvStreamWriter) WriteBatch(ctx context.Context, b *table.Batch) error {
	if b == nil {
		return fmt.Errorf("%w: batch is nil", ErrSchemaMismatch)
	}
	if !w.schema.Equal(b.Schema()) {
		return fmt.Errorf("%w: batch schema %s, declared %s", ErrSchemaMismatch, b.Schema(), w.schema)
	}
	if err := w.Begin(ctx); err != nil {
		return err
	}

	chunks, err := batcher.NewChunker(b.NumRows(), w.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBatchSize, err)
	}

	for r, ok := chunks.Next(); ok; r, ok = chunks.Next() {
		w.buf.Reset()
		for row := r.Start; row < r.End; row++ {
			if err := w.appendRow(b, row); err != nil {
				return err
			}
		}
		if err := w.appendSink(ctx, w.buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// appendRow renders one row into the chunk buffer: fields in schema
// order, joined by the delimiter, terminated by the record separator.
// Null fields contribute an empty, unquoted slot.
func (w *csvStreamWriter) appendRow(b *table.Batch, row int) error {
	for i := 0; i < w.schema.NumFields(); i++ {
		if i > 0 {
			w.buf.WriteRune(w.opts.Delimiter)
		}
		text, quote, err := w.renderField(b.Column(i), row)
		if err != nil {
			return fmt.Errorf("field %q row %d: %w", w.schema.Field(i).Name, row, err)
		}
		if quote {
			appendQuoted(&w.buf, text)
		} else {
			w.buf.WriteString(text)
		}
	}
	w.buf.WriteString(w.opts.RecordSeparator)
	return nil
}

// renderField decides the text and quoting for one field, in precedence
// order: null beats everything and is the unique bare-empty rendering;
// present text values are quoted unconditionally; present scalar values
// take their canonical form and are quoted only on collision with a
// reserved character.
func (w *csvStreamWriter) renderField(col table.Column, row int) (text string, quote bool, err error) {
	if col.IsNull(row) {
		return "", false, nil
	}

	switch c := col.(type) {
	case *table.StringColumn:
		return c.Value(row), true, nil
	case *table.BinaryColumn:
		return string(c.Value(row)), true, nil
	case *table.BoolColumn:
		text = strconv.FormatBool(c.Value(row))
	case *table.Int32Column:
		text = strconv.FormatInt(int64(c.Value(row)), 10)
	case *table.Int64Column:
		text = strconv.FormatInt(c.Value(row), 10)
	case *table.Uint32Column:
		text = strconv.FormatUint(uint64(c.Value(row)), 10)
	case *table.Uint64Column:
		text = strconv.FormatUint(c.Value(row), 10)
	case *table.Float32Column:
		text = strconv.FormatFloat(float64(c.Value(row)), 'g', -1, 32)
	case *table.Float64Column:
		text = strconv.FormatFloat(c.Value(row), 'g', -1, 64)
	case *table.TimestampColumn:
		text = c.Value(row).UTC().Format(time.RFC3339)
	case *table.DateColumn:
		text = c.Value(row).Format("2006-01-02")
	default:
		return "", false, fmt.Errorf("%w: %s", ErrUnsupportedType, col.Type())
	}

	// Rarely triggers for scalar forms, but the check is still required:
	// a '.' or custom delimiter can collide with a number.
	return text, w.needsQuoting(text), nil
}

func (w *csvStreamWriter) needsQuoting(text string) bool {
	return strings.ContainsRune(text, w.opts.Delimiter) ||
		strings.ContainsRune(text, quoteChar) ||
		strings.ContainsAny(text, w.opts.RecordSeparator)
}

// appendQuoted writes text wrapped in quotes with embedded quotes doubled.
func appendQuoted(buf *bytes.Buffer, text string) {
	buf.WriteByte(quoteChar)
	if strings.ContainsRune(text, quoteChar) {
		text = strings.ReplaceAll(text, string(quoteChar), string(quoteChar)+string(quoteChar))
	}
	buf.WriteString(text)
	buf.WriteByte(quoteChar)
}
