package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Sink is an append-only byte destination. The encoder only ever appends;
// it never reads back or rewinds, and bytes already appended are not
// undone when a later append fails.
type Sink interface {
	Append(ctx context.Context, p []byte) error
}

// Flusher is an optional interface for sinks that buffer the document and
// materialize it in one shot (object stores). Callers that finished
// appending should type-assert and flush.
type Flusher interface {
	Flush(ctx context.Context) error
}

// WriterSink adapts an io.Writer.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	if w == nil {
		panic("writer is required")
	}
	return &WriterSink{w: w}
}

func (s *WriterSink) Append(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.w.Write(p); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Buffer is an in-memory sink. The zero value is ready to use.
type Buffer struct {
	buf bytes.Buffer
}

func (b *Buffer) Append(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.buf.Write(p)
	return nil
}

// Bytes returns the accumulated document.
func (b *Buffer) Bytes() []byte { return b.buf.Bytes() }

// Len returns the accumulated byte count.
func (b *Buffer) Len() int { return b.buf.Len() }

// Reset discards the accumulated bytes.
func (b *Buffer) Reset() { b.buf.Reset() }
