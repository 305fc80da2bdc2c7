// Package exporter orchestrates a full export: batches from a source,
// optionally transformed, encoded and appended to a sink.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/baldanca/csv-exporter/encoder"
	"github.com/baldanca/csv-exporter/sink"
	"github.com/baldanca/csv-exporter/source"
	"github.com/baldanca/csv-exporter/transformer"
)

// OpenSourceFunc opens a fresh source for one export attempt.
type OpenSourceFunc func(ctx context.Context) (source.Sourcer, error)

// OpenSinkFunc opens a fresh sink for one export attempt. Returning a new
// sink per attempt is what makes retrying safe: a failed attempt leaves
// its own sink with a truncated document, never a shared one.
type OpenSinkFunc func(ctx context.Context) (sink.Sink, error)

type Exporter struct {
	openSource OpenSourceFunc
	openSink   OpenSinkFunc
	encoder    encoder.Encoder
	transform  transformer.Transformer

	retry RetryPolicy
}

func New(openSource OpenSourceFunc, openSink OpenSinkFunc, enc encoder.Encoder) (*Exporter, error) {
	if openSource == nil {
		return nil, fmt.Errorf("openSource is nil")
	}
	if openSink == nil {
		return nil, fmt.Errorf("openSink is nil")
	}
	if enc == nil {
		return nil, fmt.Errorf("encoder is nil")
	}
	return &Exporter{
		openSource: openSource,
		openSink:   openSink,
		encoder:    enc,
		retry:      nopRetry{},
	}, nil
}

// SetTransformer installs an optional batch transform (nil disables it).
func (e *Exporter) SetTransformer(t transformer.Transformer) {
	e.transform = t
}

func (e *Exporter) SetRetryPolicy(p RetryPolicy) {
	if p == nil {
		e.retry = nopRetry{}
		return
	}
	e.retry = p
}

// Run performs the export, retrying whole attempts per the configured
// policy. Each attempt opens its own source and sink.
func (e *Exporter) Run(ctx context.Context) error {
	return e.retry.Do(ctx, e.attempt)
}

func (e *Exporter) attempt(ctx context.Context) error {
	src, err := e.openSource(ctx)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if c, ok := src.(io.Closer); ok {
			_ = c.Close()
		}
	}()

	snk, err := e.openSink(ctx)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	schema, err := src.Schema(ctx)
	if err != nil {
		return fmt.Errorf("source schema: %w", err)
	}
	if e.transform != nil {
		if schema, err = e.transform.Schema(schema); err != nil {
			return err
		}
	}

	w, err := e.encoder.NewStreamWriter(schema, snk)
	if err != nil {
		return err
	}

	// Emit the header up front so a zero-batch source still produces one.
	if err := w.Begin(ctx); err != nil {
		return err
	}

	for {
		b, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("source next: %w", err)
		}

		if e.transform != nil {
			if b, err = e.transform.Transform(ctx, b); err != nil {
				return err
			}
		}

		if err := w.WriteBatch(ctx, b); err != nil {
			return err
		}
	}

	if f, ok := snk.(sink.Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
