package exporter

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/baldanca/csv-exporter/encoder"
	"github.com/baldanca/csv-exporter/sink"
	"github.com/baldanca/csv-exporter/source"
	"github.com/baldanca/csv-exporter/table"
	"github.com/baldanca/csv-exporter/transformer"
)

// ---- fakes ----

type memSource struct {
	schema  *table.Schema
	batches []*table.Batch
	next    int
	closed  bool
}

func (s *memSource) Schema(ctx context.Context) (*table.Schema, error) {
	return s.schema, nil
}

func (s *memSource) Next(ctx context.Context) (*table.Batch, error) {
	if s.next >= len(s.batches) {
		return nil, io.EOF
	}
	b := s.batches[s.next]
	s.next++
	return b, nil
}

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

var _ source.Sourcer = (*memSource)(nil)

// flushSink tracks Flush calls on top of an in-memory buffer.
type flushSink struct {
	sink.Buffer
	flushes int
}

func (s *flushSink) Flush(ctx context.Context) error {
	s.flushes++
	return nil
}

// brokenSink fails on the first append.
type brokenSink struct {
	err error
}

func (s *brokenSink) Append(ctx context.Context, p []byte) error { return s.err }

func newMemSource(t *testing.T) *memSource {
	t.Helper()
	schema := table.MustSchema(
		table.Field{Name: "id", Type: table.Int64},
		table.Field{Name: "name", Type: table.String},
	)
	b1, err := table.NewBatch(schema, []table.Column{
		table.NewInt64Column([]int64{1, 2}, nil),
		table.NewStringColumn([]string{"x", ""}, []bool{true, false}),
	})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	b2, err := table.NewBatch(schema, []table.Column{
		table.NewInt64Column([]int64{3}, nil),
		table.NewStringColumn([]string{""}, nil),
	})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	return &memSource{schema: schema, batches: []*table.Batch{b1, b2}}
}

const memSourceCSV = "\"id\",\"name\"\n1,\"x\"\n2,\n3,\"\"\n"

func testEncoder() encoder.CSVEncoder {
	return encoder.NewCSVEncoder(encoder.DefaultWriteOptions)
}

// ---- tests ----

func TestNew_NilChecks(t *testing.T) {
	openSource := func(ctx context.Context) (source.Sourcer, error) { return newMemSource(t), nil }
	openSink := func(ctx context.Context) (sink.Sink, error) { return &sink.Buffer{}, nil }

	if _, err := New(nil, openSink, testEncoder()); err == nil {
		t.Fatal("expected error for nil openSource")
	}
	if _, err := New(openSource, nil, testEncoder()); err == nil {
		t.Fatal("expected error for nil openSink")
	}
	if _, err := New(openSource, openSink, nil); err == nil {
		t.Fatal("expected error for nil encoder")
	}
}

func TestRun_WritesAllBatchesAndFlushes(t *testing.T) {
	src := newMemSource(t)
	snk := &flushSink{}

	exp, err := New(
		func(ctx context.Context) (source.Sourcer, error) { return src, nil },
		func(ctx context.Context) (sink.Sink, error) { return snk, nil },
		testEncoder(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := string(snk.Bytes()); got != memSourceCSV {
		t.Fatalf("got %q\nwant %q", got, memSourceCSV)
	}
	if snk.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", snk.flushes)
	}
	if !src.closed {
		t.Fatal("source should be closed after the run")
	}
}

func TestRun_EmptySourceStillEmitsHeader(t *testing.T) {
	schema := table.MustSchema(table.Field{Name: "id", Type: table.Int64})
	src := &memSource{schema: schema}
	var snk sink.Buffer

	exp, err := New(
		func(ctx context.Context) (source.Sourcer, error) { return src, nil },
		func(ctx context.Context) (sink.Sink, error) { return &snk, nil },
		testEncoder(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := string(snk.Bytes()); got != "\"id\"\n" {
		t.Fatalf("got %q, want header only", got)
	}
}

func TestRun_ProjectionReordersColumns(t *testing.T) {
	var snk sink.Buffer
	exp, err := New(
		func(ctx context.Context) (source.Sourcer, error) { return newMemSource(t), nil },
		func(ctx context.Context) (sink.Sink, error) { return &snk, nil },
		testEncoder(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	exp.SetTransformer(transformer.NewProjection("name", "id"))

	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "\"name\",\"id\"\n\"x\",1\n,2\n\"\",3\n"
	if got := string(snk.Bytes()); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRun_RetryUsesFreshSinkPerAttempt(t *testing.T) {
	cause := errors.New("transient outage")
	var good sink.Buffer

	sinkAttempts := 0
	sourceOpens := 0

	exp, err := New(
		func(ctx context.Context) (source.Sourcer, error) {
			sourceOpens++
			return newMemSource(t), nil
		},
		func(ctx context.Context) (sink.Sink, error) {
			sinkAttempts++
			if sinkAttempts == 1 {
				return &brokenSink{err: cause}, nil
			}
			return &good, nil
		},
		testEncoder(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	exp.SetRetryPolicy(SimpleRetry{Attempts: 2, BaseDelay: time.Millisecond})

	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sinkAttempts != 2 || sourceOpens != 2 {
		t.Fatalf("sinkAttempts = %d, sourceOpens = %d, want 2 and 2", sinkAttempts, sourceOpens)
	}
	// The second attempt starts clean: no duplicated or truncated rows.
	if got := string(good.Bytes()); got != memSourceCSV {
		t.Fatalf("got %q\nwant %q", got, memSourceCSV)
	}
}

func TestRun_GivesUpAfterConfiguredAttempts(t *testing.T) {
	cause := errors.New("permanent outage")
	attempts := 0

	exp, err := New(
		func(ctx context.Context) (source.Sourcer, error) { return newMemSource(t), nil },
		func(ctx context.Context) (sink.Sink, error) {
			attempts++
			return &brokenSink{err: cause}, nil
		},
		testEncoder(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	exp.SetRetryPolicy(SimpleRetry{Attempts: 3, BaseDelay: time.Millisecond})

	err = exp.Run(context.Background())
	if !errors.Is(err, cause) {
		t.Fatalf("got %v, want wrapped cause", err)
	}
	if !errors.Is(err, encoder.ErrSinkWrite) {
		t.Fatalf("got %v, want ErrSinkWrite", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestSimpleRetry_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := SimpleRetry{Attempts: 5}.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}
