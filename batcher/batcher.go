// Package batcher splits a logical row sequence into bounded, consecutive
// ranges. It exists purely to bound the encoder's working set: for any
// batch size >= 1 the concatenated output of the per-range work is
// byte-identical to processing all rows at once.
package batcher

import "errors"

// Range is a half-open row interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r Range) Len() int { return r.End - r.Start }

// Chunker lazily yields consecutive, non-overlapping ranges of at most
// batchSize rows covering [0, rows) exactly. The final range may be
// shorter. A Chunker over zero rows yields nothing.
type Chunker struct {
	rows int
	size int
	next int
}

// NewChunker validates the inputs and returns a chunker positioned at
// row 0.
func NewChunker(rows, batchSize int) (*Chunker, error) {
	if batchSize <= 0 {
		return nil, errors.New("batch size must be > 0")
	}
	if rows < 0 {
		return nil, errors.New("row count must be >= 0")
	}
	return &Chunker{rows: rows, size: batchSize}, nil
}

// Next returns the next range and true, or a zero Range and false when
// all rows have been yielded.
func (c *Chunker) Next() (Range, bool) {
	if c.next >= c.rows {
		return Range{}, false
	}
	start := c.next
	end := start + c.size
	if end > c.rows {
		end = c.rows
	}
	c.next = end
	return Range{Start: start, End: end}, true
}
