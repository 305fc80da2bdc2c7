package table

import (
	"fmt"
	"time"
)

// Column is the read-only accessor surface the encoder consumes: a length,
// a per-row null check, and (on the concrete type) a per-row value accessor.
type Column interface {
	Type() Type
	Len() int
	IsNull(i int) bool
}

// data holds the values and optional validity mask shared by all concrete
// column types. A nil mask means every row is present.
type data[T any] struct {
	values []T
	valid  []bool
}

func newData[T any](typ Type, values []T, valid []bool) data[T] {
	if valid != nil && len(valid) != len(values) {
		panic(fmt.Sprintf("%s column: validity mask length %d != value count %d",
			typ, len(valid), len(values)))
	}
	return data[T]{values: values, valid: valid}
}

func (d *data[T]) Len() int { return len(d.values) }

func (d *data[T]) IsNull(i int) bool {
	return d.valid != nil && !d.valid[i]
}

// Value returns the value at row i. The result is meaningless when
// IsNull(i) is true; callers must null-check first.
func (d *data[T]) Value(i int) T { return d.values[i] }

type BoolColumn struct{ data[bool] }

func NewBoolColumn(values []bool, valid []bool) *BoolColumn {
	return &BoolColumn{newData(Bool, values, valid)}
}
func (*BoolColumn) Type() Type { return Bool }

type Int32Column struct{ data[int32] }

func NewInt32Column(values []int32, valid []bool) *Int32Column {
	return &Int32Column{newData(Int32, values, valid)}
}
func (*Int32Column) Type() Type { return Int32 }

type Int64Column struct{ data[int64] }

func NewInt64Column(values []int64, valid []bool) *Int64Column {
	return &Int64Column{newData(Int64, values, valid)}
}
func (*Int64Column) Type() Type { return Int64 }

type Uint32Column struct{ data[uint32] }

func NewUint32Column(values []uint32, valid []bool) *Uint32Column {
	return &Uint32Column{newData(Uint32, values, valid)}
}
func (*Uint32Column) Type() Type { return Uint32 }

type Uint64Column struct{ data[uint64] }

func NewUint64Column(values []uint64, valid []bool) *Uint64Column {
	return &Uint64Column{newData(Uint64, values, valid)}
}
func (*Uint64Column) Type() Type { return Uint64 }

type Float32Column struct{ data[float32] }

func NewFloat32Column(values []float32, valid []bool) *Float32Column {
	return &Float32Column{newData(Float32, values, valid)}
}
func (*Float32Column) Type() Type { return Float32 }

type Float64Column struct{ data[float64] }

func NewFloat64Column(values []float64, valid []bool) *Float64Column {
	return &Float64Column{newData(Float64, values, valid)}
}
func (*Float64Column) Type() Type { return Float64 }

// TimestampColumn stores instants. They render in RFC 3339 form, in UTC.
type TimestampColumn struct{ data[time.Time] }

func NewTimestampColumn(values []time.Time, valid []bool) *TimestampColumn {
	return &TimestampColumn{newData(Timestamp, values, valid)}
}
func (*TimestampColumn) Type() Type { return Timestamp }

// DateColumn stores civil dates; only the year/month/day of each value is
// meaningful.
type DateColumn struct{ data[time.Time] }

func NewDateColumn(values []time.Time, valid []bool) *DateColumn {
	return &DateColumn{newData(Date, values, valid)}
}
func (*DateColumn) Type() Type { return Date }

type StringColumn struct{ data[string] }

func NewStringColumn(values []string, valid []bool) *StringColumn {
	return &StringColumn{newData(String, values, valid)}
}
func (*StringColumn) Type() Type { return String }

type BinaryColumn struct{ data[[]byte] }

func NewBinaryColumn(values [][]byte, valid []bool) *BinaryColumn {
	return &BinaryColumn{newData(Binary, values, valid)}
}
func (*BinaryColumn) Type() Type { return Binary }
