package table

// Type identifies the physical type of a column.
//
// The set is closed: the encoder dispatches on it exhaustively and rejects
// anything it does not recognize.
type Type int

const (
	Bool Type = iota
	Int32
	Int64
	Uint32
	Uint64
	Float32
	Float64
	Timestamp
	Date
	String
	Binary

	numTypes
)

func (t Type) String() string {
	if t < 0 || t >= numTypes {
		return "Invalid"
	}
	return [...]string{
		"Bool", "Int32", "Int64", "Uint32", "Uint64",
		"Float32", "Float64", "Timestamp", "Date", "String", "Binary",
	}[t]
}

// Category groups types by how their values are rendered and quoted.
type Category int

const (
	// InvalidCategory is returned for types outside the closed set.
	InvalidCategory Category = iota

	// ScalarLike types have a fixed canonical textual form (numbers,
	// booleans, temporals).
	ScalarLike

	// TextLike types hold variable-length string/binary data.
	TextLike
)

func (c Category) String() string {
	switch c {
	case ScalarLike:
		return "ScalarLike"
	case TextLike:
		return "TextLike"
	default:
		return "InvalidCategory"
	}
}

// Category reports the rendering category of t.
func (t Type) Category() Category {
	switch t {
	case Bool, Int32, Int64, Uint32, Uint64, Float32, Float64, Timestamp, Date:
		return ScalarLike
	case String, Binary:
		return TextLike
	default:
		return InvalidCategory
	}
}
