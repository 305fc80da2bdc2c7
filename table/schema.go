package table

import "fmt"

// Field describes one column: a name and a physical type.
type Field struct {
	Name string
	Type Type
}

// Schema is an ordered sequence of fields. Order is semantically
// meaningful: it defines the column order of every batch and of the
// encoded output.
type Schema struct {
	fields      []Field
	nameToIndex map[string]int
}

// NewSchema builds a schema from fields. Duplicate field names are
// rejected. A schema with zero fields is legal; every row of such a
// schema encodes as a bare record separator.
func NewSchema(fields []Field) (*Schema, error) {
	s := &Schema{
		fields:      append([]Field(nil), fields...),
		nameToIndex: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := s.nameToIndex[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field name %q", f.Name)
		}
		s.nameToIndex[f.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error. Intended for tests and
// examples where the fields are literals.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// NumFields returns the number of fields.
func (s *Schema) NumFields() int { return len(s.fields) }

// Field returns the field at position i.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// FieldIndex returns the position of the named field, or -1.
func (s *Schema) FieldIndex(name string) int {
	i, ok := s.nameToIndex[name]
	if !ok {
		return -1
	}
	return i
}

// Equal reports structural equality: same field count, and the same name
// and type at every position.
func (s *Schema) Equal(other *Schema) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i, f := range s.fields {
		if other.fields[i] != f {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	out := "schema("
	for i, f := range s.fields {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return out + ")"
}
