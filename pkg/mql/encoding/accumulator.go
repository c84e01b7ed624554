package encoding

import "fmt"

// Kind describes how the storage engine indexes an [IndexableField].
type Kind uint8

const (
	// KindLongPoint is a range-indexed long without doc values.
	KindLongPoint Kind = iota + 1
	// KindLong is a range-indexed long with doc values.
	KindLong
	// KindKeyword is an exact-match byte string.
	KindKeyword
	// KindSortedNumericDocValues is a retrieval-only multi-valued long.
	KindSortedNumericDocValues
	// KindNumericDocValues is a retrieval-only single-valued long.
	KindNumericDocValues
	// KindBinaryDocValues is a retrieval-only byte string.
	KindBinaryDocValues
)

func (k Kind) String() string {
	switch k {
	case KindLongPoint:
		return "long_point"
	case KindLong:
		return "long"
	case KindKeyword:
		return "keyword"
	case KindSortedNumericDocValues:
		return "sorted_numeric_doc_values"
	case KindNumericDocValues:
		return "numeric_doc_values"
	case KindBinaryDocValues:
		return "binary_doc_values"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsNumeric reports whether fields of kind k carry a long.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindLongPoint, KindLong, KindSortedNumericDocValues, KindNumericDocValues:
		return true
	default:
		return false
	}
}

// An IndexableField is a single typed value appended to an [Accumulator].
// Numeric kinds use Long; byte kinds use Bytes.
type IndexableField struct {
	Name  string
	Kind  Kind
	Long  int64
	Bytes []byte
}

func (f IndexableField) String() string {
	if f.Kind.IsNumeric() {
		return fmt.Sprintf("%s %s=%d", f.Kind, f.Name, f.Long)
	}
	return fmt.Sprintf("%s %s=%q", f.Kind, f.Name, f.Bytes)
}

// Accumulator receives the fields produced by an [Encoder]. It stands in for
// the document builder of the storage engine.
type Accumulator interface {
	Append(f IndexableField)
}

// Document is an in-memory [Accumulator] that keeps fields in append order.
type Document struct {
	Fields []IndexableField
}

var _ Accumulator = (*Document)(nil)

// Append implements [Accumulator].
func (d *Document) Append(f IndexableField) {
	d.Fields = append(d.Fields, f)
}

// Get returns the fields named name, in append order.
func (d *Document) Get(name string) []IndexableField {
	var res []IndexableField
	for _, f := range d.Fields {
		if f.Name == name {
			res = append(res, f)
		}
	}
	return res
}

// Reset removes all fields from d, keeping the allocated capacity.
func (d *Document) Reset() {
	clear(d.Fields)
	d.Fields = d.Fields[:0]
}
