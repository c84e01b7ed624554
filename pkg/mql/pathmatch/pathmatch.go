// Package pathmatch evaluates predicates against the values a dotted path
// reaches in a BSON document.
//
// Paths broadcast across arrays one level at a time: when a path continues
// through an array, every element of the array is tried with the rest of the
// path. A missing field, or a path that continues through a scalar, is
// treated as null.
package pathmatch

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
)

// ValuePredicate reports whether a single value satisfies a condition.
type ValuePredicate func(v bsoncore.Value) bool

// Null is the value predicates receive for missing fields.
var Null = bsoncore.Value{Type: bsontype.Null}

// Matches reports whether pred holds for any value path reaches in doc.
//
// When the path ends on an array, pred is tried against the array itself and
// against each of its elements. Keys containing a literal '.' can never be
// reached. When a document holds a key more than once, only the first
// occurrence is used.
//
// doc must be well-formed; malformed sub-documents are treated as missing
// fields.
func Matches(doc bsoncore.Document, pred ValuePredicate, path fieldpath.FieldPath) bool {
	return matchDocument(doc, pred, path.Segments())
}

func matchDocument(doc bsoncore.Document, pred ValuePredicate, segments []string) bool {
	v, err := doc.LookupErr(segments[0])
	if err != nil {
		return pred(Null)
	}
	return matchValue(v, pred, segments[1:])
}

func matchValue(v bsoncore.Value, pred ValuePredicate, rest []string) bool {
	if len(rest) == 0 {
		if v.Type != bsontype.Array {
			return pred(v)
		}
		if pred(v) {
			return true
		}
		return anyElement(v.Array(), pred)
	}

	switch v.Type {
	case bsontype.EmbeddedDocument:
		return matchDocument(v.Document(), pred, rest)
	case bsontype.Array:
		return matchArray(v.Array(), pred, rest)
	default:
		return pred(Null)
	}
}

// matchArray tries the remaining path against every element of arr. Elements
// that are themselves arrays are not expanded.
func matchArray(arr bsoncore.Array, pred ValuePredicate, rest []string) bool {
	vals, err := arr.Values()
	if err != nil {
		return pred(Null)
	}
	for _, elem := range vals {
		var ok bool
		if elem.Type == bsontype.EmbeddedDocument {
			ok = matchDocument(elem.Document(), pred, rest)
		} else {
			ok = pred(Null)
		}
		if ok {
			return true
		}
	}
	return false
}

func anyElement(arr bsoncore.Array, pred ValuePredicate) bool {
	vals, err := arr.Values()
	if err != nil {
		return false
	}
	for _, elem := range vals {
		if pred(elem) {
			return true
		}
	}
	return false
}
