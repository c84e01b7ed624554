// Package compare implements the total order over BSON values used by mql
// filters and sorts.
//
// Values of different types are first ordered by their type bracket (see
// [Bracket]). Within a bracket values are ordered by value: numbers by exact
// mathematical value, strings and symbols byte-wise, documents field by field
// and arrays according to an [ArrayPolicy].
//
// Compare is total over well-formed BSON. It panics on malformed input.
package compare

import (
	"bytes"
	"cmp"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql/internal/numeric"
	"github.com/grafana/mqlmatch/pkg/mql/types"
)

// ArrayPolicy selects how two arrays are ordered against each other.
type ArrayPolicy uint8

const (
	// ArrayPolicyLexicographic compares arrays element by element. When one
	// array is a prefix of the other, the shorter array sorts first.
	ArrayPolicyLexicographic ArrayPolicy = iota

	// ArrayPolicyMin orders two non-empty arrays by their greatest elements.
	// An empty array has no element: it sorts after any array whose least
	// element is below undefined, equal to one whose least element is
	// undefined, and before every other non-empty array.
	ArrayPolicyMin

	// ArrayPolicyMax orders two non-empty arrays by their least elements.
	// Against a non-empty array, an empty array sorts with the opposite sign
	// of ArrayPolicyMin.
	ArrayPolicyMax
)

func (p ArrayPolicy) String() string {
	switch p {
	case ArrayPolicyLexicographic:
		return "lexicographic"
	case ArrayPolicyMin:
		return "min"
	case ArrayPolicyMax:
		return "max"
	default:
		return fmt.Sprintf("ArrayPolicy(%d)", uint8(p))
	}
}

// Canonical bracket ranks. Types sharing a rank compare by value.
const (
	bracketMinKey        = -1
	bracketUndefined     = 0
	bracketNull          = 5
	bracketNumber        = 10
	bracketString        = 15
	bracketDocument      = 20
	bracketArray         = 25
	bracketBinary        = 30
	bracketObjectID      = 35
	bracketBoolean       = 40
	bracketDateTime      = 45
	bracketTimestamp     = 47
	bracketRegex         = 50
	bracketDBPointer     = 55
	bracketJavaScript    = 60
	bracketCodeWithScope = 65
	bracketMaxKey        = 127
)

// Bracket returns the canonical rank of t. Values whose types have different
// ranks are ordered by rank alone.
func Bracket(t bsontype.Type) int {
	switch t {
	case bsontype.MinKey:
		return bracketMinKey
	case bsontype.Undefined:
		return bracketUndefined
	case bsontype.Null:
		return bracketNull
	case bsontype.Int32, bsontype.Int64, bsontype.Double, bsontype.Decimal128:
		return bracketNumber
	case bsontype.String, bsontype.Symbol:
		return bracketString
	case bsontype.EmbeddedDocument:
		return bracketDocument
	case bsontype.Array:
		return bracketArray
	case bsontype.Binary:
		return bracketBinary
	case bsontype.ObjectID:
		return bracketObjectID
	case bsontype.Boolean:
		return bracketBoolean
	case bsontype.DateTime:
		return bracketDateTime
	case bsontype.Timestamp:
		return bracketTimestamp
	case bsontype.Regex:
		return bracketRegex
	case bsontype.DBPointer:
		return bracketDBPointer
	case bsontype.JavaScript:
		return bracketJavaScript
	case bsontype.CodeWithScope:
		return bracketCodeWithScope
	case bsontype.MaxKey:
		return bracketMaxKey
	default:
		panic(fmt.Sprintf("compare: unexpected BSON type %s", t))
	}
}

// SameBracket reports whether a and b are ordered by value rather than by
// type.
func SameBracket(a, b bsoncore.Value) bool {
	return Bracket(a.Type) == Bracket(b.Type)
}

// Equal reports whether a and b compare equal. Arrays are compared
// lexicographically.
func Equal(a, b bsoncore.Value) bool {
	return Compare(a, b, ArrayPolicyLexicographic) == 0
}

// CompareValues compares the literal a against the BSON value b.
func CompareValues(a types.Value, b bsoncore.Value, policy ArrayPolicy) int {
	return Compare(a.BSON(), b, policy)
}

// Compare returns -1, 0 or 1 depending on whether a is less than, equal to,
// or greater than b. Arrays are ordered according to policy.
func Compare(a, b bsoncore.Value, policy ArrayPolicy) int {
	if a.Type == bsontype.Array && b.Type == bsontype.Array {
		return compareArrays(a.Array(), b.Array(), policy)
	}

	if c := cmp.Compare(Bracket(a.Type), Bracket(b.Type)); c != 0 {
		return c
	}

	switch a.Type {
	case bsontype.MinKey, bsontype.MaxKey, bsontype.Null, bsontype.Undefined:
		return 0
	case bsontype.Int32, bsontype.Int64, bsontype.Double, bsontype.Decimal128:
		return numeric.Compare(numberOf(a), numberOf(b))
	case bsontype.String, bsontype.Symbol:
		return cmp.Compare(stringOf(a), stringOf(b))
	case bsontype.EmbeddedDocument:
		return CompareDocuments(a.Document(), b.Document(), policy)
	case bsontype.Binary:
		return compareBinary(a, b)
	case bsontype.ObjectID:
		ao, bo := a.ObjectID(), b.ObjectID()
		return bytes.Compare(ao[:], bo[:])
	case bsontype.Boolean:
		return compareBool(a.Boolean(), b.Boolean())
	case bsontype.DateTime:
		return cmp.Compare(a.DateTime(), b.DateTime())
	case bsontype.Timestamp:
		at, ai := a.Timestamp()
		bt, bi := b.Timestamp()
		if c := cmp.Compare(at, bt); c != 0 {
			return c
		}
		return cmp.Compare(ai, bi)
	case bsontype.Regex:
		ap, ao := a.Regex()
		bp, bo := b.Regex()
		if c := cmp.Compare(ap, bp); c != 0 {
			return c
		}
		return cmp.Compare(ao, bo)
	case bsontype.DBPointer:
		ans, aoid := a.DBPointer()
		bns, boid := b.DBPointer()
		if c := cmp.Compare(ans, bns); c != 0 {
			return c
		}
		return bytes.Compare(aoid[:], boid[:])
	case bsontype.JavaScript:
		return cmp.Compare(a.JavaScript(), b.JavaScript())
	case bsontype.CodeWithScope:
		acode, ascope := a.CodeWithScope()
		bcode, bscope := b.CodeWithScope()
		if c := cmp.Compare(acode, bcode); c != 0 {
			return c
		}
		return CompareDocuments(ascope, bscope, policy)
	case bsontype.Array:
		// Unreachable: two arrays are handled above and an array shares its
		// bracket with nothing else.
		panic("compare: array compared against non-array in the same bracket")
	default:
		panic(fmt.Sprintf("compare: unexpected BSON type %s", a.Type))
	}
}

// CompareDocuments orders documents by field count, then by the first
// differing field in document order: by key first, then by value.
func CompareDocuments(a, b bsoncore.Document, policy ArrayPolicy) int {
	ae, be := elements(a), elements(b)
	if c := cmp.Compare(len(ae), len(be)); c != 0 {
		return c
	}
	for i := range ae {
		if c := cmp.Compare(ae[i].Key(), be[i].Key()); c != 0 {
			return c
		}
		if c := Compare(ae[i].Value(), be[i].Value(), policy); c != 0 {
			return c
		}
	}
	return 0
}

func compareArrays(a, b bsoncore.Array, policy ArrayPolicy) int {
	switch policy {
	case ArrayPolicyLexicographic:
		av, bv := values(a), values(b)
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := Compare(av[i], bv[i], policy); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(av), len(bv))
	case ArrayPolicyMin, ArrayPolicyMax:
		return compareExtremal(values(a), values(b), policy)
	default:
		panic(fmt.Sprintf("compare: unexpected array policy %s", policy))
	}
}

var undefined = bsoncore.Value{Type: bsontype.Undefined}

func compareExtremal(av, bv []bsoncore.Value, policy ArrayPolicy) int {
	switch {
	case len(av) == 0 && len(bv) == 0:
		return 0
	case len(av) == 0:
		return compareEmpty(bv, policy)
	case len(bv) == 0:
		return -compareEmpty(av, policy)
	}
	// Min orders by the greatest elements, Max by the least.
	want := 1
	if policy == ArrayPolicyMax {
		want = -1
	}
	return Compare(extremal(av, want), extremal(bv, want), ArrayPolicyLexicographic)
}

// compareEmpty compares an empty array against the non-empty elements vals.
func compareEmpty(vals []bsoncore.Value, policy ArrayPolicy) int {
	c := Compare(undefined, extremal(vals, -1), ArrayPolicyLexicographic)
	if policy == ArrayPolicyMax {
		return -c
	}
	return c
}

// extremal returns the greatest element of vals when want is 1 and the least
// when want is -1. Nested arrays are ordered lexicographically.
func extremal(vals []bsoncore.Value, want int) bsoncore.Value {
	res := vals[0]
	for _, v := range vals[1:] {
		if Compare(v, res, ArrayPolicyLexicographic) == want {
			res = v
		}
	}
	return res
}

func compareBinary(a, b bsoncore.Value) int {
	asub, adata := a.Binary()
	bsub, bdata := b.Binary()
	if c := cmp.Compare(len(adata), len(bdata)); c != 0 {
		return c
	}
	if c := cmp.Compare(asub, bsub); c != 0 {
		return c
	}
	return bytes.Compare(adata, bdata)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func numberOf(v bsoncore.Value) numeric.Number {
	switch v.Type {
	case bsontype.Int32:
		return numeric.Int64(int64(v.Int32()))
	case bsontype.Int64:
		return numeric.Int64(v.Int64())
	case bsontype.Double:
		return numeric.Float64(v.Double())
	case bsontype.Decimal128:
		return numeric.Decimal128(v.Decimal128())
	default:
		panic(fmt.Sprintf("compare: %s is not a number", v.Type))
	}
}

func stringOf(v bsoncore.Value) string {
	if v.Type == bsontype.Symbol {
		return v.Symbol()
	}
	return v.StringValue()
}

func elements(doc bsoncore.Document) []bsoncore.Element {
	elems, err := doc.Elements()
	if err != nil {
		panic(fmt.Sprintf("compare: malformed document: %v", err))
	}
	return elems
}

func values(arr bsoncore.Array) []bsoncore.Value {
	vals, err := arr.Values()
	if err != nil {
		panic(fmt.Sprintf("compare: malformed array: %v", err))
	}
	return vals
}
