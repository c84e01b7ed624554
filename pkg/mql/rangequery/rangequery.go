// Package rangequery translates range bounds into inclusive ranges over the
// long namespaces written by package encoding.
//
// Numbers are indexed twice: integers under the int64 namespace and doubles,
// as sortable longs, under the double namespace. A numeric range therefore
// becomes one range per namespace, either of which may be empty. Dates are
// indexed as epoch milliseconds.
package rangequery

import (
	"fmt"
	"math"

	"github.com/grafana/mqlmatch/pkg/mql/encoding"
	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
	"github.com/grafana/mqlmatch/pkg/mql/internal/numeric"
	"github.com/grafana/mqlmatch/pkg/mql/types"
)

// Int64Range is an inclusive range of longs.
type Int64Range struct {
	Min, Max int64
}

// Contains reports whether v lies within r.
func (r Int64Range) Contains(v int64) bool { return v >= r.Min && v <= r.Max }

func (r Int64Range) String() string { return fmt.Sprintf("[%d, %d]", r.Min, r.Max) }

// A Query matches encoded documents holding a range-indexed value within a
// range.
type Query interface {
	fmt.Stringer

	// Matches reports whether any range-indexed field of doc matches.
	Matches(doc *encoding.Document) bool
}

// FromBounds returns the [Query] for bound at path. Only numeric and date
// bounds can be translated; other point types return an error wrapping
// [errors.ErrNotImplemented].
func FromBounds(path fieldpath.FieldPath, bound types.RangeBound[types.Point]) (Query, error) {
	lower, hasLower := bound.Lower()
	upper, hasUpper := bound.Upper()

	var typ types.PointType
	switch {
	case hasLower:
		typ = lower.Type()
	case hasUpper:
		typ = upper.Type()
	default:
		return nil, fmt.Errorf("%w: unbounded range at %q", errors.ErrInvalidRange, path)
	}

	switch typ {
	case types.PointTypeNumber:
		rb, err := convert[types.NumericPoint](bound, lower, hasLower, upper, hasUpper)
		if err != nil {
			return nil, err
		}
		return Numeric(path, rb), nil
	case types.PointTypeDate:
		rb, err := convert[types.DatePoint](bound, lower, hasLower, upper, hasUpper)
		if err != nil {
			return nil, err
		}
		return Date(path, rb), nil
	default:
		return nil, fmt.Errorf("%w: range over %s points", errors.ErrNotImplemented, typ)
	}
}

func convert[P types.Point](bound types.RangeBound[types.Point], lower types.Point, hasLower bool, upper types.Point, hasUpper bool) (types.RangeBound[P], error) {
	var lo, hi *P
	if hasLower {
		p := lower.(P)
		lo = &p
	}
	if hasUpper {
		p := upper.(P)
		hi = &p
	}
	return types.NewRangeBound(lo, hi, bound.LowerInclusive(), bound.UpperInclusive())
}

// NumericQuery matches numbers within a numeric range.
type NumericQuery struct {
	path    fieldpath.FieldPath
	bound   types.RangeBound[types.NumericPoint]
	int64s  *Int64Range
	doubles *Int64Range
}

// Numeric translates bound into ranges over the int64 and double
// namespaces of path. Unbounded sides extend to the limits of each
// namespace. NaN sorts below every other number, so an unbounded lower side
// of the double range starts at NaN.
func Numeric(path fieldpath.FieldPath, bound types.RangeBound[types.NumericPoint]) *NumericQuery {
	q := &NumericQuery{path: path, bound: bound}

	lower, hasLower := bound.Lower()
	upper, hasUpper := bound.Upper()

	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	ok := true
	if hasLower {
		lo, ok = lowerInt64(lower, bound.LowerInclusive())
	}
	if ok && hasUpper {
		hi, ok = upperInt64(upper, bound.UpperInclusive())
	}
	if ok && lo <= hi {
		q.int64s = &Int64Range{Min: lo, Max: hi}
	}

	dlo, dhi := sortableNaN, sortablePosInf
	ok = true
	if hasLower {
		dlo = lowerDouble(lower, bound.LowerInclusive())
	}
	if hasUpper {
		dhi, ok = upperDouble(upper, bound.UpperInclusive())
	}
	if ok && dlo <= dhi {
		q.doubles = &Int64Range{Min: dlo, Max: dhi}
	}
	return q
}

// Int64Range returns the range over the int64 namespace. ok is false when
// no long lies within the bound.
func (q *NumericQuery) Int64Range() (r Int64Range, ok bool) {
	if q.int64s == nil {
		return Int64Range{}, false
	}
	return *q.int64s, true
}

// DoubleRange returns the range over the sortable longs of the double
// namespace. ok is false when no double lies within the bound.
func (q *NumericQuery) DoubleRange() (r Int64Range, ok bool) {
	if q.doubles == nil {
		return Int64Range{}, false
	}
	return *q.doubles, true
}

// Matches implements [Query].
func (q *NumericQuery) Matches(doc *encoding.Document) bool {
	return matchRange(doc, encoding.MqlFieldInt64.Name(q.path), q.int64s) ||
		matchRange(doc, encoding.MqlFieldDouble.Name(q.path), q.doubles)
}

func (q *NumericQuery) String() string {
	return fmt.Sprintf("%s in %s", q.path, q.bound)
}

// DateQuery matches dates within a date range.
type DateQuery struct {
	path   fieldpath.FieldPath
	bound  types.RangeBound[types.DatePoint]
	millis *Int64Range
}

// Date translates bound into a range of epoch milliseconds over the date
// namespace of path.
func Date(path fieldpath.FieldPath, bound types.RangeBound[types.DatePoint]) *DateQuery {
	q := &DateQuery{path: path, bound: bound}

	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	ok := true
	if lower, has := bound.Lower(); has {
		lo, ok = lowerLong(lower.Millis, bound.LowerInclusive())
	}
	if upper, has := bound.Upper(); ok && has {
		hi, ok = upperLong(upper.Millis, bound.UpperInclusive())
	}
	if ok && lo <= hi {
		q.millis = &Int64Range{Min: lo, Max: hi}
	}
	return q
}

// MillisRange returns the range of epoch milliseconds. ok is false when the
// bound is empty.
func (q *DateQuery) MillisRange() (r Int64Range, ok bool) {
	if q.millis == nil {
		return Int64Range{}, false
	}
	return *q.millis, true
}

// Matches implements [Query].
func (q *DateQuery) Matches(doc *encoding.Document) bool {
	return matchRange(doc, encoding.MqlFieldDateTime.Name(q.path), q.millis)
}

func (q *DateQuery) String() string {
	return fmt.Sprintf("%s in %s", q.path, q.bound)
}

func matchRange(doc *encoding.Document, name string, r *Int64Range) bool {
	if r == nil {
		return false
	}
	for _, f := range doc.Get(name) {
		// Doc values only carry the stored form of a value.
		if f.Kind != encoding.KindLong && f.Kind != encoding.KindLongPoint {
			continue
		}
		if r.Contains(f.Long) {
			return true
		}
	}
	return false
}

const twoTo63 = float64(1 << 63)

// lowerInt64 returns the smallest long within a lower bound of p. ok is
// false if there is none.
func lowerInt64(p types.NumericPoint, inclusive bool) (v int64, ok bool) {
	switch p := p.(type) {
	case types.LongPoint:
		return lowerLong(p.Value, inclusive)
	case types.DoublePoint:
		f := p.Value
		switch {
		case f >= twoTo63:
			return 0, false
		case math.IsNaN(f), f < -twoTo63:
			// Every long is greater than NaN.
			return math.MinInt64, true
		}
		c := math.Ceil(f)
		if c == f && !inclusive {
			return lowerLong(int64(c), false)
		}
		return int64(c), true
	default:
		panic(fmt.Sprintf("rangequery: unexpected numeric point %T", p))
	}
}

// upperInt64 returns the largest long within an upper bound of p. ok is
// false if there is none.
func upperInt64(p types.NumericPoint, inclusive bool) (v int64, ok bool) {
	switch p := p.(type) {
	case types.LongPoint:
		return upperLong(p.Value, inclusive)
	case types.DoublePoint:
		f := p.Value
		switch {
		case math.IsNaN(f), f < -twoTo63:
			return 0, false
		case f >= twoTo63:
			return math.MaxInt64, true
		}
		c := math.Floor(f)
		if c == f && !inclusive {
			return upperLong(int64(c), false)
		}
		return int64(c), true
	default:
		panic(fmt.Sprintf("rangequery: unexpected numeric point %T", p))
	}
}

func lowerLong(v int64, inclusive bool) (int64, bool) {
	if inclusive {
		return v, true
	}
	if v == math.MaxInt64 {
		return 0, false
	}
	return v + 1, true
}

func upperLong(v int64, inclusive bool) (int64, bool) {
	if inclusive {
		return v, true
	}
	if v == math.MinInt64 {
		return 0, false
	}
	return v - 1, true
}

// Sortable encodings of the double namespace limits. Below -Inf only NaN
// remains, and every NaN encodes to sortableNaN.
var (
	sortableNaN    = encoding.ToSortableLong(math.NaN())
	sortableNegInf = encoding.ToSortableLong(math.Inf(-1))
	sortablePosInf = encoding.ToSortableLong(math.Inf(1))
	sortableNegZ   = encoding.ToSortableLong(math.Copysign(0, -1))
	sortablePosZ   = encoding.ToSortableLong(0)
)

// lowerDouble returns the sortable encoding of the smallest double within a
// lower bound of p. The result exceeds sortablePosInf when no double is
// within the bound.
func lowerDouble(p types.NumericPoint, inclusive bool) int64 {
	switch p := p.(type) {
	case types.LongPoint:
		f := float64(p.Value)
		c := numeric.CompareInt64Float64(p.Value, f)
		return lowerSortable(f, c < 0 || (c == 0 && inclusive))
	case types.DoublePoint:
		return lowerSortable(p.Value, inclusive)
	default:
		panic(fmt.Sprintf("rangequery: unexpected numeric point %T", p))
	}
}

// upperDouble returns the sortable encoding of the largest double within an
// upper bound of p. ok is false if there is none.
func upperDouble(p types.NumericPoint, inclusive bool) (v int64, ok bool) {
	switch p := p.(type) {
	case types.LongPoint:
		f := float64(p.Value)
		c := numeric.CompareInt64Float64(p.Value, f)
		return upperSortable(f, c > 0 || (c == 0 && inclusive))
	case types.DoublePoint:
		return upperSortable(p.Value, inclusive)
	default:
		panic(fmt.Sprintf("rangequery: unexpected numeric point %T", p))
	}
}

// lowerSortable works on sortable encodings, where the successor of a double
// is its encoding plus one. Both zeros are indexed as +0.
func lowerSortable(f float64, inclusive bool) int64 {
	switch {
	case math.IsNaN(f) && inclusive:
		return sortableNaN
	case math.IsNaN(f):
		return sortableNegInf
	case f == 0 && inclusive:
		return sortableNegZ
	case f == 0:
		return sortablePosZ + 1
	case inclusive:
		return encoding.ToSortableLong(f)
	default:
		return encoding.ToSortableLong(f) + 1
	}
}

func upperSortable(f float64, inclusive bool) (int64, bool) {
	switch {
	case math.IsNaN(f) && inclusive:
		return sortableNaN, true
	case math.IsNaN(f):
		return 0, false
	case f == 0 && inclusive:
		return sortablePosZ, true
	case f == 0:
		return sortableNegZ - 1, true
	case inclusive:
		return encoding.ToSortableLong(f), true
	default:
		// Below -Inf this reaches the NaN encoding's side of the namespace.
		return encoding.ToSortableLong(f) - 1, true
	}
}
