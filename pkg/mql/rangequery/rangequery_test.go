package rangequery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/grafana/mqlmatch/pkg/mql/encoding"
	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
	"github.com/grafana/mqlmatch/pkg/mql/types"
)

var path = fieldpath.Parse("quantity")

func long(v int64) types.NumericPoint     { return types.LongPoint{Value: v} }
func double(v float64) types.NumericPoint { return types.DoublePoint{Value: v} }

func between(t *testing.T, lower, upper types.NumericPoint, lowerInclusive, upperInclusive bool) types.RangeBound[types.NumericPoint] {
	t.Helper()
	rb, err := types.Between(lower, upper, lowerInclusive, upperInclusive)
	require.NoError(t, err)
	return rb
}

func sortable(lo, hi float64) *Int64Range {
	return &Int64Range{Min: encoding.ToSortableLong(lo), Max: encoding.ToSortableLong(hi)}
}

// fromNaN is the double range from NaN, the lowest double, up to hi.
func fromNaN(hi float64) *Int64Range {
	return &Int64Range{Min: math.MinInt64, Max: encoding.ToSortableLong(hi)}
}

func nextUp(v float64) float64   { return math.Nextafter(v, math.Inf(1)) }
func nextDown(v float64) float64 { return math.Nextafter(v, math.Inf(-1)) }

func TestNumeric(t *testing.T) {
	tests := []struct {
		name    string
		bound   types.RangeBound[types.NumericPoint]
		int64s  *Int64Range
		doubles *Int64Range
	}{
		{
			name:    "at least long",
			bound:   types.AtLeast(long(5)),
			int64s:  &Int64Range{Min: 5, Max: math.MaxInt64},
			doubles: sortable(5, math.Inf(1)),
		},
		{
			name:    "greater than long",
			bound:   types.GreaterThan(long(5)),
			int64s:  &Int64Range{Min: 6, Max: math.MaxInt64},
			doubles: sortable(nextUp(5), math.Inf(1)),
		},
		{
			name:    "at most long",
			bound:   types.AtMost(long(1)),
			int64s:  &Int64Range{Min: math.MinInt64, Max: 1},
			doubles: fromNaN(1),
		},
		{
			name:    "less than long",
			bound:   types.LessThan(long(1)),
			int64s:  &Int64Range{Min: math.MinInt64, Max: 0},
			doubles: fromNaN(nextDown(1)),
		},
		{
			name:    "fractional inclusive",
			bound:   between(t, double(3.9), double(10.1), true, true),
			int64s:  &Int64Range{Min: 4, Max: 10},
			doubles: sortable(3.9, 10.1),
		},
		{
			name:    "fractional exclusive",
			bound:   between(t, double(3.9), double(10.1), false, false),
			int64s:  &Int64Range{Min: 4, Max: 10},
			doubles: sortable(nextUp(3.9), nextDown(10.1)),
		},
		{
			name:    "integral inclusive",
			bound:   between(t, double(4), double(10), true, true),
			int64s:  &Int64Range{Min: 4, Max: 10},
			doubles: sortable(4, 10),
		},
		{
			name:    "integral exclusive",
			bound:   between(t, double(4), double(10), false, false),
			int64s:  &Int64Range{Min: 5, Max: 9},
			doubles: sortable(nextUp(4), nextDown(10)),
		},
		{
			name:    "no long between doubles",
			bound:   between(t, double(4.5), double(4.9), true, true),
			doubles: sortable(4.5, 4.9),
		},
		{
			name:    "zero exclusive",
			bound:   between(t, long(0), long(1), false, true),
			int64s:  &Int64Range{Min: 1, Max: 1},
			doubles: sortable(nextUp(0), 1),
		},
		{
			name:    "min long",
			bound:   between(t, long(math.MinInt64), long(math.MinInt64), true, true),
			int64s:  &Int64Range{Min: math.MinInt64, Max: math.MinInt64},
			doubles: sortable(-0x1p63, -0x1p63),
		},
		{
			name:    "min long exclusive upper",
			bound:   between(t, long(math.MinInt64), long(math.MinInt64+1), true, false),
			int64s:  &Int64Range{Min: math.MinInt64, Max: math.MinInt64},
			doubles: sortable(-0x1p63, -0x1p63),
		},
		{
			name:    "double below long range",
			bound:   between(t, double(2*-0x1p63), long(math.MinInt64), true, true),
			int64s:  &Int64Range{Min: math.MinInt64, Max: math.MinInt64},
			doubles: sortable(2*-0x1p63, -0x1p63),
		},
		{
			name:   "max long",
			bound:  between(t, long(math.MaxInt64), long(math.MaxInt64), true, true),
			int64s: &Int64Range{Min: math.MaxInt64, Max: math.MaxInt64},
		},
		{
			name:   "max long exclusive lower",
			bound:  between(t, long(math.MaxInt64-1), long(math.MaxInt64), false, true),
			int64s: &Int64Range{Min: math.MaxInt64, Max: math.MaxInt64},
		},
		{
			name:    "double above long range",
			bound:   between(t, long(math.MaxInt64), double(nextUp(0x1p63)), true, false),
			int64s:  &Int64Range{Min: math.MaxInt64, Max: math.MaxInt64},
			doubles: sortable(0x1p63, 0x1p63),
		},
		{
			name:    "greater than max long",
			bound:   types.GreaterThan(long(math.MaxInt64)),
			doubles: sortable(0x1p63, math.Inf(1)),
		},
		{
			name:    "long not representable as double",
			bound:   types.AtLeast(long(1<<53 + 1)),
			int64s:  &Int64Range{Min: 1<<53 + 1, Max: math.MaxInt64},
			doubles: sortable(1<<53+2, math.Inf(1)),
		},
		{
			name:    "long at most not representable as double",
			bound:   types.AtMost(long(1<<53 + 1)),
			int64s:  &Int64Range{Min: math.MinInt64, Max: 1<<53 + 1},
			doubles: fromNaN(1 << 53),
		},
		{
			name:    "nan",
			bound:   between(t, double(math.NaN()), double(math.NaN()), true, true),
			doubles: &Int64Range{Min: math.MinInt64, Max: math.MinInt64},
		},
		{
			name:    "greater than nan",
			bound:   types.GreaterThan(double(math.NaN())),
			int64s:  &Int64Range{Min: math.MinInt64, Max: math.MaxInt64},
			doubles: sortable(math.Inf(-1), math.Inf(1)),
		},
		{
			name:    "at least nan",
			bound:   types.AtLeast(double(math.NaN())),
			int64s:  &Int64Range{Min: math.MinInt64, Max: math.MaxInt64},
			doubles: fromNaN(math.Inf(1)),
		},
		{
			name:  "less than nan",
			bound: types.LessThan(double(math.NaN())),
		},
		{
			name:    "at most nan",
			bound:   types.AtMost(double(math.NaN())),
			doubles: &Int64Range{Min: math.MinInt64, Max: math.MinInt64},
		},
		{
			name:    "less than negative infinity",
			bound:   types.LessThan(double(math.Inf(-1))),
			doubles: &Int64Range{Min: math.MinInt64, Max: encoding.ToSortableLong(math.Inf(-1)) - 1},
		},
		{
			name:  "greater than infinity",
			bound: types.GreaterThan(double(math.Inf(1))),
		},
		{
			name:    "greater than max double",
			bound:   types.GreaterThan(double(math.MaxFloat64)),
			doubles: sortable(math.Inf(1), math.Inf(1)),
		},
		{
			name:    "at most negative zero",
			bound:   types.AtMost(double(math.Copysign(0, -1))),
			int64s:  &Int64Range{Min: math.MinInt64, Max: 0},
			doubles: fromNaN(0),
		},
		{
			name:    "greater than negative zero",
			bound:   types.GreaterThan(double(math.Copysign(0, -1))),
			int64s:  &Int64Range{Min: 1, Max: math.MaxInt64},
			doubles: sortable(nextUp(0), math.Inf(1)),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Numeric(path, tc.bound)

			r, ok := q.Int64Range()
			require.Equal(t, tc.int64s != nil, ok, "int64 range %s", r)
			if tc.int64s != nil {
				require.Equal(t, *tc.int64s, r)
			}

			r, ok = q.DoubleRange()
			require.Equal(t, tc.doubles != nil, ok, "double range %s", r)
			if tc.doubles != nil {
				require.Equal(t, *tc.doubles, r)
			}
		})
	}
}

func TestDate(t *testing.T) {
	date := func(ms int64) types.DatePoint { return types.DatePoint{Millis: ms} }

	tests := []struct {
		name   string
		bound  func() (types.RangeBound[types.DatePoint], error)
		expect *Int64Range
	}{
		{
			name:   "at least",
			bound:  func() (types.RangeBound[types.DatePoint], error) { return types.AtLeast(date(1000)), nil },
			expect: &Int64Range{Min: 1000, Max: math.MaxInt64},
		},
		{
			name:   "before epoch",
			bound:  func() (types.RangeBound[types.DatePoint], error) { return types.LessThan(date(0)), nil },
			expect: &Int64Range{Min: math.MinInt64, Max: -1},
		},
		{
			name:   "single instant",
			bound:  func() (types.RangeBound[types.DatePoint], error) { return types.Between(date(7), date(7), true, true) },
			expect: &Int64Range{Min: 7, Max: 7},
		},
		{
			name:  "empty",
			bound: func() (types.RangeBound[types.DatePoint], error) { return types.Between(date(7), date(8), false, false) },
		},
		{
			name:  "after the last instant",
			bound: func() (types.RangeBound[types.DatePoint], error) { return types.GreaterThan(date(math.MaxInt64)), nil },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rb, err := tc.bound()
			require.NoError(t, err)

			r, ok := Date(path, rb).MillisRange()
			require.Equal(t, tc.expect != nil, ok)
			if tc.expect != nil {
				require.Equal(t, *tc.expect, r)
			}
		})
	}
}

func encode(t *testing.T, d bson.D) *encoding.Document {
	t.Helper()
	raw, err := bson.Marshal(d)
	require.NoError(t, err)

	var doc encoding.Document
	_, err = encoding.NewEncoder(encoding.Config{}, nil, nil).EncodeDocument(raw, &doc)
	require.NoError(t, err)
	return &doc
}

func TestQuery_Matches(t *testing.T) {
	docs := map[string]*encoding.Document{
		"int32":       encode(t, bson.D{{Key: "quantity", Value: int32(7)}}),
		"int64":       encode(t, bson.D{{Key: "quantity", Value: int64(10)}}),
		"double":      encode(t, bson.D{{Key: "quantity", Value: 7.5}}),
		"negative":    encode(t, bson.D{{Key: "quantity", Value: math.Copysign(0, -1)}}),
		"nan":         encode(t, bson.D{{Key: "quantity", Value: math.NaN()}}),
		"array":       encode(t, bson.D{{Key: "quantity", Value: bson.A{int32(1), 100.0}}}),
		"date":        encode(t, bson.D{{Key: "quantity", Value: primitive.DateTime(5000)}}),
		"string":      encode(t, bson.D{{Key: "quantity", Value: "7"}}),
		"other field": encode(t, bson.D{{Key: "other", Value: int32(7)}}),
	}

	tests := []struct {
		name   string
		query  Query
		expect []string
	}{
		{
			name:   "numbers between 5 and 10",
			query:  Numeric(path, between(t, long(5), long(10), true, false)),
			expect: []string{"int32", "double"},
		},
		{
			name:   "numbers above 50",
			query:  Numeric(path, types.GreaterThan(double(50))),
			expect: []string{"array"},
		},
		{
			name:   "numbers at most zero",
			query:  Numeric(path, types.AtMost(long(0))),
			expect: []string{"negative", "nan"},
		},
		{
			name:   "numbers greater than nan",
			query:  Numeric(path, types.GreaterThan(double(math.NaN()))),
			expect: []string{"int32", "int64", "double", "negative", "array"},
		},
		{
			name:   "numbers at most nan",
			query:  Numeric(path, types.AtMost(double(math.NaN()))),
			expect: []string{"nan"},
		},
		{
			name:   "numbers below zero",
			query:  Numeric(path, types.LessThan(long(0))),
			expect: []string{"nan"},
		},
		{
			name:   "dates",
			query:  Date(path, types.AtLeast(types.DatePoint{Millis: 5000})),
			expect: []string{"date"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var actual []string
			for name, doc := range docs {
				if tc.query.Matches(doc) {
					actual = append(actual, name)
				}
			}
			require.ElementsMatch(t, tc.expect, actual)
		})
	}
}

func TestFromBounds(t *testing.T) {
	q, err := FromBounds(path, types.GreaterThan[types.Point](types.LongPoint{Value: 5}))
	require.NoError(t, err)
	require.IsType(t, &NumericQuery{}, q)
	require.Equal(t, "quantity in (5, inf)", q.String())

	q, err = FromBounds(path, types.AtMost[types.Point](types.DatePoint{Millis: 0}))
	require.NoError(t, err)
	require.IsType(t, &DateQuery{}, q)

	_, err = FromBounds(path, types.AtLeast[types.Point](types.StringPoint{Value: "a"}))
	require.ErrorIs(t, err, errors.ErrNotImplemented)
}
