package encoding

import "math"

// ToSortableLong maps a double to a long whose signed order matches the
// order of doubles. NaN maps below every other value; -0.0 maps just below
// +0.0.
func ToSortableLong(v float64) int64 {
	if math.IsNaN(v) {
		return math.MinInt64
	}
	bits := int64(math.Float64bits(v))
	return bits ^ ((bits >> 63) & math.MaxInt64)
}

// FromSortableLong reverses [ToSortableLong]. Every NaN decodes to the same
// quiet NaN.
func FromSortableLong(v int64) float64 {
	if v == math.MinInt64 {
		return math.NaN()
	}
	return math.Float64frombits(uint64(v ^ ((v >> 63) & math.MaxInt64)))
}

var (
	positiveZeroEncoding = ToSortableLong(0)
	negativeZeroEncoding = ToSortableLong(math.Copysign(0, -1))
)
