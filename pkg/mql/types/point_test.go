package types_test

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/grafana/mqlmatch/pkg/mql/types"
)

func TestComparePoints(t *testing.T) {
	tt := []struct {
		name   string
		a, b   types.Point
		expect int
	}{
		{"false before true", types.BooleanPoint{Value: false}, types.BooleanPoint{Value: true}, -1},
		{"dates", types.DatePoint{Millis: 10}, types.DatePoint{Millis: -10}, 1},
		{"long equals double", types.LongPoint{Value: 3}, types.DoublePoint{Value: 3}, 0},
		{"long below fractional double", types.LongPoint{Value: 3}, types.DoublePoint{Value: 3.1}, -1},
		{"long above rounded double", types.LongPoint{Value: 1<<53 + 1}, types.DoublePoint{Value: 1 << 53}, 1},
		{"nan below everything", types.DoublePoint{Value: math.NaN()}, types.LongPoint{Value: math.MinInt64}, -1},
		{"nan equals nan", types.DoublePoint{Value: math.NaN()}, types.DoublePoint{Value: math.NaN()}, 0},
		{"signed zero", types.DoublePoint{Value: math.Copysign(0, -1)}, types.DoublePoint{Value: 0}, 0},
		{"strings", types.StringPoint{Value: "a"}, types.StringPoint{Value: "b"}, -1},
		{"uuids", types.UUIDPoint{Value: uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")}, types.UUIDPoint{Value: uuid.Nil}, 1},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, types.ComparePoints(tc.a, tc.b))
			require.Equal(t, -tc.expect, types.ComparePoints(tc.b, tc.a))
		})
	}

	t.Run("different types", func(t *testing.T) {
		require.Panics(t, func() {
			types.ComparePoints(types.StringPoint{Value: "1"}, types.LongPoint{Value: 1})
		})
	})

	t.Run("geo", func(t *testing.T) {
		require.Panics(t, func() {
			types.ComparePoints(types.GeoPoint{}, types.GeoPoint{})
		})
	})
}
