package encoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
)

func TestMqlField_Name(t *testing.T) {
	seen := make(map[string]MqlField)
	for f := MqlFieldMinKey; f <= MqlFieldProjection; f++ {
		name := f.Name(fieldpath.Parse("a.b"))
		prev, dup := seen[name]
		require.False(t, dup, "%s collides with %s", f, prev)
		seen[name] = f

		parsed, path, err := ParseFieldName(name)
		require.NoError(t, err)
		require.Equal(t, f, parsed)
		require.Equal(t, fieldpath.Parse("a.b"), path)
	}

	require.Equal(t, "$mql:int64/x", MqlFieldInt64.Name(fieldpath.Parse("x")))
	require.Equal(t, "$mql:fallback/a..b", MqlFieldFallbackMarker.Name(fieldpath.Parse("a..b")))
}

func TestParseFieldName_Invalid(t *testing.T) {
	for _, name := range []string{"", "int64/a", "$mql:unknown/a", "$mql:int64"} {
		_, _, err := ParseFieldName(name)
		require.ErrorIs(t, err, errors.ErrType, name)
	}
}

func TestFallbackMarker_ID(t *testing.T) {
	// Persisted ids.
	require.Equal(t, int64(0), FallbackMarkerObject.ID())
	require.Equal(t, int64(1), FallbackMarkerValueTooLarge.ID())
	require.Equal(t, int64(2), FallbackMarkerEmptyArray.ID())

	for _, m := range []FallbackMarker{FallbackMarkerObject, FallbackMarkerValueTooLarge, FallbackMarkerEmptyArray} {
		parsed, err := ParseFallbackMarker(m.ID())
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}
	_, err := ParseFallbackMarker(3)
	require.ErrorIs(t, err, errors.ErrType)
}

func TestToSortableLong(t *testing.T) {
	ordered := []float64{
		math.Inf(-1), -math.MaxFloat64, -1, -math.SmallestNonzeroFloat64,
		math.Copysign(0, -1), 0, math.SmallestNonzeroFloat64, 1, math.MaxFloat64, math.Inf(1),
	}

	require.Equal(t, int64(math.MinInt64), ToSortableLong(math.NaN()))
	prev := ToSortableLong(math.NaN())
	for _, v := range ordered {
		cur := ToSortableLong(v)
		require.Greater(t, cur, prev, "%v", v)
		require.Equal(t, math.Float64bits(v), math.Float64bits(FromSortableLong(cur)))
		prev = cur
	}
	require.True(t, math.IsNaN(FromSortableLong(math.MinInt64)))
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, (&Config{MaxTermLength: MaxTermLength}).Validate())
	require.Error(t, (&Config{}).Validate())
	require.Error(t, (&Config{MaxTermLength: MaxTermLength + 1}).Validate())
}
