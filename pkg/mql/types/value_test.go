package types_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/grafana/mqlmatch/pkg/mql/types"
)

func TestValue_Accessors(t *testing.T) {
	t.Run("Null", func(t *testing.T) {
		var v types.Value
		require.True(t, v.IsNull())
		require.Equal(t, types.ValueTypeNull, v.Type())
		require.Equal(t, "null", v.String())
		require.Equal(t, bsontype.Null, v.BSON().Type)
	})

	t.Run("Boolean", func(t *testing.T) {
		v := types.BoolValue(true)
		require.Equal(t, types.ValueTypeBoolean, v.Type())
		require.True(t, v.Bool())
		require.False(t, types.BoolValue(false).Bool())
		require.True(t, v.BSON().Boolean())
	})

	t.Run("Date", func(t *testing.T) {
		ts := time.Date(2024, 3, 1, 12, 0, 0, 123_456_789, time.UTC)
		v := types.DateValue(ts)
		require.Equal(t, types.ValueTypeDate, v.Type())
		require.Equal(t, ts.UnixMilli(), v.DateMillis())
		require.True(t, ts.Truncate(time.Millisecond).Equal(v.Date()))
		require.Equal(t, ts.UnixMilli(), v.BSON().DateTime())
	})

	t.Run("Int64", func(t *testing.T) {
		v := types.Int64Value(-1234)
		require.Equal(t, types.ValueTypeNumber, v.Type())
		require.Equal(t, types.NumberKindInt64, v.NumberKind())
		require.Equal(t, int64(-1234), v.Int64())
		require.Equal(t, "-1234", v.String())
		require.Equal(t, int64(-1234), v.BSON().Int64())
		require.Panics(t, func() { v.Double() })
	})

	t.Run("Double", func(t *testing.T) {
		v := types.DoubleValue(math.Copysign(0, -1))
		require.Equal(t, types.NumberKindDouble, v.NumberKind())
		require.True(t, math.Signbit(v.Double()), "sign of zero must be kept")
		require.Equal(t, bsontype.Double, v.BSON().Type)
		require.Panics(t, func() { v.Int64() })
	})

	t.Run("ObjectID", func(t *testing.T) {
		oid := primitive.NewObjectID()
		v := types.ObjectIDValue(oid)
		require.Equal(t, types.ValueTypeObjectID, v.Type())
		require.Equal(t, oid, v.ObjectID())
		require.Equal(t, oid.Hex(), v.String())
		require.Equal(t, oid, v.BSON().ObjectID())
	})

	t.Run("String", func(t *testing.T) {
		v := types.StringValue("hello, world!")
		require.Equal(t, types.ValueTypeString, v.Type())
		require.Equal(t, "hello, world!", v.String())
		require.Equal(t, "hello, world!", v.BSON().StringValue())
		require.Panics(t, func() { v.Bool() })
	})

	t.Run("UUID", func(t *testing.T) {
		u := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
		v := types.UUIDValue(u)
		require.Equal(t, types.ValueTypeUUID, v.Type())
		require.Equal(t, u, v.UUID())
		require.Equal(t, u.String(), v.String())

		subtype, data := v.BSON().Binary()
		require.Equal(t, bsontype.BinaryUUID, subtype)
		require.Equal(t, u[:], data)
	})
}

func TestPointFromValue(t *testing.T) {
	p, err := types.PointFromValue(types.Int64Value(5))
	require.NoError(t, err)
	require.Equal(t, types.LongPoint{Value: 5}, p)

	p, err = types.PointFromValue(types.DoubleValue(2.5))
	require.NoError(t, err)
	require.Equal(t, types.DoublePoint{Value: 2.5}, p)

	p, err = types.PointFromValue(types.StringValue("abc"))
	require.NoError(t, err)
	require.Equal(t, types.StringPoint{Value: "abc"}, p)

	_, err = types.PointFromValue(types.NullValue())
	require.Error(t, err)
}
