package types

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/internal/numeric"
)

// PointType is the type of a [Point]. A point's type never changes and
// determines which range bounds may hold it.
type PointType uint8

const (
	PointTypeBoolean PointType = iota + 1
	PointTypeDate
	PointTypeNumber
	PointTypeObjectID
	PointTypeString
	PointTypeUUID
	PointTypeGeo
)

func (t PointType) String() string {
	switch t {
	case PointTypeBoolean:
		return "boolean"
	case PointTypeDate:
		return "date"
	case PointTypeNumber:
		return "number"
	case PointTypeObjectID:
		return "objectId"
	case PointTypeString:
		return "string"
	case PointTypeUUID:
		return "uuid"
	case PointTypeGeo:
		return "geo"
	default:
		return fmt.Sprintf("PointType(%d)", uint8(t))
	}
}

// Point is a value usable as a range endpoint. Points are only ordered
// against points of the same [PointType]; see [ComparePoints].
type Point interface {
	fmt.Stringer

	Type() PointType
	isPoint()
}

// NumericPoint is a [Point] of type [PointTypeNumber]. Long and double points
// are ordered against each other by exact mathematical value.
type NumericPoint interface {
	Point
	isNumericPoint()
}

// Types implementing [Point].
type (
	// BooleanPoint orders false before true.
	BooleanPoint struct{ Value bool }

	// DatePoint holds milliseconds since the Unix epoch.
	DatePoint struct{ Millis int64 }

	// LongPoint is a [NumericPoint] holding an int64.
	LongPoint struct{ Value int64 }

	// DoublePoint is a [NumericPoint] holding a float64. NaN sorts below every
	// other number and -0.0 equals +0.0.
	DoublePoint struct{ Value float64 }

	// ObjectIDPoint orders object ids byte-wise.
	ObjectIDPoint struct{ Value primitive.ObjectID }

	// StringPoint orders strings byte-wise.
	StringPoint struct{ Value string }

	// UUIDPoint orders UUIDs byte-wise.
	UUIDPoint struct{ Value uuid.UUID }

	// GeoPoint is a longitude/latitude pair. Geo points have no order and
	// cannot be used in range bounds.
	GeoPoint struct{ Longitude, Latitude float64 }
)

func (BooleanPoint) Type() PointType  { return PointTypeBoolean }
func (DatePoint) Type() PointType     { return PointTypeDate }
func (LongPoint) Type() PointType     { return PointTypeNumber }
func (DoublePoint) Type() PointType   { return PointTypeNumber }
func (ObjectIDPoint) Type() PointType { return PointTypeObjectID }
func (StringPoint) Type() PointType   { return PointTypeString }
func (UUIDPoint) Type() PointType     { return PointTypeUUID }
func (GeoPoint) Type() PointType      { return PointTypeGeo }

func (BooleanPoint) isPoint()  {}
func (DatePoint) isPoint()     {}
func (LongPoint) isPoint()     {}
func (DoublePoint) isPoint()   {}
func (ObjectIDPoint) isPoint() {}
func (StringPoint) isPoint()   {}
func (UUIDPoint) isPoint()     {}
func (GeoPoint) isPoint()      {}

func (LongPoint) isNumericPoint()   {}
func (DoublePoint) isNumericPoint() {}

func (p BooleanPoint) String() string { return strconv.FormatBool(p.Value) }
func (p DatePoint) String() string {
	return time.UnixMilli(p.Millis).UTC().Format(time.RFC3339Nano)
}
func (p LongPoint) String() string     { return strconv.FormatInt(p.Value, 10) }
func (p DoublePoint) String() string   { return strconv.FormatFloat(p.Value, 'g', -1, 64) }
func (p ObjectIDPoint) String() string { return p.Value.Hex() }
func (p StringPoint) String() string   { return strconv.Quote(p.Value) }
func (p UUIDPoint) String() string     { return p.Value.String() }
func (p GeoPoint) String() string {
	return fmt.Sprintf("(%s, %s)",
		strconv.FormatFloat(p.Longitude, 'g', -1, 64),
		strconv.FormatFloat(p.Latitude, 'g', -1, 64))
}

// IsNaN reports whether p is a double point holding NaN.
func IsNaN(p Point) bool {
	d, ok := p.(DoublePoint)
	return ok && math.IsNaN(d.Value)
}

// ComparePoints returns -1, 0 or 1 depending on whether a is less than, equal
// to, or greater than b. It panics if a and b are of different types or if
// they are geo points.
func ComparePoints(a, b Point) int {
	if a.Type() != b.Type() {
		panic(fmt.Sprintf("types.ComparePoints: cannot compare %s with %s", a.Type(), b.Type()))
	}

	switch a := a.(type) {
	case BooleanPoint:
		return compareBool(a.Value, b.(BooleanPoint).Value)
	case DatePoint:
		return cmp.Compare(a.Millis, b.(DatePoint).Millis)
	case LongPoint, DoublePoint:
		return numeric.Compare(numberOf(a), numberOf(b))
	case ObjectIDPoint:
		bv := b.(ObjectIDPoint).Value
		return bytes.Compare(a.Value[:], bv[:])
	case StringPoint:
		return cmp.Compare(a.Value, b.(StringPoint).Value)
	case UUIDPoint:
		bv := b.(UUIDPoint).Value
		return bytes.Compare(a.Value[:], bv[:])
	case GeoPoint:
		panic("types.ComparePoints: geo points are not ordered")
	default:
		panic(fmt.Sprintf("types.ComparePoints: unexpected point %T", a))
	}
}

func numberOf(p Point) numeric.Number {
	switch p := p.(type) {
	case LongPoint:
		return numeric.Int64(p.Value)
	case DoublePoint:
		return numeric.Float64(p.Value)
	default:
		panic(fmt.Sprintf("types: %T is not a numeric point", p))
	}
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

// PointFromValue returns the [Point] representing v. It returns an error
// wrapping [errors.ErrType] for null values, which have no point.
func PointFromValue(v Value) (Point, error) {
	switch v.Type() {
	case ValueTypeBoolean:
		return BooleanPoint{Value: v.Bool()}, nil
	case ValueTypeDate:
		return DatePoint{Millis: v.DateMillis()}, nil
	case ValueTypeNumber:
		if v.NumberKind() == NumberKindInt64 {
			return LongPoint{Value: v.Int64()}, nil
		}
		return DoublePoint{Value: v.Double()}, nil
	case ValueTypeObjectID:
		return ObjectIDPoint{Value: v.ObjectID()}, nil
	case ValueTypeString:
		return StringPoint{Value: v.String()}, nil
	case ValueTypeUUID:
		return UUIDPoint{Value: v.UUID()}, nil
	case ValueTypeNull:
		return nil, fmt.Errorf("%w: null has no point", errors.ErrType)
	default:
		panic(fmt.Sprintf("types.PointFromValue: unexpected type %s", v.Type()))
	}
}
