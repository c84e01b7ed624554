// Package types holds the typed query literals ([Value]), range endpoints
// ([Point]) and validated intervals ([RangeBound]) used by mql filters.
package types

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// ValueType is the type of a query literal.
type ValueType uint32

const (
	ValueTypeNull ValueType = iota // zero-value is null

	ValueTypeBoolean  // Boolean value
	ValueTypeDate     // Milliseconds since the Unix epoch
	ValueTypeNumber   // 64bit integer or floating point value, see [NumberKind]
	ValueTypeObjectID // 12 byte object id
	ValueTypeString   // UTF-8 string
	ValueTypeUUID     // RFC 4122 UUID
)

// String returns the string representation of the ValueType.
func (t ValueType) String() string {
	switch t {
	case ValueTypeNull:
		return "null"
	case ValueTypeBoolean:
		return "boolean"
	case ValueTypeDate:
		return "date"
	case ValueTypeNumber:
		return "number"
	case ValueTypeObjectID:
		return "objectId"
	case ValueTypeString:
		return "string"
	case ValueTypeUUID:
		return "uuid"
	default:
		return fmt.Sprintf("ValueType(%d)", uint32(t))
	}
}

// NumberKind is the representation of a [ValueTypeNumber] value. Numbers are
// never widened at construction.
type NumberKind uint8

const (
	NumberKindInt64 NumberKind = iota + 1
	NumberKindDouble
)

func (k NumberKind) String() string {
	switch k {
	case NumberKindInt64:
		return "int64"
	case NumberKindDouble:
		return "double"
	default:
		return fmt.Sprintf("NumberKind(%d)", uint8(k))
	}
}

type stringptr *byte

// A Value is a typed query literal. Values can be constructed without
// allocations for every type except object ids and UUIDs. The zero Value is
// null.
type Value struct {
	_ [0]func() // Disallow equality checking of two Values

	// num holds the payload of booleans, dates and numbers, or the string
	// length for strings.
	num uint64

	// any is one of:
	//
	// * a ValueType for booleans and dates,
	// * a NumberKind for numbers, with the bits in num,
	// * a stringptr for strings, with the length in num,
	// * a primitive.ObjectID or uuid.UUID.
	any any
}

// NullValue returns the null [Value].
func NullValue() Value { return Value{} }

// BoolValue returns a [Value] for a boolean.
func BoolValue(v bool) Value {
	var num uint64
	if v {
		num = 1
	}
	return Value{num: num, any: ValueTypeBoolean}
}

// DateValue returns a [Value] for a point in time, truncated to milliseconds.
func DateValue(v time.Time) Value {
	return DateMillisValue(v.UnixMilli())
}

// DateMillisValue returns a [Value] for a date given in milliseconds since the
// Unix epoch.
func DateMillisValue(ms int64) Value {
	return Value{num: uint64(ms), any: ValueTypeDate}
}

// Int64Value returns a [Value] for an int64.
func Int64Value(v int64) Value {
	return Value{num: uint64(v), any: NumberKindInt64}
}

// DoubleValue returns a [Value] for a float64.
func DoubleValue(v float64) Value {
	return Value{num: math.Float64bits(v), any: NumberKindDouble}
}

// ObjectIDValue returns a [Value] for an object id.
func ObjectIDValue(v primitive.ObjectID) Value {
	return Value{any: v}
}

// StringValue returns a [Value] for a string.
func StringValue(v string) Value {
	return Value{
		num: uint64(len(v)),
		any: (stringptr)(unsafe.StringData(v)),
	}
}

// UUIDValue returns a [Value] for a UUID.
func UUIDValue(v uuid.UUID) Value {
	return Value{any: v}
}

// IsNull returns whether v is null.
func (v Value) IsNull() bool {
	return v.any == nil
}

// Type returns the [ValueType] of v.
func (v Value) Type() ValueType {
	switch a := v.any.(type) {
	case nil:
		return ValueTypeNull
	case ValueType:
		return a
	case NumberKind:
		return ValueTypeNumber
	case stringptr:
		return ValueTypeString
	case primitive.ObjectID:
		return ValueTypeObjectID
	case uuid.UUID:
		return ValueTypeUUID
	default:
		panic(fmt.Sprintf("types.Value has unexpected type %T", a))
	}
}

func (v Value) expect(expect ValueType) {
	if actual := v.Type(); actual != expect {
		panic(fmt.Sprintf("types.Value type is %s, not %s", actual, expect))
	}
}

// Bool returns v's value as a bool. It panics if v is not a
// [ValueTypeBoolean].
func (v Value) Bool() bool {
	v.expect(ValueTypeBoolean)
	return v.num == 1
}

// DateMillis returns v's value as milliseconds since the Unix epoch. It
// panics if v is not a [ValueTypeDate].
func (v Value) DateMillis() int64 {
	v.expect(ValueTypeDate)
	return int64(v.num)
}

// Date returns v's value as a UTC time. It panics if v is not a
// [ValueTypeDate].
func (v Value) Date() time.Time {
	return time.UnixMilli(v.DateMillis()).UTC()
}

// NumberKind returns the representation of a number. It panics if v is not a
// [ValueTypeNumber].
func (v Value) NumberKind() NumberKind {
	v.expect(ValueTypeNumber)
	return v.any.(NumberKind)
}

// Int64 returns v's value as an int64. It panics if v is not a number of
// kind [NumberKindInt64].
func (v Value) Int64() int64 {
	if kind := v.NumberKind(); kind != NumberKindInt64 {
		panic(fmt.Sprintf("types.Value number kind is %s, not %s", kind, NumberKindInt64))
	}
	return int64(v.num)
}

// Double returns v's value as a float64. It panics if v is not a number of
// kind [NumberKindDouble].
func (v Value) Double() float64 {
	if kind := v.NumberKind(); kind != NumberKindDouble {
		panic(fmt.Sprintf("types.Value number kind is %s, not %s", kind, NumberKindDouble))
	}
	return math.Float64frombits(v.num)
}

// ObjectID returns v's value as an object id. It panics if v is not a
// [ValueTypeObjectID].
func (v Value) ObjectID() primitive.ObjectID {
	v.expect(ValueTypeObjectID)
	return v.any.(primitive.ObjectID)
}

// UUID returns v's value as a UUID. It panics if v is not a [ValueTypeUUID].
func (v Value) UUID() uuid.UUID {
	v.expect(ValueTypeUUID)
	return v.any.(uuid.UUID)
}

// String returns v's value as a string. Because of Go's String method
// convention, if v is not a string, String returns a printable form of v
// instead.
func (v Value) String() string {
	if sp, ok := v.any.(stringptr); ok {
		return unsafe.String(sp, v.num)
	}

	switch v.Type() {
	case ValueTypeNull:
		return "null"
	case ValueTypeBoolean:
		return strconv.FormatBool(v.Bool())
	case ValueTypeDate:
		return v.Date().Format(time.RFC3339Nano)
	case ValueTypeNumber:
		if v.NumberKind() == NumberKindInt64 {
			return strconv.FormatInt(v.Int64(), 10)
		}
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case ValueTypeObjectID:
		return v.ObjectID().Hex()
	case ValueTypeUUID:
		return v.UUID().String()
	default:
		panic(fmt.Sprintf("types.Value has unexpected type %s", v.Type()))
	}
}

// BSON returns v as a BSON value. UUIDs are rendered as binary subtype 4.
func (v Value) BSON() bsoncore.Value {
	switch v.Type() {
	case ValueTypeNull:
		return bsoncore.Value{Type: bsontype.Null}
	case ValueTypeBoolean:
		return bsoncore.Value{Type: bsontype.Boolean, Data: bsoncore.AppendBoolean(nil, v.Bool())}
	case ValueTypeDate:
		return bsoncore.Value{Type: bsontype.DateTime, Data: bsoncore.AppendDateTime(nil, v.DateMillis())}
	case ValueTypeNumber:
		if v.NumberKind() == NumberKindInt64 {
			return bsoncore.Value{Type: bsontype.Int64, Data: bsoncore.AppendInt64(nil, v.Int64())}
		}
		return bsoncore.Value{Type: bsontype.Double, Data: bsoncore.AppendDouble(nil, v.Double())}
	case ValueTypeObjectID:
		return bsoncore.Value{Type: bsontype.ObjectID, Data: bsoncore.AppendObjectID(nil, v.ObjectID())}
	case ValueTypeString:
		return bsoncore.Value{Type: bsontype.String, Data: bsoncore.AppendString(nil, v.String())}
	case ValueTypeUUID:
		u := v.UUID()
		return bsoncore.Value{Type: bsontype.Binary, Data: bsoncore.AppendBinary(nil, bsontype.BinaryUUID, u[:])}
	default:
		panic(fmt.Sprintf("types.Value has unexpected type %s", v.Type()))
	}
}

