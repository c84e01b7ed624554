// Package encoding maps BSON values to typed, type-namespaced index fields.
//
// Every scalar is indexed under the [MqlField] namespace of its BSON type.
// Values that cannot be indexed losslessly or efficiently produce a
// [FallbackMarker] instead, telling the query side that filters on the path
// must be evaluated against the source document.
package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
)

const (
	booleanTrue  = "T"
	booleanFalse = "F"
)

var singletonValue = []byte("1")

// Result is the outcome of [Encoder.Encode]: either the value was indexed,
// or a fallback marker was written instead.
type Result struct {
	fallback bool
	marker   FallbackMarker
}

// Encoded is the [Result] of a value indexed under its typed namespace.
var Encoded = Result{}

// Fallback returns the [Result] of a value marked with m.
func Fallback(m FallbackMarker) Result {
	return Result{fallback: true, marker: m}
}

// IsFallback reports whether the value was marked for fallback evaluation.
func (r Result) IsFallback() bool { return r.fallback }

// Marker returns the fallback marker written, if any.
func (r Result) Marker() (FallbackMarker, bool) { return r.marker, r.fallback }

func (r Result) String() string {
	if r.fallback {
		return "fallback(" + r.marker.String() + ")"
	}
	return "encoded"
}

// Encoder appends index fields for BSON values to an [Accumulator]. An
// Encoder holds no per-call state and is safe for concurrent use.
type Encoder struct {
	cfg     Config
	logger  log.Logger
	metrics *metrics
}

// NewEncoder returns an [Encoder]. Metrics are registered with r when r is
// non-nil.
func NewEncoder(cfg Config, logger log.Logger, r prometheus.Registerer) *Encoder {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if cfg.MaxTermLength == 0 {
		cfg.MaxTermLength = MaxTermLength
	}
	return &Encoder{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(r),
	}
}

// Encode appends the index fields for the value v found at path to acc.
//
// Documents, arrays, code with scope and decimal128 values are never indexed
// and produce [FallbackMarkerObject]; empty arrays produce
// [FallbackMarkerEmptyArray]. Keyword encodings of at least the maximum term
// length produce [FallbackMarkerValueTooLarge] and no typed field.
func (e *Encoder) Encode(path fieldpath.FieldPath, v bsoncore.Value, acc Accumulator) Result {
	switch v.Type {
	case bsontype.Double:
		return e.addDouble(path, v.Double(), acc)
	case bsontype.String:
		return e.addBytes(path, MqlFieldString, []byte(v.StringValue()), acc)
	case bsontype.Symbol:
		return e.addBytes(path, MqlFieldSymbol, []byte(v.Symbol()), acc)
	case bsontype.EmbeddedDocument:
		return e.addMarker(path, FallbackMarkerObject, acc)
	case bsontype.Array:
		if isEmptyArray(v.Array()) {
			return e.addMarker(path, FallbackMarkerEmptyArray, acc)
		}
		return e.addMarker(path, FallbackMarkerObject, acc)
	case bsontype.Binary:
		subtype, data := v.Binary()
		buf := make([]byte, 0, 4+1+len(data))
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
		buf = append(buf, subtype)
		buf = append(buf, data...)
		return e.addBytes(path, MqlFieldBinary, buf, acc)
	case bsontype.Undefined:
		return e.addSingleton(path, MqlFieldUndefined, acc)
	case bsontype.ObjectID:
		oid := v.ObjectID()
		return e.addBytes(path, MqlFieldObjectID, oid[:], acc)
	case bsontype.Boolean:
		value := booleanFalse
		if v.Boolean() {
			value = booleanTrue
		}
		return e.add(acc, MqlFieldBoolean, IndexableField{Name: MqlFieldBoolean.Name(path), Kind: KindKeyword, Bytes: []byte(value)})
	case bsontype.DateTime:
		return e.add(acc, MqlFieldDateTime, IndexableField{Name: MqlFieldDateTime.Name(path), Kind: KindLong, Long: v.DateTime()})
	case bsontype.Null:
		return e.addSingleton(path, MqlFieldNull, acc)
	case bsontype.Regex:
		// Options sort before the pattern, separated by a NUL byte.
		pattern, options := v.Regex()
		return e.addBytes(path, MqlFieldRegularExp, []byte(options+"\x00"+pattern), acc)
	case bsontype.DBPointer:
		ns, oid := v.DBPointer()
		buf := make([]byte, 0, 4+len(ns)+len(oid))
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(ns)))
		buf = append(buf, ns...)
		buf = append(buf, oid[:]...)
		return e.addBytes(path, MqlFieldDbRef, buf, acc)
	case bsontype.JavaScript:
		return e.addBytes(path, MqlFieldJavascript, []byte(v.JavaScript()), acc)
	case bsontype.CodeWithScope:
		return e.addMarker(path, FallbackMarkerObject, acc)
	case bsontype.Int32:
		value := int64(v.Int32())
		e.add(acc, MqlFieldInt64, IndexableField{Name: MqlFieldInt64.Name(path), Kind: KindLongPoint, Long: value})
		return e.add(acc, MqlFieldInt32, IndexableField{Name: MqlFieldInt32.Name(path), Kind: KindSortedNumericDocValues, Long: value})
	case bsontype.Timestamp:
		t, i := v.Timestamp()
		return e.add(acc, MqlFieldTimestamp, IndexableField{Name: MqlFieldTimestamp.Name(path), Kind: KindLong, Long: int64(uint64(t)<<32 | uint64(i))})
	case bsontype.Int64:
		return e.add(acc, MqlFieldInt64, IndexableField{Name: MqlFieldInt64.Name(path), Kind: KindLong, Long: v.Int64()})
	case bsontype.Decimal128:
		// No sortable decimal128 encoding exists yet.
		return e.addMarker(path, FallbackMarkerObject, acc)
	case bsontype.MinKey:
		return e.addSingleton(path, MqlFieldMinKey, acc)
	case bsontype.MaxKey:
		return e.addSingleton(path, MqlFieldMaxKey, acc)
	default:
		panic(fmt.Sprintf("encoding: unexpected BSON type %s", v.Type))
	}
}

// EncodeProjection stores doc as the projection payload of path. Projection
// payloads are stored whether or not the path itself was marked for fallback.
func (e *Encoder) EncodeProjection(path fieldpath.FieldPath, doc bsoncore.Document, acc Accumulator) {
	e.add(acc, MqlFieldProjection, IndexableField{Name: MqlFieldProjection.Name(path), Kind: KindBinaryDocValues, Bytes: doc})
}

// add appends f and counts it under field.
func (e *Encoder) add(acc Accumulator, field MqlField, f IndexableField) Result {
	acc.Append(f)
	e.metrics.fields.WithLabelValues(field.String()).Inc()
	return Encoded
}

// addSingleton indexes types with a single possible value. The presence of
// the field answers every query on them.
func (e *Encoder) addSingleton(path fieldpath.FieldPath, field MqlField, acc Accumulator) Result {
	return e.add(acc, field, IndexableField{Name: field.Name(path), Kind: KindKeyword, Bytes: singletonValue})
}

func (e *Encoder) addDouble(path fieldpath.FieldPath, v float64, acc Accumulator) Result {
	name := MqlFieldDouble.Name(path)
	encoded := ToSortableLong(v)
	if encoded == negativeZeroEncoding {
		// Signed zeros share the index entry; the doc value keeps the sign.
		e.add(acc, MqlFieldDouble, IndexableField{Name: name, Kind: KindLongPoint, Long: positiveZeroEncoding})
		return e.add(acc, MqlFieldDouble, IndexableField{Name: name, Kind: KindSortedNumericDocValues, Long: negativeZeroEncoding})
	}
	return e.add(acc, MqlFieldDouble, IndexableField{Name: name, Kind: KindLong, Long: encoded})
}

func (e *Encoder) addBytes(path fieldpath.FieldPath, field MqlField, b []byte, acc Accumulator) Result {
	if len(b) >= int(e.cfg.MaxTermLength) {
		level.Debug(e.logger).Log("msg", "value too large to index", "path", path, "field", field, "size", len(b))
		return e.addMarker(path, FallbackMarkerValueTooLarge, acc)
	}
	return e.add(acc, field, IndexableField{Name: field.Name(path), Kind: KindKeyword, Bytes: b})
}

func (e *Encoder) addMarker(path fieldpath.FieldPath, m FallbackMarker, acc Accumulator) Result {
	acc.Append(IndexableField{Name: MqlFieldFallbackMarker.Name(path), Kind: KindNumericDocValues, Long: m.ID()})
	e.metrics.fallbacks.WithLabelValues(m.String()).Inc()
	return Fallback(m)
}

func isEmptyArray(arr bsoncore.Array) bool {
	// An array is a document; an empty one is only its length prefix and
	// terminator.
	return len(arr) <= 5
}
