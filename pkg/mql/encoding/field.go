package encoding

import (
	"fmt"
	"strings"

	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
)

// MqlField is the namespace a value is indexed under. Every BSON type has its
// own namespace so that values of different types at the same path never
// collide. Field names are persisted and must not change.
type MqlField uint8

const (
	MqlFieldMinKey MqlField = iota
	MqlFieldUndefined
	MqlFieldNull
	MqlFieldInt32
	MqlFieldInt64
	MqlFieldDouble
	MqlFieldString
	MqlFieldSymbol
	MqlFieldBoolean
	MqlFieldBinary
	MqlFieldRegularExp
	MqlFieldJavascript
	MqlFieldDbRef
	MqlFieldJavascriptWithScope
	MqlFieldDateTime
	MqlFieldTimestamp
	MqlFieldObjectID
	MqlFieldMaxKey

	// MqlFieldFallbackMarker holds the [FallbackMarker] of paths that could not
	// be indexed.
	MqlFieldFallbackMarker

	// MqlFieldProjection holds pre-materialized projection payloads.
	MqlFieldProjection
)

var mqlFieldTags = [...]string{
	MqlFieldMinKey:              "minKey",
	MqlFieldUndefined:           "undefined",
	MqlFieldNull:                "null",
	MqlFieldInt32:               "int32",
	MqlFieldInt64:               "int64",
	MqlFieldDouble:              "double",
	MqlFieldString:              "string",
	MqlFieldSymbol:              "symbol",
	MqlFieldBoolean:             "boolean",
	MqlFieldBinary:              "binary",
	MqlFieldRegularExp:          "regex",
	MqlFieldJavascript:          "javascript",
	MqlFieldDbRef:               "dbPointer",
	MqlFieldJavascriptWithScope: "javascriptWithScope",
	MqlFieldDateTime:            "dateTime",
	MqlFieldTimestamp:           "timestamp",
	MqlFieldObjectID:            "objectId",
	MqlFieldMaxKey:              "maxKey",
	MqlFieldFallbackMarker:      "fallback",
	MqlFieldProjection:          "projection",
}

const (
	tagPrefix     = "$mql:"
	pathSeparator = "/"
)

// String returns the short name of f, for example "int64".
func (f MqlField) String() string {
	if int(f) < len(mqlFieldTags) {
		return mqlFieldTags[f]
	}
	return fmt.Sprintf("MqlField(%d)", uint8(f))
}

// Tag returns the namespace prefix of f, for example "$mql:int64".
func (f MqlField) Tag() string {
	if int(f) >= len(mqlFieldTags) {
		panic(fmt.Sprintf("encoding: unexpected field %d", uint8(f)))
	}
	return tagPrefix + mqlFieldTags[f]
}

// Name returns the field name for path in the namespace of f, of the form
// "<tag>/<dotted path>".
func (f MqlField) Name(path fieldpath.FieldPath) string {
	return f.Tag() + pathSeparator + path.String()
}

// ParseFieldName splits a name produced by [MqlField.Name] back into its
// namespace and path.
func ParseFieldName(name string) (MqlField, fieldpath.FieldPath, error) {
	tag, path, ok := strings.Cut(name, pathSeparator)
	if !ok || !strings.HasPrefix(tag, tagPrefix) {
		return 0, fieldpath.FieldPath{}, fmt.Errorf("%w: %q is not an mql field name", errors.ErrType, name)
	}
	tag = strings.TrimPrefix(tag, tagPrefix)
	for f, t := range mqlFieldTags {
		if t == tag {
			return MqlField(f), fieldpath.Parse(path), nil
		}
	}
	return 0, fieldpath.FieldPath{}, fmt.Errorf("%w: unknown mql field namespace %q", errors.ErrType, tag)
}
