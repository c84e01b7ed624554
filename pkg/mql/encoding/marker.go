package encoding

import (
	"fmt"

	"github.com/grafana/mqlmatch/pkg/mql/errors"
)

// FallbackMarker records why a path could not be indexed as a typed field.
// Filters on a marked path must be evaluated against the source document.
//
// The numeric value of a marker is persisted. Existing values must never be
// reassigned; new markers are appended.
type FallbackMarker uint8

const (
	// FallbackMarkerObject marks documents, arrays and other values without a
	// typed encoding.
	FallbackMarkerObject FallbackMarker = 0

	// FallbackMarkerValueTooLarge marks values whose encoding exceeds the
	// maximum term length.
	FallbackMarkerValueTooLarge FallbackMarker = 1

	// FallbackMarkerEmptyArray marks empty arrays.
	FallbackMarkerEmptyArray FallbackMarker = 2
)

// ID returns the persisted id of m.
func (m FallbackMarker) ID() int64 { return int64(m) }

func (m FallbackMarker) String() string {
	switch m {
	case FallbackMarkerObject:
		return "object"
	case FallbackMarkerValueTooLarge:
		return "value_too_large"
	case FallbackMarkerEmptyArray:
		return "empty_array"
	default:
		return fmt.Sprintf("FallbackMarker(%d)", uint8(m))
	}
}

// ParseFallbackMarker returns the marker with the persisted id.
func ParseFallbackMarker(id int64) (FallbackMarker, error) {
	if id < 0 || id > int64(FallbackMarkerEmptyArray) {
		return 0, fmt.Errorf("%w: unknown fallback marker id %d", errors.ErrType, id)
	}
	return FallbackMarker(id), nil
}
