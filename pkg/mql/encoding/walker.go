package encoding

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
)

// Stats summarizes the fields written by [Encoder.EncodeDocument].
type Stats struct {
	// Values is the number of values passed to [Encoder.Encode].
	Values int
	// Encoded is the number of values indexed under a typed namespace.
	Encoded int
	// Fallbacks counts the fallback markers written, by marker.
	Fallbacks map[FallbackMarker]int
}

// EncodeDocument encodes every value reachable in doc:
//
//   - every field is encoded at its dotted path, except fields whose key
//     contains '.', which no path can address,
//   - sub-documents are marked and then descended into,
//   - array elements are encoded at the path of the array; documents in
//     arrays are descended into, nested arrays are only marked.
//
// When projections are enabled, doc itself is stored as the projection
// payload of the root path. EncodeDocument returns an error if doc is
// malformed; fields appended before the error remain in acc.
func (e *Encoder) EncodeDocument(doc bsoncore.Document, acc Accumulator) (Stats, error) {
	if err := doc.Validate(); err != nil {
		return Stats{}, fmt.Errorf("invalid document: %w", err)
	}

	w := walker{enc: e, acc: acc, stats: Stats{Fallbacks: make(map[FallbackMarker]int)}}
	if err := w.walkDocument(nil, doc); err != nil {
		return w.stats, err
	}
	if e.cfg.EncodeProjections {
		e.EncodeProjection(fieldpath.FieldPath{}, doc, acc)
	}

	e.metrics.documents.Inc()
	return w.stats, nil
}

type walker struct {
	enc   *Encoder
	acc   Accumulator
	stats Stats
}

// walkDocument encodes the fields of doc. parent is nil at the root.
func (w *walker) walkDocument(parent *fieldpath.FieldPath, doc bsoncore.Document) error {
	elems, err := doc.Elements()
	if err != nil {
		return err
	}
	for _, elem := range elems {
		if !fieldpath.IsSegment(elem.Key()) {
			// No path reaches the key. Indexing it would alias a nested field.
			continue
		}
		path := fieldpath.Parse(elem.Key())
		if parent != nil {
			path = parent.Child(elem.Key())
		}
		if err := w.walkValue(path, elem.Value(), true); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkValue(path fieldpath.FieldPath, v bsoncore.Value, expandArrays bool) error {
	w.record(w.enc.Encode(path, v, w.acc))

	switch v.Type {
	case bsontype.EmbeddedDocument:
		return w.walkDocument(&path, v.Document())
	case bsontype.Array:
		if !expandArrays {
			return nil
		}
		vals, err := v.Array().Values()
		if err != nil {
			return err
		}
		for _, elem := range vals {
			if err := w.walkValue(path, elem, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) record(r Result) {
	w.stats.Values++
	if m, ok := r.Marker(); ok {
		w.stats.Fallbacks[m]++
		return
	}
	w.stats.Encoded++
}
