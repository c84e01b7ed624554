package match

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
	"github.com/grafana/mqlmatch/pkg/mql/types"
)

// ParseFilter parses a $match filter document into a [Clause].
//
// Supported are top-level and nested $and, $or and $nor, implicit equality
// ({path: literal}) and the operators $eq, $ne, $gt, $gte, $lt, $lte, $in,
// $nin, $exists and $not. Several fields or operators in one document are
// implicitly ANDed.
//
// $not accepts operators with an exact negation ($eq, $ne, $in, $nin and
// $exists) and holds them in negated form in a [NotOperator].
//
// Literals may be null, booleans, dates, 32 or 64 bit integers, doubles,
// strings, object ids and UUIDs (binary subtype 4). ParseFilter returns an
// error wrapping [errors.ErrInvalidFilter] for anything else.
func ParseFilter(doc bsoncore.Document) (Clause, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFilter, err)
	}
	return parseDocument(doc)
}

func parseDocument(doc bsoncore.Document) (Clause, error) {
	elems, err := doc.Elements()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFilter, err)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: empty filter", errors.ErrInvalidFilter)
	}

	clauses := make([]Clause, 0, len(elems))
	for _, elem := range elems {
		c, err := parseElement(elem)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return &AndClause{Clauses: clauses}, nil
}

func parseElement(elem bsoncore.Element) (Clause, error) {
	key, v := elem.Key(), elem.Value()

	switch key {
	case "$and", "$or", "$nor":
		clauses, err := parseClauseList(key, v)
		if err != nil {
			return nil, err
		}
		switch key {
		case "$and":
			return &AndClause{Clauses: clauses}, nil
		case "$or":
			return &OrClause{Clauses: clauses}, nil
		default:
			return &NorClause{Clauses: clauses}, nil
		}
	}
	if strings.HasPrefix(key, "$") {
		return nil, fmt.Errorf("%w: unsupported top-level operator %s", errors.ErrInvalidFilter, key)
	}

	path := fieldpath.Parse(key)
	if v.Type == bsontype.EmbeddedDocument && isOperatorDocument(v.Document()) {
		ops, err := parseOperators(path, v.Document())
		if err != nil {
			return nil, err
		}
		return &SimpleClause{Path: path, Operators: ops}, nil
	}

	lit, err := parseLiteral(path, v)
	if err != nil {
		return nil, err
	}
	return &SimpleClause{Path: path, Operators: []Operator{&EqOperator{Value: lit}}}, nil
}

func parseClauseList(name string, v bsoncore.Value) ([]Clause, error) {
	if v.Type != bsontype.Array {
		return nil, fmt.Errorf("%w: %s must be an array, got %s", errors.ErrInvalidFilter, name, v.Type)
	}
	vals, err := v.Array().Values()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFilter, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: %s must be a non-empty array", errors.ErrInvalidFilter, name)
	}

	clauses := make([]Clause, 0, len(vals))
	for _, elem := range vals {
		if elem.Type != bsontype.EmbeddedDocument {
			return nil, fmt.Errorf("%w: %s entries must be documents, got %s", errors.ErrInvalidFilter, name, elem.Type)
		}
		c, err := parseDocument(elem.Document())
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

// isOperatorDocument reports whether doc starts with an operator key.
func isOperatorDocument(doc bsoncore.Document) bool {
	elems, err := doc.Elements()
	return err == nil && len(elems) > 0 && strings.HasPrefix(elems[0].Key(), "$")
}

func parseOperators(path fieldpath.FieldPath, doc bsoncore.Document) ([]Operator, error) {
	elems, err := doc.Elements()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFilter, err)
	}

	ops := make([]Operator, 0, len(elems))
	for _, elem := range elems {
		op, err := parseOperator(path, elem.Key(), elem.Value())
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseOperator(path fieldpath.FieldPath, name string, v bsoncore.Value) (Operator, error) {
	switch name {
	case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		lit, err := parseLiteral(path, v)
		if err != nil {
			return nil, err
		}
		switch name {
		case "$eq":
			return &EqOperator{Value: lit}, nil
		case "$ne":
			return &NeOperator{Value: lit}, nil
		case "$gt":
			return &GtOperator{Value: lit}, nil
		case "$gte":
			return &GteOperator{Value: lit}, nil
		case "$lt":
			return &LtOperator{Value: lit}, nil
		default:
			return &LteOperator{Value: lit}, nil
		}
	case "$in", "$nin":
		lits, err := parseLiteralList(path, name, v)
		if err != nil {
			return nil, err
		}
		if name == "$in" {
			return &InOperator{Values: lits}, nil
		}
		return &NinOperator{Values: lits}, nil
	case "$exists":
		return &ExistsOperator{Exists: truthy(v)}, nil
	case "$not":
		if v.Type != bsontype.EmbeddedDocument || !isOperatorDocument(v.Document()) {
			return nil, fmt.Errorf("%w: $not at %q must be an operator document", errors.ErrInvalidFilter, path)
		}
		ops, err := parseOperators(path, v.Document())
		if err != nil {
			return nil, err
		}
		negated := make([]Operator, 0, len(ops))
		for _, op := range ops {
			n, err := negate(path, op)
			if err != nil {
				return nil, err
			}
			negated = append(negated, n)
		}
		return &NotOperator{Operators: negated}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operator %s at %q", errors.ErrInvalidFilter, name, path)
	}
}

// negate returns the exact negation of op.
func negate(path fieldpath.FieldPath, op Operator) (Operator, error) {
	switch op := op.(type) {
	case *EqOperator:
		return &NeOperator{Value: op.Value}, nil
	case *NeOperator:
		return &EqOperator{Value: op.Value}, nil
	case *InOperator:
		return &NinOperator{Values: op.Values}, nil
	case *NinOperator:
		return &InOperator{Values: op.Values}, nil
	case *ExistsOperator:
		return &ExistsOperator{Exists: !op.Exists}, nil
	default:
		return nil, fmt.Errorf("%w: cannot negate %s at %q", errors.ErrInvalidFilter, op, path)
	}
}

func parseLiteralList(path fieldpath.FieldPath, name string, v bsoncore.Value) ([]types.Value, error) {
	if v.Type != bsontype.Array {
		return nil, fmt.Errorf("%w: %s at %q must be an array, got %s", errors.ErrInvalidFilter, name, path, v.Type)
	}
	vals, err := v.Array().Values()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFilter, err)
	}
	lits := make([]types.Value, 0, len(vals))
	for _, elem := range vals {
		lit, err := parseLiteral(path, elem)
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
	}
	return lits, nil
}

// LiteralFromBSON converts v into a query literal. It returns an error
// wrapping [errors.ErrInvalidFilter] for types without a literal form.
func LiteralFromBSON(v bsoncore.Value) (types.Value, error) {
	switch v.Type {
	case bsontype.Null:
		return types.NullValue(), nil
	case bsontype.Boolean:
		return types.BoolValue(v.Boolean()), nil
	case bsontype.DateTime:
		return types.DateMillisValue(v.DateTime()), nil
	case bsontype.Int32:
		return types.Int64Value(int64(v.Int32())), nil
	case bsontype.Int64:
		return types.Int64Value(v.Int64()), nil
	case bsontype.Double:
		return types.DoubleValue(v.Double()), nil
	case bsontype.String:
		return types.StringValue(v.StringValue()), nil
	case bsontype.ObjectID:
		return types.ObjectIDValue(v.ObjectID()), nil
	case bsontype.Binary:
		subtype, data := v.Binary()
		if subtype == bsontype.BinaryUUID {
			u, err := uuid.FromBytes(data)
			if err != nil {
				return types.Value{}, fmt.Errorf("%w: %w", errors.ErrInvalidFilter, err)
			}
			return types.UUIDValue(u), nil
		}
	}
	return types.Value{}, fmt.Errorf("%w: unsupported literal of type %s", errors.ErrInvalidFilter, v.Type)
}

func parseLiteral(path fieldpath.FieldPath, v bsoncore.Value) (types.Value, error) {
	lit, err := LiteralFromBSON(v)
	if err != nil {
		return types.Value{}, fmt.Errorf("%w (path %q)", err, path)
	}
	return lit, nil
}

func truthy(v bsoncore.Value) bool {
	switch v.Type {
	case bsontype.Boolean:
		return v.Boolean()
	case bsontype.Int32:
		return v.Int32() != 0
	case bsontype.Int64:
		return v.Int64() != 0
	case bsontype.Double:
		return v.Double() != 0
	case bsontype.Null, bsontype.Undefined:
		return false
	default:
		return true
	}
}
