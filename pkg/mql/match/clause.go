// Package match compiles mql filter clauses into predicates over raw BSON
// documents.
//
// A [Clause] tree is compiled once per query with [Compile]. The resulting
// [Stage] is immutable and may be evaluated concurrently against any number
// of documents.
package match

import (
	"fmt"
	"strings"

	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
	"github.com/grafana/mqlmatch/pkg/mql/types"
)

// Clause is a node of a filter tree.
type Clause interface {
	fmt.Stringer
	isClause()
}

// Types implementing [Clause].
type (
	// SimpleClause holds when every operator holds for the values at Path.
	SimpleClause struct {
		Path      fieldpath.FieldPath
		Operators []Operator
	}

	// AndClause holds when every child clause holds.
	AndClause struct{ Clauses []Clause }

	// OrClause holds when any child clause holds.
	OrClause struct{ Clauses []Clause }

	// NorClause holds when no child clause holds.
	NorClause struct{ Clauses []Clause }
)

func (*SimpleClause) isClause() {}
func (*AndClause) isClause()    {}
func (*OrClause) isClause()     {}
func (*NorClause) isClause()    {}

func (c *SimpleClause) String() string {
	return fmt.Sprintf("%s: %s", c.Path, joinOperators(c.Operators))
}

func (c *AndClause) String() string { return "$and" + joinClauses(c.Clauses) }
func (c *OrClause) String() string  { return "$or" + joinClauses(c.Clauses) }
func (c *NorClause) String() string { return "$nor" + joinClauses(c.Clauses) }

func joinClauses(clauses []Clause) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		parts = append(parts, "{"+c.String()+"}")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Operator is a condition on the values at a path.
type Operator interface {
	fmt.Stringer
	isOperator()
}

// Types implementing [Operator].
type (
	// GtOperator holds for values greater than Value in the same type bracket.
	GtOperator struct{ Value types.Value }

	// GteOperator holds for values greater than or equal to Value in the same
	// type bracket.
	GteOperator struct{ Value types.Value }

	// LtOperator holds for values less than Value in the same type bracket.
	LtOperator struct{ Value types.Value }

	// LteOperator holds for values less than or equal to Value in the same
	// type bracket.
	LteOperator struct{ Value types.Value }

	// EqOperator holds for values equal to Value. A missing field equals null.
	EqOperator struct{ Value types.Value }

	// NeOperator holds for documents where no value equals Value.
	NeOperator struct{ Value types.Value }

	// InOperator holds for values equal to any of Values.
	InOperator struct{ Values []types.Value }

	// NinOperator holds for documents where no value equals any of Values.
	NinOperator struct{ Values []types.Value }

	// NotOperator holds the already negated form of a set of operators. It
	// holds when every one of Operators holds; Operators are not negated
	// again.
	NotOperator struct{ Operators []Operator }

	// ExistsOperator holds when the presence of a non-null value at the path
	// equals Exists.
	ExistsOperator struct{ Exists bool }
)

func (*GtOperator) isOperator()     {}
func (*GteOperator) isOperator()    {}
func (*LtOperator) isOperator()     {}
func (*LteOperator) isOperator()    {}
func (*EqOperator) isOperator()     {}
func (*NeOperator) isOperator()     {}
func (*InOperator) isOperator()     {}
func (*NinOperator) isOperator()    {}
func (*NotOperator) isOperator()    {}
func (*ExistsOperator) isOperator() {}

func (op *GtOperator) String() string     { return "$gt: " + formatValue(op.Value) }
func (op *GteOperator) String() string    { return "$gte: " + formatValue(op.Value) }
func (op *LtOperator) String() string     { return "$lt: " + formatValue(op.Value) }
func (op *LteOperator) String() string    { return "$lte: " + formatValue(op.Value) }
func (op *EqOperator) String() string     { return "$eq: " + formatValue(op.Value) }
func (op *NeOperator) String() string     { return "$ne: " + formatValue(op.Value) }
func (op *InOperator) String() string     { return "$in: " + formatValues(op.Values) }
func (op *NinOperator) String() string    { return "$nin: " + formatValues(op.Values) }
func (op *NotOperator) String() string    { return "$not: " + joinOperators(op.Operators) }
func (op *ExistsOperator) String() string { return fmt.Sprintf("$exists: %t", op.Exists) }

// Bounds returns the range of points matched by op.
func (op *GtOperator) Bounds() (types.RangeBound[types.Point], error) {
	return bounds(op.Value, types.GreaterThan[types.Point])
}

// Bounds returns the range of points matched by op.
func (op *GteOperator) Bounds() (types.RangeBound[types.Point], error) {
	return bounds(op.Value, types.AtLeast[types.Point])
}

// Bounds returns the range of points matched by op.
func (op *LtOperator) Bounds() (types.RangeBound[types.Point], error) {
	return bounds(op.Value, types.LessThan[types.Point])
}

// Bounds returns the range of points matched by op.
func (op *LteOperator) Bounds() (types.RangeBound[types.Point], error) {
	return bounds(op.Value, types.AtMost[types.Point])
}

func bounds(v types.Value, fn func(types.Point) types.RangeBound[types.Point]) (types.RangeBound[types.Point], error) {
	p, err := types.PointFromValue(v)
	if err != nil {
		return types.RangeBound[types.Point]{}, err
	}
	return fn(p), nil
}

func joinOperators(ops []Operator) string {
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		parts = append(parts, op.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatValue(v types.Value) string {
	if v.Type() == types.ValueTypeString {
		return fmt.Sprintf("%q", v.String())
	}
	return v.String()
}

func formatValues(vs []types.Value) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, formatValue(v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
