package match

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/grafana/mqlmatch/pkg/mql/compare"
	"github.com/grafana/mqlmatch/pkg/mql/errors"
	"github.com/grafana/mqlmatch/pkg/mql/fieldpath"
	"github.com/grafana/mqlmatch/pkg/mql/pathmatch"
	"github.com/grafana/mqlmatch/pkg/mql/types"
)

// inequalityPolicy orders array operands of range operators by their
// extremal element.
const inequalityPolicy = compare.ArrayPolicyMin

// Predicate reports whether a document matches.
type Predicate func(doc bsoncore.Document) bool

// A Stage is a compiled [Clause]. Stages are immutable and safe for
// concurrent use.
type Stage struct {
	clause Clause
	pred   Predicate
}

// Compile compiles clause into a [Stage]. It returns an error wrapping
// [errors.ErrEmptyClause] if clause, a compound clause or an operator list
// anywhere in the tree is empty.
func Compile(clause Clause) (*Stage, error) {
	pred, err := compileClause(clause)
	if err != nil {
		return nil, err
	}
	return &Stage{clause: clause, pred: pred}, nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(clause Clause) *Stage {
	s, err := Compile(clause)
	if err != nil {
		panic(err)
	}
	return s
}

// Clause returns the clause s was compiled from.
func (s *Stage) Clause() Clause { return s.clause }

// Test reports whether doc matches. doc must be well-formed.
func (s *Stage) Test(doc bsoncore.Document) bool {
	return s.pred(doc)
}

// TestBytes reports whether the encoded document in b matches. Malformed
// documents never match.
func (s *Stage) TestBytes(b []byte) bool {
	doc := bsoncore.Document(b)
	if err := doc.Validate(); err != nil {
		return false
	}
	return s.pred(doc)
}

func (s *Stage) String() string { return s.clause.String() }

func compileClause(clause Clause) (Predicate, error) {
	switch c := clause.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil clause", errors.ErrEmptyClause)
	case *SimpleClause:
		if len(c.Operators) == 0 {
			return nil, fmt.Errorf("%w: no operators for path %q", errors.ErrEmptyClause, c.Path)
		}
		preds, err := compileOperators(c)
		if err != nil {
			return nil, err
		}
		return all(preds), nil
	case *AndClause:
		preds, err := compileClauses("$and", c.Clauses)
		if err != nil {
			return nil, err
		}
		return all(preds), nil
	case *OrClause:
		preds, err := compileClauses("$or", c.Clauses)
		if err != nil {
			return nil, err
		}
		return anyOf(preds), nil
	case *NorClause:
		preds, err := compileClauses("$nor", c.Clauses)
		if err != nil {
			return nil, err
		}
		or := anyOf(preds)
		return func(doc bsoncore.Document) bool { return !or(doc) }, nil
	default:
		panic(fmt.Sprintf("match: unexpected clause %T", clause))
	}
}

func compileClauses(name string, clauses []Clause) ([]Predicate, error) {
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: %s without clauses", errors.ErrEmptyClause, name)
	}
	preds := make([]Predicate, 0, len(clauses))
	for _, c := range clauses {
		pred, err := compileClause(c)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func compileOperators(c *SimpleClause) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(c.Operators))
	for _, op := range c.Operators {
		pred, err := compileOperator(c.Path, op)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func compileOperator(path fieldpath.FieldPath, op Operator) (Predicate, error) {
	matches := func(pred pathmatch.ValuePredicate) Predicate {
		return func(doc bsoncore.Document) bool { return pathmatch.Matches(doc, pred, path) }
	}

	switch op := op.(type) {
	case *GtOperator:
		return matches(inequality(op.Value.BSON(), func(c int) bool { return c > 0 })), nil
	case *GteOperator:
		return matches(inequality(op.Value.BSON(), func(c int) bool { return c >= 0 })), nil
	case *LtOperator:
		return matches(inequality(op.Value.BSON(), func(c int) bool { return c < 0 })), nil
	case *LteOperator:
		return matches(inequality(op.Value.BSON(), func(c int) bool { return c <= 0 })), nil
	case *EqOperator:
		return matches(equal(op.Value.BSON())), nil
	case *NeOperator:
		eq := matches(equal(op.Value.BSON()))
		return func(doc bsoncore.Document) bool { return !eq(doc) }, nil
	case *InOperator:
		return matches(in(op.Values)), nil
	case *NinOperator:
		anyIn := matches(in(op.Values))
		return func(doc bsoncore.Document) bool { return !anyIn(doc) }, nil
	case *ExistsOperator:
		exists := matches(notNull)
		expect := op.Exists
		return func(doc bsoncore.Document) bool { return exists(doc) == expect }, nil
	case *NotOperator:
		if len(op.Operators) == 0 {
			return nil, fmt.Errorf("%w: $not without operators for path %q", errors.ErrEmptyClause, path)
		}
		preds, err := compileOperators(&SimpleClause{Path: path, Operators: op.Operators})
		if err != nil {
			return nil, err
		}
		return all(preds), nil
	case nil:
		return nil, fmt.Errorf("%w: nil operator for path %q", errors.ErrEmptyClause, path)
	default:
		panic(fmt.Sprintf("match: unexpected operator %T", op))
	}
}

// inequality matches values in the bracket of operand whose comparison
// against operand satisfies test. Values of other brackets never match.
func inequality(operand bsoncore.Value, test func(int) bool) pathmatch.ValuePredicate {
	return func(v bsoncore.Value) bool {
		return compare.SameBracket(v, operand) && test(compare.Compare(v, operand, inequalityPolicy))
	}
}

func equal(operand bsoncore.Value) pathmatch.ValuePredicate {
	return func(v bsoncore.Value) bool {
		return compare.Equal(v, operand)
	}
}

func in(values []types.Value) pathmatch.ValuePredicate {
	operands := make([]bsoncore.Value, 0, len(values))
	for _, v := range values {
		operands = append(operands, v.BSON())
	}
	return func(v bsoncore.Value) bool {
		for _, operand := range operands {
			if compare.Equal(v, operand) {
				return true
			}
		}
		return false
	}
}

func notNull(v bsoncore.Value) bool {
	return v.Type != bsontype.Null
}

func all(preds []Predicate) Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return func(doc bsoncore.Document) bool {
		for _, pred := range preds {
			if !pred(doc) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds []Predicate) Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return func(doc bsoncore.Document) bool {
		for _, pred := range preds {
			if pred(doc) {
				return true
			}
		}
		return false
	}
}
