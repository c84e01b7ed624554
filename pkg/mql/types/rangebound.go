package types

import (
	"fmt"
	"strings"

	"github.com/grafana/mqlmatch/pkg/mql/errors"
)

// RangeBound is an interval over points of a single type. A nil bound is
// unbounded on that side. RangeBounds are immutable and must be created with
// [NewRangeBound] or one of its helpers.
type RangeBound[P Point] struct {
	lower, upper                   *P
	lowerInclusive, upperInclusive bool
}

// NewRangeBound validates and returns a [RangeBound]. It returns an error
// wrapping [errors.ErrInvalidRange] if:
//
//   - lower and upper are points of different types,
//   - lower is greater than upper, or
//   - lower equals upper and either side is exclusive.
//
// Bounds that compare equal because they are NaN are accepted with any
// inclusivity, since NaN does not meaningfully equal anything. Invalid input
// is never repaired.
func NewRangeBound[P Point](lower, upper *P, lowerInclusive, upperInclusive bool) (RangeBound[P], error) {
	rb := RangeBound[P]{
		lower:          lower,
		upper:          upper,
		lowerInclusive: lowerInclusive,
		upperInclusive: upperInclusive,
	}
	if lower == nil || upper == nil {
		return rb, nil
	}

	lp, up := Point(*lower), Point(*upper)
	if lp.Type() != up.Type() {
		return RangeBound[P]{}, fmt.Errorf("%w: lower bound %s and upper bound %s have different types", errors.ErrInvalidRange, lp.Type(), up.Type())
	}

	switch c := ComparePoints(lp, up); {
	case c > 0:
		return RangeBound[P]{}, fmt.Errorf("%w: lower bound %s is greater than upper bound %s", errors.ErrInvalidRange, lp, up)
	case c == 0 && !(lowerInclusive && upperInclusive) && !IsNaN(lp) && !IsNaN(up):
		return RangeBound[P]{}, fmt.Errorf("%w: equal bounds %s must both be inclusive", errors.ErrInvalidRange, lp)
	}
	return rb, nil
}

// GreaterThan returns the range (p, ∞).
func GreaterThan[P Point](p P) RangeBound[P] {
	return RangeBound[P]{lower: &p}
}

// AtLeast returns the range [p, ∞).
func AtLeast[P Point](p P) RangeBound[P] {
	return RangeBound[P]{lower: &p, lowerInclusive: true}
}

// LessThan returns the range (-∞, p).
func LessThan[P Point](p P) RangeBound[P] {
	return RangeBound[P]{upper: &p}
}

// AtMost returns the range (-∞, p].
func AtMost[P Point](p P) RangeBound[P] {
	return RangeBound[P]{upper: &p, upperInclusive: true}
}

// Between returns the validated range between lower and upper.
func Between[P Point](lower, upper P, lowerInclusive, upperInclusive bool) (RangeBound[P], error) {
	return NewRangeBound(&lower, &upper, lowerInclusive, upperInclusive)
}

// Lower returns the lower bound of r, if any.
func (r RangeBound[P]) Lower() (p P, ok bool) {
	if r.lower == nil {
		return p, false
	}
	return *r.lower, true
}

// Upper returns the upper bound of r, if any.
func (r RangeBound[P]) Upper() (p P, ok bool) {
	if r.upper == nil {
		return p, false
	}
	return *r.upper, true
}

// LowerInclusive reports whether the lower bound is part of r.
func (r RangeBound[P]) LowerInclusive() bool { return r.lowerInclusive }

// UpperInclusive reports whether the upper bound is part of r.
func (r RangeBound[P]) UpperInclusive() bool { return r.upperInclusive }

// Contains reports whether p lies within r. It panics if p is of a different
// type than the bounds of r.
func (r RangeBound[P]) Contains(p P) bool {
	if r.lower != nil {
		c := ComparePoints(*r.lower, p)
		if c > 0 || (c == 0 && !r.lowerInclusive) {
			return false
		}
	}
	if r.upper != nil {
		c := ComparePoints(p, *r.upper)
		if c > 0 || (c == 0 && !r.upperInclusive) {
			return false
		}
	}
	return true
}

// String returns r in interval notation, for example "[5, 10)".
func (r RangeBound[P]) String() string {
	var sb strings.Builder
	if r.lower != nil && r.lowerInclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if r.lower != nil {
		sb.WriteString(Point(*r.lower).String())
	} else {
		sb.WriteString("-inf")
	}
	sb.WriteString(", ")
	if r.upper != nil {
		sb.WriteString(Point(*r.upper).String())
	} else {
		sb.WriteString("inf")
	}
	if r.upper != nil && r.upperInclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}
