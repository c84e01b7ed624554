// Package numeric implements exact ordering between the numeric BSON
// representations: 64-bit integers, doubles and decimal128 values.
//
// Comparisons are by mathematical value. NaN sorts below every other number
// and is equal to any other NaN, regardless of representation or sign. Signed
// zeros compare equal.
package numeric

import (
	"fmt"
	"math"
	"math/big"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind is the representation of a [Number].
type Kind uint8

const (
	KindInt64 Kind = iota
	KindDouble
	KindDecimal128
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	case KindDecimal128:
		return "decimal128"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Number is a numeric value in one of the supported representations. Int32
// values are represented as [KindInt64].
type Number struct {
	kind Kind
	i    int64
	f    float64
	d    primitive.Decimal128
}

// Int64 returns a [Number] holding v.
func Int64(v int64) Number { return Number{kind: KindInt64, i: v} }

// Float64 returns a [Number] holding v.
func Float64(v float64) Number { return Number{kind: KindDouble, f: v} }

// Decimal128 returns a [Number] holding v.
func Decimal128(v primitive.Decimal128) Number { return Number{kind: KindDecimal128, d: v} }

// Kind returns the representation of n.
func (n Number) Kind() Kind { return n.kind }

// IsNaN reports whether n is a NaN of any representation.
func (n Number) IsNaN() bool { return n.class() == classNaN }

// Ordering classes. Values in different classes order by class; values in
// the same non-finite class are equal.
const (
	classNaN = iota
	classNegInf
	classFinite
	classPosInf
)

func (n Number) class() int {
	switch n.kind {
	case KindInt64:
		return classFinite
	case KindDouble:
		switch {
		case math.IsNaN(n.f):
			return classNaN
		case math.IsInf(n.f, -1):
			return classNegInf
		case math.IsInf(n.f, 1):
			return classPosInf
		}
		return classFinite
	case KindDecimal128:
		switch {
		case n.d.IsNaN():
			return classNaN
		case n.d.IsInf() < 0:
			return classNegInf
		case n.d.IsInf() > 0:
			return classPosInf
		}
		return classFinite
	default:
		panic(fmt.Sprintf("numeric: unexpected kind %s", n.kind))
	}
}

// Compare returns -1, 0 or 1 depending on whether a is less than, equal to,
// or greater than b.
func Compare(a, b Number) int {
	ac, bc := a.class(), b.class()
	if ac != bc {
		return sign(ac - bc)
	}
	if ac != classFinite {
		return 0
	}

	switch {
	case a.kind == KindInt64 && b.kind == KindInt64:
		return compareInt64(a.i, b.i)
	case a.kind == KindDouble && b.kind == KindDouble:
		return CompareFloat64(a.f, b.f)
	case a.kind == KindInt64 && b.kind == KindDouble:
		return CompareInt64Float64(a.i, b.f)
	case a.kind == KindDouble && b.kind == KindInt64:
		return -CompareInt64Float64(b.i, a.f)
	default:
		return a.rat().Cmp(b.rat())
	}
}

// rat returns the exact value of a finite n.
func (n Number) rat() *big.Rat {
	switch n.kind {
	case KindInt64:
		return new(big.Rat).SetInt64(n.i)
	case KindDouble:
		return new(big.Rat).SetFloat64(n.f)
	case KindDecimal128:
		coefficient, exp, err := n.d.BigInt()
		if err != nil {
			// Only returned for NaN and infinities, which are not finite.
			panic(fmt.Sprintf("numeric: decimal128 %s is not finite: %v", n.d, err))
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(exp))), nil)
		if exp >= 0 {
			return new(big.Rat).SetInt(coefficient.Mul(coefficient, scale))
		}
		return new(big.Rat).SetFrac(coefficient, scale)
	default:
		panic(fmt.Sprintf("numeric: unexpected kind %s", n.kind))
	}
}

// CompareFloat64 orders two doubles with NaN below every other value and
// equal to itself. -0.0 and +0.0 are equal.
func CompareFloat64(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Bounds of the int64 range as doubles. 2^63 is exactly representable;
// math.MaxInt64 is not.
const (
	twoTo63       = float64(1 << 63)
	minusTwoTo63  = -twoTo63
	maxSafeDouble = 1 << 53
)

// CompareInt64Float64 compares i and f exactly, without converting i to a
// double. A NaN f is less than every i.
func CompareInt64Float64(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f >= twoTo63:
		return -1
	case f < minusTwoTo63:
		return 1
	}

	// Fast path: both sides are exactly representable as doubles.
	if i > -maxSafeDouble && i < maxSafeDouble {
		return CompareFloat64(float64(i), f)
	}

	whole := math.Trunc(f)
	if c := compareInt64(i, int64(whole)); c != 0 {
		return c
	}
	switch frac := f - whole; {
	case frac > 0:
		return -1
	case frac < 0:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
