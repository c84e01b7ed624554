// Package errors holds the sentinel errors shared by the mql packages. Callers
// wrap them with context and test with [errors.Is].
package errors

import "errors"

var (
	ErrInvalidRange   = errors.New("invalid range bound")
	ErrInvalidFilter  = errors.New("invalid filter")
	ErrEmptyClause    = errors.New("empty clause")
	ErrType           = errors.New("type error")
	ErrNotImplemented = errors.New("not implemented")
)
