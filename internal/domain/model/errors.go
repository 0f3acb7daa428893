package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared across layers. Match with errors.Is.
var (
	ErrInvalidUsername   = errors.New("invalid username")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrNotFound          = errors.New("user not found")
	ErrDataFormat        = errors.New("malformed upstream data")
	ErrTemplateMissing   = errors.New("template missing")
	ErrNetworkTimeout    = errors.New("network timeout")
	ErrRegionMissing     = errors.New("template region missing")
)

// OpError ties an error kind to the operation that produced it.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *OpError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// WrapKind annotates err with op and kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Kind: kind, Err: err}
}
