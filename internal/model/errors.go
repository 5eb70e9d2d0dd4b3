package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks across the typed errors below.
var (
	ErrValidation = errors.New("invalid input")
	ErrCapacity   = errors.New("part exceeds tube capacity")
	ErrInvariant  = errors.New("internal invariant violation")
	ErrLoad       = errors.New("cannot load part table")
)

// ValidationError reports a malformed part record or setting.
type ValidationError struct {
	Part   string
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Part == "" {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("part %q: invalid %s %v: %s", e.Part, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// CapacityError reports a part that can never fit in any tube.
type CapacityError struct {
	Part     string
	Length   float64
	Capacity float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("part %q: length %g exceeds tube capacity %g", e.Part, e.Length, e.Capacity)
}

// Is matches ErrCapacity and, since an oversized part is still bad input, ErrValidation.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity || target == ErrValidation
}

// InvariantViolation signals a solver defect caught by the validator.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return "internal invariant violation: " + e.Detail
}

func (e *InvariantViolation) Is(target error) bool { return target == ErrInvariant }

// LoadError reports a part table that could not be read completely.
type LoadError struct {
	Path     string
	Problems []string
	Err      error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot load %s", e.Path)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Problems) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Problems, "; "))
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }
