package compiler

import (
	"errors"
	"fmt"
)

// ErrNotFound matches both ModelNotFoundError and InvalidReferenceError
// under errors.Is. Callers at the service boundary treat it as absence.
var ErrNotFound = errors.New("not found")

// ErrNoSelections is returned for a request that selects no columns.
var ErrNoSelections = errors.New("query selects no columns")

// ModelNotFoundError reports an unresolvable (domain, model) pair.
type ModelNotFoundError struct {
	DomainID string
	ModelID  string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not found in domain %q", e.ModelID, e.DomainID)
}

func (e *ModelNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidReferenceError reports a reference to something the resolved model
// does not contain.
type InvalidReferenceError struct {
	Kind string // "selection", "condition", "order", "parameter", "aggregation"
	Ref  string
	Err  error
}

func (e *InvalidReferenceError) Error() string {
	msg := fmt.Sprintf("invalid %s reference %s", e.Kind, e.Ref)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *InvalidReferenceError) Unwrap() error {
	return e.Err
}

// MixedConstraintError reports a disjunction between aggregated and plain
// constraints whose plain column is not grouped, so it has no single value
// per output row.
type MixedConstraintError struct {
	Ref string
}

func (e *MixedConstraintError) Error() string {
	return fmt.Sprintf("column %s is combined with an aggregate by OR but is not grouped", e.Ref)
}
