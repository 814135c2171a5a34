package colquery

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fixed-shape error kinds that carry no extra
// data; callers should use errors.Is against these, and errors.As
// against the typed variants below for the ones that carry fields.
var (
	// ErrEmptySequence is returned by First/Single/Min/Max/Average when
	// the selection is empty. FirstOrDefault/SingleOrDefault never
	// return it.
	ErrEmptySequence = errors.New("colquery: empty sequence")

	// ErrMultipleElements is returned by Single/SingleOrDefault when
	// more than one row satisfies the predicates.
	ErrMultipleElements = errors.New("colquery: sequence contains more than one matching element")
)

// ColumnNotFoundError is raised during plan execution when a predicate
// or selector references a column that cannot be resolved against the
// batch's schema.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("colquery: column not found: %q", e.Name)
}

// UnsupportedExpressionError is raised at query execution time in
// strict mode when the analyzed plan is not fully optimized.
type UnsupportedExpressionError struct {
	Reason string
}

func (e *UnsupportedExpressionError) Error() string {
	return fmt.Sprintf("colquery: unsupported expression: %s", e.Reason)
}

// UnsupportedResultShapeError is raised when the requested result type
// does not match any of the executor's handled shapes.
type UnsupportedResultShapeError struct {
	Shape string
}

func (e *UnsupportedResultShapeError) Error() string {
	return fmt.Sprintf("colquery: unsupported result shape: %s", e.Shape)
}

// DictionaryKeyTypeMismatchError is raised when a ToDictionary result's
// key type does not match the group key's actual type.
type DictionaryKeyTypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *DictionaryKeyTypeMismatchError) Error() string {
	return fmt.Sprintf("colquery: dictionary key type mismatch: expected %s, got %s", e.Expected, e.Actual)
}
