package container

import (
	"fmt"
)

// NotFoundError reports a name absent from one specific namespace
// (metadata column, feature, embedding, assay, or observation).
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// VariableNotFoundError reports a name that resolved against none of the
// three searchable namespaces. It names all of them so callers can give
// one consistent error message.
type VariableNotFoundError struct {
	Name string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found in metadata columns, feature names, or embedding names", e.Name)
}

// ShapeMismatchError reports a length or dimensionality mismatch between
// caller-supplied data and the container's observation set.
type ShapeMismatchError struct {
	What string
	Got  int
	Want int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: got length %d, want %d", e.What, e.Got, e.Want)
}

// TypeMismatchError reports a categorical value used where a numeric one
// is structurally required, or vice versa.
type TypeMismatchError struct {
	Name string
	Got  ColumnKind
	Want ColumnKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q is %s, want %s", e.Name, e.Got, e.Want)
}
