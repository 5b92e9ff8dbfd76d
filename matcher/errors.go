package matcher

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCatalog is returned when no employee records remain after normalization.
	ErrEmptyCatalog = errors.New("employee catalog is empty")
	// ErrEmptyInput is returned when there are no usernames to resolve.
	ErrEmptyInput = errors.New("username list is empty")
	// ErrModelUnavailable means the tie-break classifier is not loaded.
	ErrModelUnavailable = errors.New("tie-break model unavailable")
)

// SchemaError reports canonical fields that could not be resolved from the
// input columns.
type SchemaError struct {
	Missing []string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns %s (have %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Columns, ", "))
}

// IsInputError reports whether err was caused by the caller's input files
// rather than by the engine or its environment.
func IsInputError(err error) bool {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return true
	}
	return errors.Is(err, ErrEmptyCatalog) || errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrEmptyTable)
}
