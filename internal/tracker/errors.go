package tracker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound reports that no transaction carries the referenced id.
	// Callers in the edit path treat it as a silent no-op.
	ErrNotFound = errors.New("transaction not found")

	// ErrMalformedImport reports a bundle that failed structural
	// validation. No mutation happens when it is returned.
	ErrMalformedImport = errors.New("invalid import data format")
)

// ValidationError carries the first failing message per invalid field. It is
// user-correctable and surfaced per-field at the boundary, never fatal.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// AsValidationError unwraps err into a ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
