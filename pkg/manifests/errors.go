package manifests

import (
	"errors"
	"strings"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

var (
	// ErrMissingParam is returned when a required argument is empty.
	ErrMissingParam = errors.New("missing required parameter")
	// ErrIO wraps unexpected filesystem failures.
	ErrIO = errors.New("filesystem failure")
)

// ValidationError carries every schema violation of a rejected record.
type ValidationError struct {
	Violations []catalog.Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "invalid record: " + strings.Join(parts, "; ")
}

type ioError struct {
	op  string
	err error
}

func (e *ioError) Error() string { return e.op + ": " + e.err.Error() }

func (e *ioError) Unwrap() []error { return []error{ErrIO, e.err} }

func wrapIO(op string, err error) error {
	return &ioError{op: op, err: err}
}
