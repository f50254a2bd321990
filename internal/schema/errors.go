package schema

import (
	"errors"
	"fmt"
)

// ErrSchema is the root of every schema failure.
var ErrSchema = errors.New("schema error")

// Specific schema failure kinds. Each *SchemaError matches both ErrSchema
// and exactly one of these.
var (
	ErrUnknownKey       = errors.New("unknown parameter")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrMissingParameter = errors.New("missing parameter")
	ErrMissingDefault   = errors.New("missing default")
	ErrAlreadyDeclared  = errors.New("parameter already declared")
	ErrNotDeclared      = errors.New("parameter not declared")
	ErrReservedName     = errors.New("reserved parameter name")
)

// SchemaError describes a rejected cast or declaration change.
type SchemaError struct {
	Kind   error
	Param  string
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.Param)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() []error {
	errs := []error{ErrSchema, e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newSchemaError(kind error, param, detail string, cause error) *SchemaError {
	return &SchemaError{Kind: kind, Param: param, Detail: detail, Err: cause}
}
