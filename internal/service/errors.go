package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrReportNotReady   = errors.New("report not ready")
	ErrTranscriptFrozen = errors.New("transcript frozen: profile already generated")
)

// ValidationError lleva el detalle por campo. errors.Is(err, ErrValidation) es true.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// add acumula un campo; se usa con validaciones de varios campos.
func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = reason
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
