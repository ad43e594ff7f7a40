package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports score, range or consistency violations.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// PermissionError reports a field-lock or role violation.
type PermissionError struct {
	Field   string
	Message string
}

func NewPermissionError(field, msg string) error {
	return &PermissionError{Field: field, Message: msg}
}

func (err PermissionError) Error() string {
	return err.Message
}

// RangeError reports a value outside of its allowed bounds.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func NewRangeError(field string, value, min, max float64) error {
	return &RangeError{Field: field, Value: value, Min: min, Max: max}
}

func (err RangeError) Error() string {
	return fmt.Sprintf("%s must be greater than %g and at most %g (got %g)", err.Field, err.Min, err.Max, err.Value)
}

// TerminalStateError reports an edit attempted on a finalized record.
type TerminalStateError struct {
	Entity string
	ID     string
}

func NewTerminalStateError(entity, id string) error {
	return &TerminalStateError{Entity: entity, ID: id}
}

func (err TerminalStateError) Error() string {
	return fmt.Sprintf("%s %s is finalized and can no longer be modified", err.Entity, err.ID)
}

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsPermissionError(err error) bool {
	_, ok := errors.Cause(err).(*PermissionError)
	return ok
}

func IsRangeError(err error) bool {
	_, ok := errors.Cause(err).(*RangeError)
	return ok
}

func IsTerminalStateError(err error) bool {
	_, ok := errors.Cause(err).(*TerminalStateError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
