package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrCategoryHasProducts = errors.New("category has associated products")
	ErrProductHasOrders    = errors.New("product has been sold in orders")
	ErrCustomerHasOrders   = errors.New("customer has associated orders")
	ErrOrderNotDeletable   = errors.New("only pending or cancelled orders can be deleted")
)

// FieldErrors maps a field name to its validation messages
type FieldErrors map[string][]string

// ValidationError carries field-level constraint violations across the
// service boundary. Handlers render it as the envelope errors map.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// newValidationError builds an empty error to be filled via add
func newValidationError() *ValidationError {
	return &ValidationError{Fields: FieldErrors{}}
}

func (e *ValidationError) add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) hasErrors() bool {
	return len(e.Fields) > 0
}

// AsValidationError unwraps err into a *ValidationError when it is one
func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}
