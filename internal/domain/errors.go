package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("not authorized")
	ErrForbidden          = errors.New("not authorized as admin")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user already exists")
	ErrDuplicateSKU       = errors.New("sku already exists")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrDuplicateRequest   = errors.New("duplicate request")
)

// ValidationError collects per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records the first message for a field.
func (v *ValidationError) Add(field, msg string) {
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = msg
	}
}

func (v *ValidationError) OrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, v.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}
