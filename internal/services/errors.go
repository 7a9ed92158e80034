package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"blogapi/internal/policy"
)

var (
	ErrUnauthenticated = policy.ErrUnauthenticated
	ErrForbidden       = policy.ErrForbidden
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// NotFoundError names the missing resource. errors.Is(err, ErrNotFound) holds.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return strings.ToLower(e.Resource) + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ValidationError carries field level messages. Conflicts on unique columns
// are reported through it as well, with Conflict set.
type ValidationError struct {
	Fields   map[string][]string
	Conflict bool
}

func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{Fields: map[string][]string{}}
	v.Add(field, message)
	return v
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrConflict && e.Conflict
}

func conflict(field, message string) error {
	v := NewValidationError(field, message)
	v.Conflict = true
	return v
}
