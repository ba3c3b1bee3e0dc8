// Package errors provides custom error types for the shelfsync system.
// These errors enable programmatic error checking with errors.Is and errors.As
// across the fetch, reconcile, and store layers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join re-export the standard library helpers so callers only
// need to import one errors package.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the shelfsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingDiscriminator indicates an entity arrived without a type discriminator
	ErrMissingDiscriminator = errors.New("missing discriminator")

	// ErrUnsupportedDiscriminator indicates an entity type that cannot be tagged
	ErrUnsupportedDiscriminator = errors.New("unsupported discriminator")

	// ErrRemoteFetch indicates a failure talking to the remote catalog API
	ErrRemoteFetch = errors.New("remote fetch failed")

	// ErrStore indicates a failure reading or writing the document store
	ErrStore = errors.New("document store failure")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// DiscriminatorError is returned when an entity's type discriminator is
// absent or names a kind that has no document type.
type DiscriminatorError struct {
	Value    string // discriminator as received, empty when missing
	SourceID string
}

// Error implements the error interface
func (e *DiscriminatorError) Error() string {
	if e.Value == "" {
		if e.SourceID != "" {
			return fmt.Sprintf("entity %s has no type discriminator", e.SourceID)
		}
		return "entity has no type discriminator"
	}
	return fmt.Sprintf("unsupported entity type %q", e.Value)
}

// Is implements errors.Is support
func (e *DiscriminatorError) Is(target error) bool {
	if e.Value == "" {
		return target == ErrMissingDiscriminator
	}
	return target == ErrUnsupportedDiscriminator
}

// RemoteFetchError represents a failure fetching pages or single entities
// from the remote catalog API.
type RemoteFetchError struct {
	Operation  string // "page", "handle"
	Kind       string // "product", "collection"
	Ref        string // cursor or handle, when known
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *RemoteFetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch %s %s", e.Kind, e.Operation)
	if e.Ref != "" {
		fmt.Fprintf(&b, " %q", e.Ref)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	switch {
	case e.Message != "":
		b.WriteString(": " + e.Message)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap implements errors.Unwrap
func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RemoteFetchError) Is(target error) bool {
	switch target {
	case ErrRemoteFetch:
		return true
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// StoreError represents a failure during a document store operation.
type StoreError struct {
	Operation string // "lookup", "create", "patch"
	Type      string
	Key       string // source id or document id
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %s %s: %v", e.Operation, e.Type, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Operation, e.Type, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, docType, key string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Type:      docType,
		Key:       key,
		Err:       err,
	}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsDiscriminator checks if an error came from type tagging
func IsDiscriminator(err error) bool {
	return errors.Is(err, ErrMissingDiscriminator) || errors.Is(err, ErrUnsupportedDiscriminator)
}

// IsRemoteFetch checks if an error came from the remote catalog API
func IsRemoteFetch(err error) bool {
	return errors.Is(err, ErrRemoteFetch)
}

// IsStore checks if an error came from the document store
func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Helper wrapping functions for common patterns

// WrapStore wraps an error as a StoreError
func WrapStore(operation, docType, key string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, docType, key, err)
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}
