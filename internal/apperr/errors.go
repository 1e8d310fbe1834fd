// Package apperr holds the error taxonomy shared by the analysis engine, the job scheduler and the HTTP layer.
//
// Every error carries a stable Code so that job metadata and API responses can report a machine-readable
// reason next to the human-readable message. Use errors.As (or CodeOf) to recover the concrete type.
package apperr

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

const (
	CodeInvalidInput        = "invalid_input"
	CodeRateNotFound        = "rate_not_found"
	CodeProviderUnavailable = "provider_unavailable"
	CodeConcurrencyLimit    = "concurrency_limit"
	CodeStateConflict       = "state_conflict"
	CodeNotFound            = "not_found"
	CodeInternal            = "internal"
)

// InvalidInputError is the caller's fault: bad configuration or product data. Never retried.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

func (e *InvalidInputError) Code() string { return CodeInvalidInput }

// RateLookupError means the provider answered but holds no rate for the key. Permanent for that key.
type RateLookupError struct {
	HSCode      string
	Origin      string
	Destination string
	Message     string
}

func (e *RateLookupError) Error() string {
	s := fmt.Sprintf("rate not found for hs=%s origin=%s destination=%s", e.HSCode, e.Origin, e.Destination)
	if e.Message != "" {
		s += "; " + e.Message
	}
	return s
}

func (e *RateLookupError) Code() string { return CodeRateNotFound }

// ProviderUnavailableError is transient: transport failure, 5xx, or a per-call timeout.
type ProviderUnavailableError struct {
	Provider string
	Cause    error
}

func (e *ProviderUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rate provider %s unavailable: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("rate provider %s unavailable", e.Provider)
}

func (e *ProviderUnavailableError) Code() string { return CodeProviderUnavailable }

func (e *ProviderUnavailableError) Unwrap() error { return e.Cause }

// ConcurrencyLimitError signals that the pool is full. The job stays pending; callers never see it.
type ConcurrencyLimitError struct {
	Running int
	Limit   int
}

func (e *ConcurrencyLimitError) Error() string {
	return fmt.Sprintf("concurrency limit reached (%d/%d running)", e.Running, e.Limit)
}

func (e *ConcurrencyLimitError) Code() string { return CodeConcurrencyLimit }

// StateConflictError is returned for a transition that is not allowed from the current state.
type StateConflictError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %q to %q", e.Entity, e.ID, e.From, e.To)
}

func (e *StateConflictError) Code() string { return CodeStateConflict }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Code() string { return CodeNotFound }

func Invalid(field, format string, args ...any) error {
	return errors.WithStack(&InvalidInputError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func Conflict(entity, id, from, to string) error {
	return errors.WithStack(&StateConflictError{Entity: entity, ID: id, From: from, To: to})
}

func NotFound(entity, id string) error {
	return errors.WithStack(&NotFoundError{Entity: entity, ID: id})
}

type coded interface {
	Code() string
}

// CodeOf returns the code of the first coded error in the chain, or CodeInternal.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var c coded
	if stderrors.As(err, &c) {
		return c.Code()
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return CodeProviderUnavailable
	}
	return CodeInternal
}

// IsRetryable reports whether a job that failed with err may be re-queued.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidInput, CodeStateConflict, CodeNotFound:
		return false
	default:
		return true
	}
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound, CodeRateNotFound:
		return http.StatusNotFound
	case CodeStateConflict:
		return http.StatusConflict
	case CodeProviderUnavailable:
		return http.StatusBadGateway
	case CodeConcurrencyLimit:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}
