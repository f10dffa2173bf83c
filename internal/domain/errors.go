package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

var (
	// ErrPermanent marks a per-event failure that must never be retried
	ErrPermanent = errors.New("permanent failure")

	// ErrTransient marks an infrastructure failure worth retrying
	ErrTransient = errors.New("transient failure")

	// ErrMissingAttribute is returned when a required event attribute is absent
	ErrMissingAttribute = errors.New("missing event attribute")

	// ErrListingNotFound is returned when an action requires a live listing
	ErrListingNotFound = errors.New("listing not found")

	// ErrOfferNotFound is returned when an action requires a standing offer
	ErrOfferNotFound = errors.New("offer not found")

	// ErrInvalidAttribute is returned when an attribute cannot be parsed
	ErrInvalidAttribute = errors.New("invalid event attribute")

	// ErrSubscriptionFailed is returned when subscription to events fails
	ErrSubscriptionFailed = errors.New("subscription failed")
)

// Status is the outcome of applying one event
type Status string

const (
	StatusSuccess   Status = "success"
	StatusPermanent Status = "permanent"
	StatusTransient Status = "transient"
)

// Result is returned by handlers to the drivers, which decide retry, skip or ledger
type Result struct {
	Status Status
	// Duplicate is set when the event had already been applied
	Duplicate bool
	Err       error
}

// Success returns a successful result
func Success() Result {
	return Result{Status: StatusSuccess}
}

// DuplicateResult returns a successful result for an event that was already applied
func DuplicateResult() Result {
	return Result{Status: StatusSuccess, Duplicate: true}
}

// Permanent returns a non-retryable result
func Permanent(err error) Result {
	return Result{Status: StatusPermanent, Err: err}
}

// Transient returns a retryable result
func Transient(err error) Result {
	return Result{Status: StatusTransient, Err: err}
}

// ResultFromError maps an error into a Result using IsPermanent
func ResultFromError(err error) Result {
	if err == nil {
		return Success()
	}
	if IsPermanent(err) {
		return Permanent(err)
	}
	return Transient(err)
}

// OK reports whether the result is a success
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Message returns the error message of a failed result
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// NewPermanentError wraps a formatted message with ErrPermanent and a cause sentinel
func NewPermanentError(cause error, format string, args ...interface{}) error {
	return &permanentError{cause: cause, msg: fmt.Sprintf(format, args...)}
}

type permanentError struct {
	cause error
	msg   string
}

func (e *permanentError) Error() string {
	return e.msg
}

func (e *permanentError) Is(target error) bool {
	return target == ErrPermanent || (e.cause != nil && errors.Is(e.cause, target))
}

func (e *permanentError) Unwrap() error {
	return e.cause
}

// MissingAttribute builds the permanent error for a missing required attribute
func MissingAttribute(action Action, txHash string) error {
	return NewPermanentError(ErrMissingAttribute, "missing event attribute in %s: %s", action, txHash)
}

// IsPermanent reports whether err must not be retried.
// Anything that is not explicitly permanent is treated as transient.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return false
	}
	return errors.Is(err, ErrPermanent)
}

// IsRetryable reports whether err looks like a network or rate-limit failure
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "too many requests", "502", "503", "504", "timeout", "connection reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
