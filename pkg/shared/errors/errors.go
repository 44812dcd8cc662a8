// Package errors provides a small set of typed, wrapped errors used across
// the verification pipeline's I/O boundaries (OCR, LLM, registry, blob,
// queue, storage). It complements github.com/go-faster/errors, which is
// used directly for stack-trace-carrying wraps at those same boundaries.
package errors

import (
	"fmt"
	"strings"

	goerrors "github.com/go-faster/errors"
)

// OperationError describes a failed operation with optional component and
// resource context, and an optional underlying cause.
type OperationError struct {
	Operation string
	Component string
	Resource  string
	Cause     error
}

func (e *OperationError) Error() string {
	var b strings.Builder
	b.WriteString("failed to ")
	b.WriteString(e.Operation)
	if e.Component != "" {
		b.WriteString(", component: ")
		b.WriteString(e.Component)
	}
	if e.Resource != "" {
		b.WriteString(", resource: ")
		b.WriteString(e.Resource)
	}
	if e.Cause != nil {
		b.WriteString(", cause: ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// FailedTo builds an error reading "failed to <action>[: <cause>]".
func FailedTo(action string, cause error) error {
	if cause == nil {
		return &OperationError{Operation: action}
	}
	return goerrors.Wrap(cause, "failed to "+action)
}

// FailedToWithDetails builds an OperationError carrying component and
// resource context alongside the action and cause. The cause is stored
// as given, so Unwrap returns it unchanged.
func FailedToWithDetails(action, component, resource string, cause error) error {
	return &OperationError{
		Operation: action,
		Component: component,
		Resource:  resource,
		Cause:     cause,
	}
}

// Wrapf wraps err with an additional formatted message, returning nil if err
// is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// DatabaseError wraps a storage-layer failure.
func DatabaseError(operation string, cause error) error {
	return FailedToWithDetails(operation, "database", "", cause)
}

// NetworkError wraps a failed outbound call to endpoint.
func NetworkError(operation, endpoint string, cause error) error {
	return FailedToWithDetails(operation, "network", endpoint, cause)
}

// ValidationError reports that field failed validation with reason.
func ValidationError(field, reason string) error {
	return fmt.Errorf("validation failed for field %s: %s", field, reason)
}

// ConfigurationError reports an invalid configuration setting.
func ConfigurationError(setting, reason string) error {
	return fmt.Errorf("configuration error for setting %s: %s", setting, reason)
}

// TimeoutError reports that action timed out after d.
func TimeoutError(action, d string) error {
	return fmt.Errorf("timeout while %s after %s", action, d)
}

// AuthenticationError reports a failed authentication attempt.
func AuthenticationError(reason string) error {
	return fmt.Errorf("authentication failed: %s", reason)
}

// AuthorizationError reports that the caller lacked permission for action on
// resource.
func AuthorizationError(action, resource string) error {
	return fmt.Errorf("authorization failed: insufficient permissions to %s %s", action, resource)
}

// ParseError reports a failure to parse source as format.
func ParseError(source, format string, cause error) error {
	return FailedToWithDetails(fmt.Sprintf("parse %s as %s", source, format), "parser", "", cause)
}

// IsRetryable reports whether err looks like a transient condition worth
// retrying (timeout, connection refused, service unavailable). It is a
// best-effort text heuristic for errors returned by third-party clients that
// do not expose a typed retryable signal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "connection refused", "service unavailable", "temporarily unavailable", "eof"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Chain joins the non-nil errors in errs into a single error, or returns nil
// if none are non-nil.
func Chain(errs ...error) error {
	var msgs []string
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	switch len(msgs) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s", msgs[0])
	default:
		return fmt.Errorf("multiple errors: %s", strings.Join(msgs, "; "))
	}
}
