package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// Kind is the canonical failure taxonomy every provider result is mapped
// into. Classification drives retry eligibility.
type Kind string

const (
	KindAuthentication   Kind = "authentication"
	KindRateLimit        Kind = "rate_limit"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindTransientNetwork Kind = "transient_network"
	KindPermanent        Kind = "permanent"
)

type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Raw        json.RawMessage
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
}

func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindTransientNetwork
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// AsError extracts the canonical provider error, if any.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	pe, ok := AsError(err)
	return ok && pe.Kind == kind
}

func IsNotFound(err error) bool       { return IsKind(err, KindNotFound) }
func IsAuthentication(err error) bool { return IsKind(err, KindAuthentication) }

// Retryable reports whether an error is worth another attempt. Errors that
// never went through classification are treated as transient, since an
// unclassified failure at this layer is a transport problem.
func Retryable(err error) bool {
	if pe, ok := AsError(err); ok {
		return pe.Retryable()
	}
	return true
}

// classifyStatus maps an HTTP status from a provider API into the taxonomy.
func classifyStatus(code int) Kind {
	switch {
	case code == 401 || code == 403:
		return KindAuthentication
	case code == 404 || code == 410:
		return KindNotFound
	case code == 429:
		return KindRateLimit
	case code == 400 || code == 422:
		return KindValidation
	case code >= 500:
		return KindTransientNetwork
	default:
		return KindPermanent
	}
}

// wrapTransport maps a transport-level failure (timeout, reset, DNS) into
// the taxonomy. Context cancellation is passed through untouched so callers
// can tell a deadline from a network fault.
func wrapTransport(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTransientNetwork, Message: fmt.Sprintf("request timed out: %v", err)}
	}
	return &Error{Kind: KindTransientNetwork, Message: fmt.Sprintf("network error: %v", err)}
}
