package shared

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failed call to a music service.
type FailureKind int

const (
	// Transient covers every failure that is not one of the more specific kinds.
	Transient FailureKind = iota
	// Unauthorized means the user's session with the service has expired.
	Unauthorized
	// QuotaExceeded means the service's rate or usage limit was reached.
	QuotaExceeded
	// NotFound means the service had no matching content.
	NotFound
)

func (k FailureKind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case QuotaExceeded:
		return "quota_exceeded"
	case NotFound:
		return "not_found"
	default:
		return "transient"
	}
}

// Fatal reports whether a failure of this kind must stop the whole conversion.
func (k FailureKind) Fatal() bool {
	return k == Unauthorized || k == QuotaExceeded
}

// Failure is a classified service error.
//
// It carries the originating service and operation so callers can tell the user which
// service to re-authenticate with or which quota window to wait out.
type Failure struct {
	Kind      FailureKind
	Service   string // Service name, e.g. "spotify"
	Operation string // Operation that failed, e.g. "search", "create-playlist"
	Status    int    // HTTP status when one was observed
	Err       error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s %s: %s", f.Service, f.Operation, f.Kind)
	if f.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.Status)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is maps each kind onto the matching package sentinel so callers can use [errors.Is].
func (f *Failure) Is(target error) bool {
	switch f.Kind {
	case Unauthorized:
		return target == ErrTokenExpired
	case QuotaExceeded:
		return target == ErrQuotaExceeded
	case NotFound:
		return target == ErrTrackNotFound
	default:
		return target == ErrAPIRequest
	}
}

// NewFailure builds a [Failure].
func NewFailure(kind FailureKind, service, operation string, status int, err error) *Failure {
	return &Failure{Kind: kind, Service: service, Operation: operation, Status: status, Err: err}
}

// AsFailure extracts a [Failure] from err.
//
// Errors that carry no classification are reported as [Transient] for the given service and operation.
func AsFailure(err error, service, operation string) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(Transient, service, operation, 0, err)
}
