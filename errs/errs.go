// Package errs carries the typed failures that cross component boundaries.
// Components wrap their errors with a kind sentinel; the HTTP layer is the
// only place that translates kinds into status codes.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to clients. Components attach one of these with %w
// so the server can classify with errors.Is.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrInvalidTemplate     = errors.New("invalid template")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnparseableResponse = errors.New("unparseable response")
	ErrInvalidOutline      = errors.New("invalid outline")
)

// ServiceError is the uniform error wrapper used by every service.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

// Error formats as: [Service.Operation] error message
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s.%s] %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the original error so errors.Is/errors.As can walk the chain.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Wrap adds service context to an error. Returns nil when err is nil.
func Wrap(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Service: service, Operation: operation, Err: err}
}

// Wrapf attaches a kind sentinel and a formatted message in one step.
func Wrapf(service, operation string, kind error, format string, args ...interface{}) error {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)),
	}
}
