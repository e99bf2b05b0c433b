package catalog

import (
	"errors"
	"fmt"
)

// ErrMissingID is returned by Update for a resource that was never created.
var ErrMissingID = errors.New("resource has no id")

// ServiceError reports a failed exchange with the catalog service: transport
// failures, non-2xx responses and undecodable bodies.
type ServiceError struct {
	Op         string // first, all, create or update
	Resource   string
	StatusCode int // 0 when no response was received
	Detail     string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("catalog %s %s", e.Op, e.Resource)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsServiceError reports whether err (or anything it wraps) is a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
