package remote

import (
	"errors"
	"fmt"
)

// StatusError is a non-2xx response from a remote service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, e.Message)
}

// UnreachableError marks failures where the service could not be reached at
// all: transport errors, timeouts, gateway statuses and an open breaker.
type UnreachableError struct {
	Service string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Service, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// IsConnectivity reports whether err means the remote could not be reached,
// as opposed to the remote answering with a rejection.
func IsConnectivity(err error) bool {
	var unreachable *UnreachableError
	return errors.As(err, &unreachable)
}
