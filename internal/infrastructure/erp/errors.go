package erp

import (
	"errors"
	"fmt"
)

// ConnectionError means the ERP database could not be opened or reached
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("erp connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is or wraps a *ConnectionError
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// ErrSessionClosed is returned by a session after Close
var ErrSessionClosed = errors.New("erp session closed")
