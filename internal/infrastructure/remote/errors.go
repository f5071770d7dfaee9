package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned by Deliver for an empty batch
	ErrEmptyBatch = errors.New("remote: empty batch")

	// ErrTokenExchange is matched by every *AuthError
	ErrTokenExchange = errors.New("remote: token exchange failed")
)

// AuthError means no usable token was obtained from the token endpoint
type AuthError struct {
	StatusCode int
	Reason     string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote: token exchange failed: HTTP %d: %s", e.StatusCode, e.Reason)
	}
	return "remote: token exchange failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return ErrTokenExchange
}

// ConnectionError means the remote API could not be reached
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DeliveryRejectedError means the remote API answered but did not
// acknowledge the batch
type DeliveryRejectedError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryRejectedError) Error() string {
	return fmt.Sprintf("remote: delivery rejected: HTTP %d: %s", e.StatusCode, e.Body)
}
