package document

import (
	"errors"
	"fmt"
)

// MappingError reports an ERP row that cannot be turned into a Document.
// The row is skipped; the rest of the batch is unaffected.
type MappingError struct {
	InternalID string
	Field      string
	Reason     string
}

func newMappingError(internalID, field, reason string) *MappingError {
	return &MappingError{InternalID: internalID, Field: field, Reason: reason}
}

// Error implements the error interface
func (e *MappingError) Error() string {
	if e.InternalID == "" {
		return fmt.Sprintf("cannot map ERP record: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("cannot map ERP record %s: %s: %s", e.InternalID, e.Field, e.Reason)
}

// IsMappingError reports whether err is or wraps a *MappingError
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}

func errInvalidUpdateTime(raw string) error {
	return fmt.Errorf("invalid update time %q", raw)
}
