package csvimport

import (
	"errors"
	"fmt"
)

// Import error codes
const (
	ErrCodeImportMissingCode = "ERR_IMPORT_MISSING_CODE"
	ErrCodeImportCodeTooLong = "ERR_IMPORT_CODE_TOO_LONG"
	ErrCodeImportMalformed   = "ERR_IMPORT_MALFORMED"
)

// Common import errors
var (
	// ErrInvalidEncoding is returned when a text upload is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrNoSheets is returned for a workbook without worksheets
	ErrNoSheets = errors.New("workbook has no sheets")
)

// RowError describes a line that was skipped
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}
