package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Stable error codes for the run-level taxonomy. Remote and parse failures
// are fatal to the run; cell writes fail per entry and never abort the pass.
const (
	CodeConfig       = "CONFIG_ERROR"
	CodeRemoteCall   = "REMOTE_CALL_FAILURE"
	CodeParseFailure = "PARSE_FAILURE"
	CodeMappingTable = "MAPPING_TABLE_INVALID"
	CodeCellWrite    = "CELL_WRITE_FAILURE"
)

// Common application errors
var ErrInvalidInput = errors.New("invalid input")

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// RemoteCallError wraps a failed OCR or model call. The cause is kept for
// the run record; nothing downstream of a failed remote call is trusted.
func RemoteCallError(boundary string, cause error) *AppError {
	return &AppError{Code: CodeRemoteCall, Message: boundary + " call failed", Cause: cause}
}
