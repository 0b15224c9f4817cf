package usecase

import "fmt"

// Validation codes reported to clients.
const (
	CodeMissingFields     = "MISSING_FIELDS"
	CodeInvalidDate       = "INVALID_DATE"
	CodeInvalidDateFormat = "INVALID_DATE_FORMAT"
	CodeInvalidTimeFormat = "INVALID_TIME_FORMAT"
	CodeInvalidTimeSlot   = "INVALID_TIME_SLOT"
	CodePastDate          = "PAST_DATE"
	CodeEmailMismatch     = "EMAIL_MISMATCH"
	CodeInvalidStatus     = "INVALID_STATUS"
)

// ValidationError is a rejected input that carries a client-facing code.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}
