package common

import (
	"errors"
	"fmt"
)

// APIKeyErrorMessage is the fixed remediation message returned whenever an
// AI-backed operation is attempted without a configured model credential.
// It is user-facing and must be returned verbatim, before any network call.
const APIKeyErrorMessage = "AI features require a Gemini API key. " +
	"Please add GEMINI_API_KEY=your_key to the .env file and restart the server. " +
	"You can get a key from Google AI Studio."

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

// Common application errors
var (
	ErrNotConfigured = errors.New("not configured")
	ErrExtraction    = errors.New("extraction failed")
	ErrModification  = errors.New("modification failed")
	ErrValidation    = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
