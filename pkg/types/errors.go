package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeTransientFetch ErrorType = "transient_fetch"
	ErrorTypePreferenceLoad ErrorType = "preference_load"
	ErrorTypeAudioPlayback  ErrorType = "audio_playback"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeInternal       ErrorType = "internal"
)

// AlertError represents a structured error in the alerting subsystem.
// No error of any type is fatal to the process: fetch failures degrade to
// a no-candidate cycle, preference failures to defaults, audio failures
// to a silent notification.
type AlertError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AlertError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AlertError) Unwrap() error {
	return e.Cause
}

// NewTransientFetchError creates an error for a failed backend fetch
func NewTransientFetchError(code, message string, cause error) *AlertError {
	return &AlertError{
		Type:    ErrorTypeTransientFetch,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPreferenceLoadError creates an error for a failed preference read
func NewPreferenceLoadError(code, message string, cause error) *AlertError {
	return &AlertError{
		Type:    ErrorTypePreferenceLoad,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAudioPlaybackError creates an error for a failed sound playback
func NewAudioPlaybackError(code, message string, cause error) *AlertError {
	return &AlertError{
		Type:    ErrorTypeAudioPlayback,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *AlertError {
	return &AlertError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}
