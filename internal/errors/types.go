package errors

import "errors"

// Sentinel errors classifying harness failures. Setup and injection errors
// abort a run before the container starts; runtime I/O errors abort it
// after; protocol errors describe a malformed status file and become failed
// test results rather than aborting the whole run.
var (
	ErrSetup         = errors.New("container setup failed")
	ErrInjection     = errors.New("file injection failed")
	ErrRuntimeIO     = errors.New("container I/O failed")
	ErrProtocol      = errors.New("status file protocol violated")
	ErrConfigInvalid = errors.New("configuration invalid")
	ErrCredentials   = errors.New("credential resolution failed")
)

// HarnessError wraps an underlying error with operator-facing context.
type HarnessError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *HarnessError) Error() string {
	return e.OriginalErr.Error()
}

func (e *HarnessError) Unwrap() error {
	return e.OriginalErr
}

func NewHarnessError(errorType error, context, cause, suggestion string, originalErr error) *HarnessError {
	return &HarnessError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewSetupError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrSetup, context, cause, suggestion, originalErr)
}

func NewInjectionError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrInjection, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrRuntimeIO, context, cause, suggestion, originalErr)
}

func NewProtocolError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrProtocol, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewCredentialsError(context, cause, suggestion string, originalErr error) *HarnessError {
	return NewHarnessError(ErrCredentials, context, cause, suggestion, originalErr)
}
