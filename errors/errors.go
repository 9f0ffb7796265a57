package errors

import "fmt"

// PlatformError extends the standard error interface with structured information.
//
// It carries a code for categorization, a classification for retry decisions,
// contextual metadata and an optional cause, and stays compatible with
// errors.Is, errors.As and errors.Unwrap.
type PlatformError interface {
	error

	// Code returns the error code identifying the type of error.
	Code() ErrorCode

	// Classification returns whether the error is retryable or permanent.
	Classification() ErrorClassification

	// Message returns the human-readable error message.
	Message() string

	// Context returns attached metadata as a copy.
	// Returns nil if no context has been attached.
	Context() map[string]interface{}

	// Unwrap returns the wrapped error, or nil.
	Unwrap() error
}

// platformError is the concrete PlatformError. Construction goes through the
// package functions so every instance is immutable.
type platformError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]interface{}
	cause          error
}

// Error formats as "[CODE] message" or "[CODE] message: cause".
func (e *platformError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *platformError) Code() ErrorCode                     { return e.code }
func (e *platformError) Classification() ErrorClassification { return e.classification }
func (e *platformError) Message() string                     { return e.message }
func (e *platformError) Unwrap() error                       { return e.cause }

func (e *platformError) Context() map[string]interface{} {
	return copyContext(e.context)
}

func copyContext(ctx map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	out := make(map[string]interface{}, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}

// New creates a PlatformError with the default classification for code.
//
// Example:
//
//	err := errors.New(errors.CodeReadOnly, "repository is read only")
func New(code ErrorCode, message string) PlatformError {
	return &platformError{
		code:           code,
		classification: defaultClassification(code),
		message:        message,
	}
}

// Newf creates a PlatformError with a formatted message.
//
// Example:
//
//	err := errors.Newf(errors.CodeNotFound, "drive %q is not registered", name)
func Newf(code ErrorCode, format string, args ...interface{}) PlatformError {
	return New(code, fmt.Sprintf(format, args...))
}
