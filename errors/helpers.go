package errors

import (
	stderrors "errors"
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Join wraps the standard library errors.Join.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// GetCode extracts the ErrorCode from the outermost PlatformError in err's chain.
// Returns CodeUnknown if err is nil or carries no PlatformError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	var pe PlatformError
	if stderrors.As(err, &pe) {
		return pe.Code()
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
//
// Example:
//
//	if errors.HasCode(err, errors.CodeNotFound) {
//	    return false, nil
//	}
func HasCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// GetClassification extracts the classification from err.
// Returns ClassificationPermanent if err is nil or carries no PlatformError.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}
	var pe PlatformError
	if stderrors.As(err, &pe) {
		return pe.Classification()
	}
	return ClassificationPermanent
}

// IsRetryable returns true if err is classified as retryable.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}
