package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps err with a code and message while keeping it reachable through Unwrap.
//
// If err already carries a PlatformError its classification is preserved,
// otherwise the default classification for code is used. Returns nil if err is nil.
//
// Example:
//
//	rows, err := gw.List(ctx, drive, prefix)
//	if err != nil {
//	    return errors.Wrap(err, errors.GetCode(err), "failed to list directory")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	if err == nil {
		return nil
	}
	classification := defaultClassification(code)
	var pe PlatformError
	if errors.As(err, &pe) {
		classification = pe.Classification()
	}
	return &platformError{
		code:           code,
		classification: classification,
		message:        message,
		cause:          err,
	}
}

// Wrapf wraps err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) PlatformError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext wraps err and attaches ctx in one step. The map is copied.
// Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, code, message).(*platformError)
	wrapped.context = copyContext(ctx)
	return wrapped
}

// WithContext returns a copy of err with one more context field.
// Plain errors are promoted to CodeUnknown. Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "drive", name)
func WithContext(err error, key string, value interface{}) PlatformError {
	return WithContextMap(err, map[string]interface{}{key: value})
}

// WithContextMap returns a copy of err with the given fields merged into its
// context; new fields override existing ones. Returns nil if err is nil.
func WithContextMap(err error, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}
	pe := promote(err)
	merged := pe.Context()
	if merged == nil {
		merged = make(map[string]interface{}, len(ctx))
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &platformError{
		code:           pe.Code(),
		classification: pe.Classification(),
		message:        pe.Message(),
		context:        merged,
		cause:          pe.Unwrap(),
	}
}

// WithClassification returns a copy of err with its classification replaced.
// Returns nil if err is nil.
func WithClassification(err error, classification ErrorClassification) PlatformError {
	if err == nil {
		return nil
	}
	pe := promote(err)
	return &platformError{
		code:           pe.Code(),
		classification: classification,
		message:        pe.Message(),
		context:        pe.Context(),
		cause:          pe.Unwrap(),
	}
}

// promote returns the outermost PlatformError in err's chain, or wraps err as CodeUnknown.
func promote(err error) PlatformError {
	var pe PlatformError
	if errors.As(err, &pe) {
		return pe
	}
	return &platformError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}
