package errors

import "net/http"

// ContextStatus is the context key holding the HTTP status of a failed request.
const ContextStatus = "status"

var codeStatus = map[ErrorCode]int{
	CodeNotFound:       http.StatusNotFound,
	CodeAlreadyExists:  http.StatusConflict,
	CodeConflict:       http.StatusConflict,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeReadOnly:       http.StatusForbidden,
	CodeInvalidInput:   http.StatusBadRequest,
	CodeInvalidConfig:  http.StatusBadRequest,
	CodeUnsupported:    http.StatusNotImplemented,
	CodeNotImplemented: http.StatusNotImplemented,
	CodeTimeout:        http.StatusGatewayTimeout,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeUnavailable:    http.StatusServiceUnavailable,
	CodeTransport:      http.StatusBadGateway,
	CodeBackend:        http.StatusBadGateway,
	CodePartialFailure: http.StatusMultiStatus,
}

// HTTPStatus returns the HTTP status code used to report code.
// Unmapped codes report 500.
func HTTPStatus(code ErrorCode) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForStatus picks the code that best describes an HTTP failure status.
func CodeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidInput
	case http.StatusNotImplemented:
		return CodeNotImplemented
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return CodeTimeout
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	}
	if status >= 500 {
		return CodeBackend
	}
	return CodeUnknown
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	var pe PlatformError
	if !As(err, &pe) {
		return 0
	}
	if status, ok := pe.Context()[ContextStatus].(int); ok {
		return status
	}
	return 0
}
