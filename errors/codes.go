package errors

// ErrorCode identifies a specific error condition.
// Codes are strings so they read well in logs and serialize naturally to JSON.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a drive, object or directory does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a drive or object already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates a state conflict, e.g. mounting a drive that is already mounted.
	CodeConflict ErrorCode = "CONFLICT"

	// Permission errors.

	// CodeUnauthorized indicates missing or invalid backend credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeReadOnly indicates a write against something that only supports reads,
	// such as checkpoint restore on an object store.
	CodeReadOnly ErrorCode = "READ_ONLY"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Drive errors.

	// CodeUnsupported indicates an operation the drive layer deliberately does not
	// support (root-level create, root download, checkpoints). These fail without I/O.
	CodeUnsupported ErrorCode = "UNSUPPORTED_OPERATION"

	// CodePartialFailure indicates a directory-wide fan-out where some per-object
	// operations failed.
	CodePartialFailure ErrorCode = "PARTIAL_FAILURE"

	// CodeBackend indicates the backend answered with an error body; the backend's
	// message is carried verbatim.
	CodeBackend ErrorCode = "BACKEND_ERROR"

	// Infrastructure errors.

	// CodeTransport indicates the request could not be completed or the backend
	// answered without a parseable error body.
	CodeTransport ErrorCode = "TRANSPORT_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates the backend throttled the request.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeNotImplemented indicates the backend does not implement the requested functionality.
	CodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// CodeUnavailable indicates the backend is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// ErrorClassification indicates whether an error may succeed when retried.
// Nothing in the drive layer retries on its own; the classification is surfaced
// so transports and callers can decide.
type ErrorClassification string

const (
	// ClassificationRetryable indicates a temporary failure.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent indicates a failure that will not go away on retry.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification indicates retry may succeed.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

var retryableCodes = map[ErrorCode]bool{
	CodeTransport:   true,
	CodeTimeout:     true,
	CodeRateLimit:   true,
	CodeUnavailable: true,
}

// defaultClassification returns the classification used when none is given.
// Unlisted codes are permanent.
func defaultClassification(code ErrorCode) ErrorClassification {
	if retryableCodes[code] {
		return ClassificationRetryable
	}
	return ClassificationPermanent
}
