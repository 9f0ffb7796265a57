// Package errors provides structured error handling for the drives module.
//
// It extends Go's standard errors with codes, retry classification, context
// metadata and JSON serialization, while staying compatible with errors.Is,
// errors.As and errors.Unwrap.
//
// # Codes used by the drive layer
//
//   - CodeNotFound: a HEAD/GET on a missing object. The name allocator treats it
//     as "the name is free".
//   - CodeTransport: the request failed or the response had no parseable error body.
//   - CodeBackend: the backend returned a JSON error body; Message() is its message.
//   - CodeUnsupported: root-level create/download and checkpoint operations.
//   - CodePartialFailure: some children of a directory-wide operation failed.
//   - CodeReadOnly: checkpoint restore and delete.
//
// Every code has a default classification; only transport-level codes
// (CodeTransport, CodeTimeout, CodeRateLimit, CodeUnavailable) are retryable.
//
// # Usage
//
//	err := errors.New(errors.CodeNotFound, "object not found")
//	err = errors.WithContext(err, "drive", "alpha")
//
//	if errors.HasCode(err, errors.CodeNotFound) {
//	    // name is free
//	}
//
// # HTTP mapping
//
// HTTPStatus and CodeForStatus translate between codes and HTTP statuses, and
// ToJSON/FromJSON convert to and from the wire body, so an error raised by a
// store on the server arrives at the client with the same code and message.
package errors
