package errors

import (
	"encoding/json"
)

// ErrorResponse is the JSON body written for failed requests.
//
// The wrapped chain is not serialized; only code, message, classification and
// context leave the process.
type ErrorResponse struct {
	// Code is the error code identifying the type of error.
	Code string `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Classification indicates whether the error is retryable or permanent.
	Classification string `json:"classification"`

	// Context contains optional metadata about the error.
	Context map[string]interface{} `json:"context,omitempty"`
}

// ToJSON converts any error to an ErrorResponse. Returns nil if err is nil.
//
// Plain errors become CodeUnknown with their Error() text as message.
func ToJSON(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	message := err.Error()
	var context map[string]interface{}

	var pe PlatformError
	if As(err, &pe) {
		message = pe.Message()
		context = pe.Context()
	}

	return &ErrorResponse{
		Code:           string(GetCode(err)),
		Message:        message,
		Classification: string(GetClassification(err)),
		Context:        context,
	}
}

// FromJSON rebuilds a PlatformError from a decoded ErrorResponse.
// Unknown codes are kept as-is; an empty code becomes CodeUnknown.
func FromJSON(resp *ErrorResponse) PlatformError {
	if resp == nil {
		return nil
	}
	code := ErrorCode(resp.Code)
	if code == "" {
		code = CodeUnknown
	}
	classification := ErrorClassification(resp.Classification)
	if classification == "" {
		classification = defaultClassification(code)
	}
	return &platformError{
		code:           code,
		classification: classification,
		message:        resp.Message,
		context:        copyContext(resp.Context),
	}
}

// MarshalJSON renders the error as an ErrorResponse.
func (e *platformError) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(&ErrorResponse{
		Code:           string(e.code),
		Message:        e.message,
		Classification: string(e.classification),
		Context:        e.context,
	})
	if err != nil {
		return nil, Wrap(err, CodeInternal, "failed to marshal error response")
	}
	return data, nil
}
