package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "object not found")

	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code())
	assert.Equal(t, "object not found", err.Message())
	assert.Equal(t, ClassificationPermanent, err.Classification())
	assert.Nil(t, err.Context())
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "[NOT_FOUND] object not found", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeNotFound, "drive %q is not registered", "alpha")
	assert.Equal(t, `drive "alpha" is not registered`, err.Message())
}

func TestDefaultClassification(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{CodeTransport, true},
		{CodeTimeout, true},
		{CodeRateLimit, true},
		{CodeUnavailable, true},
		{CodeNotFound, false},
		{CodeBackend, false},
		{CodeUnsupported, false},
		{CodeReadOnly, false},
		{CodePartialFailure, false},
		{ErrorCode("SOMETHING_NEW"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retryable, New(tt.code, "x").Classification().IsRetryable())
		})
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeUnknown, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeBackend, GetCode(New(CodeBackend, "boom")))

	wrapped := Wrap(New(CodeNotFound, "missing"), CodeBackend, "lookup failed")
	assert.Equal(t, CodeBackend, GetCode(wrapped), "outermost code wins")
}

func TestHasCode(t *testing.T) {
	assert.False(t, HasCode(nil, CodeUnknown))
	assert.True(t, HasCode(New(CodeNotFound, "x"), CodeNotFound))
	assert.False(t, HasCode(New(CodeNotFound, "x"), CodeConflict))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.True(t, IsRetryable(New(CodeTransport, "connection reset")))
}

func TestStdlibCompatibility(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := Wrap(sentinel, CodeTransport, "request failed")

	assert.True(t, Is(err, sentinel))

	var pe PlatformError
	require.True(t, As(err, &pe))
	assert.Equal(t, CodeTransport, pe.Code())
}

func TestContextIsCopied(t *testing.T) {
	err := WithContext(New(CodeBackend, "x"), "drive", "alpha")
	ctx := err.Context()
	ctx["drive"] = "beta"

	assert.Equal(t, "alpha", err.Context()["drive"])
}
