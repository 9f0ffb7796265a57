package errors_test

import (
	"encoding/json"
	"fmt"

	"github.com/jmgilman/go/drives/errors"
)

func ExampleNew() {
	err := errors.New(errors.CodeReadOnly, "repository is read only")
	fmt.Println(err.Error())
	// Output: [READ_ONLY] repository is read only
}

func ExampleWrap() {
	cause := fmt.Errorf("connection refused")
	err := errors.Wrap(cause, errors.CodeTransport, "GET drives failed")

	fmt.Println(errors.GetCode(err), errors.IsRetryable(err))
	// Output: TRANSPORT_ERROR true
}

func ExampleWithContext() {
	err := errors.New(errors.CodeNotFound, "object not found")
	err = errors.WithContext(err, "drive", "alpha")

	fmt.Println(err.Context()["drive"])
	// Output: alpha
}

func ExampleToJSON() {
	err := errors.New(errors.CodeConflict, "Drive already mounted.")
	data, _ := json.Marshal(errors.ToJSON(err))
	fmt.Println(string(data))
	// Output: {"code":"CONFLICT","message":"Drive already mounted.","classification":"PERMANENT"}
}

func ExampleHTTPStatus() {
	fmt.Println(errors.HTTPStatus(errors.CodeNotFound))
	// Output: 404
}
