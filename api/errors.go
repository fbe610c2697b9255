package api

import (
	"errors"
	"fmt"
)

const (
	// UnknownErrorMessage is used when the server rejects a call without saying why.
	UnknownErrorMessage = "Unknown error"
	// UnexpectedErrorMessage is shown for anything that is not a server rejection.
	UnexpectedErrorMessage = "An unexpected error occurred"
)

// APIError is a rejection by the server: a non-200 status, or a 200 whose body
// does not match the expected response shape.
type APIError struct {
	FuncName FunctionName
	Status   int
	// Message is the server-provided "error" field, shown to the user verbatim.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.FuncName, e.Status, e.Message)
}

// TransportError is a call that produced no usable response: the request
// failed, or the body was not JSON.
type TransportError struct {
	FuncName FunctionName
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.FuncName, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage returns the text to show for err: the server message for API
// errors and a generic message for everything else.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" {
			return UnknownErrorMessage
		}
		return apiErr.Message
	}
	return UnexpectedErrorMessage
}

// IsAPIError reports whether err is a server rejection.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
