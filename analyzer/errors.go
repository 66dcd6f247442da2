package analyzer

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request-facing error codes. Auth and quota codes are mapped for
// completeness but produced by upstream collaborators, never by the
// core.
const (
	CodeInputInvalid       = "input_invalid"
	CodeConfigurationError = "configuration_error"
	CodeTimeout            = "timeout"
	CodeInternalError      = "internal_error"
	CodeUnauthorized       = "unauthorized"
	CodeQuotaExceeded      = "quota_exceeded"
)

// RequestError is an error that surfaces to the API caller with a
// stable short code. Everything else degrades to a fallback instead of
// failing the request.
type RequestError struct {
	Code   string
	Detail string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// HTTPStatus maps the error code to its HTTP status.
func (e *RequestError) HTTPStatus() int {
	switch e.Code {
	case CodeInputInvalid:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeQuotaExceeded:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func inputInvalid(format string, args ...any) *RequestError {
	return &RequestError{Code: CodeInputInvalid, Detail: fmt.Sprintf(format, args...)}
}

func timeoutError(detail string) *RequestError {
	return &RequestError{Code: CodeTimeout, Detail: detail}
}

// errorBody is the JSON error envelope: {"error": code, "detail": text}.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// writeError renders a RequestError (or a wrapped internal error) as
// the JSON error body with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	reqErr, ok := err.(*RequestError)
	if !ok {
		reqErr = &RequestError{Code: CodeInternalError, Detail: err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reqErr.HTTPStatus())
	json.NewEncoder(w).Encode(errorBody{Error: reqErr.Code, Detail: reqErr.Detail})
}
