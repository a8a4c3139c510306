package errors

import (
	"encoding/json"
	"net/http"
)

// Error is the concrete error value every domain package returns.
// It carries a Kind so the HTTP layer can map it to a status code
// without the caller having to inspect the message string.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an Error of the given Kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given Kind around an existing error,
// preserving it for errors.Is/errors.As on the caller side.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails attaches structured context (resourceId, field, etc.) to
// an Error and returns it for chaining.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// KindOf extracts the Kind from err. It returns "" when err is nil and
// Internal when err is not an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if stdErrorsAs(err, &domainErr) {
		return domainErr.Kind
	}
	return Internal
}

// ErrorResponse is the standardized error format returned to clients.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code, message, and optional context.
type ErrorDetail struct {
	Code      Kind                   `json:"code"`
	Message   string                 `json:"message"`
	Retryable bool                   `json:"retryable"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewErrorResponse creates a standardized error response from a Kind.
func NewErrorResponse(kind Kind, message string, details map[string]interface{}) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:      kind,
			Message:   message,
			Retryable: kind.Retryable(),
			Details:   details,
		},
	}
}

// WriteJSON writes the error response as JSON to the HTTP response writer.
func (e ErrorResponse) WriteJSON(w http.ResponseWriter) {
	status := e.Error.Code.HTTPStatus()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(e)
}

// WriteError writes err to w as a standardized JSON error response.
// Any error that is not an *Error is reported as Internal, never
// leaking its raw message to the client.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *Error
	if stdErrorsAs(err, &domainErr) {
		NewErrorResponse(domainErr.Kind, domainErr.Message, domainErr.Details).WriteJSON(w)
		return
	}
	NewErrorResponse(Internal, "internal error", nil).WriteJSON(w)
}
