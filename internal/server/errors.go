package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

// HTTPError carries everything needed to render an error response.
type HTTPError struct {
	// Err is logged, never shown.
	Err     error
	Fields  map[string]string
	Message string
	Code    int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// errorBody is the wire form of every error response.
type errorBody struct {
	Fields    map[string]string `json:"fields,omitempty"`
	Error     string            `json:"error"`
	RequestID string            `json:"request_id,omitempty"`
}

func badRequest(message string, err error) *HTTPError {
	return &HTTPError{Code: http.StatusBadRequest, Message: message, Err: err}
}

// toHTTPError maps domain errors onto status codes.
func toHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}

	var ve ValidationError
	if errors.As(err, &ve) {
		return &HTTPError{Code: http.StatusBadRequest, Message: "validation failed", Fields: ve, Err: err}
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	switch {
	case errors.Is(err, mailer.ErrNoRecipient),
		errors.Is(err, mailer.ErrInvalidRequest),
		errors.Is(err, mailer.ErrMalformedToken):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, mailer.ErrRenderFailed):
		code, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, mailer.ErrSendFailed):
		code, message = http.StatusBadGateway, mailer.ErrSendFailed.Error()
	case errors.Is(err, mailer.ErrHookFailed):
		code, message = http.StatusBadGateway, mailer.ErrHookFailed.Error()
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
		message = http.StatusText(code)
	}
	return &HTTPError{Code: code, Message: message, Err: err}
}
