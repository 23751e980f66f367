package mailer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrInvalidRequest indicates the send request failed validation.
	ErrInvalidRequest = errors.New("invalid send request")

	// ErrMalformedToken indicates a template token or view name could not be decoded.
	ErrMalformedToken = errors.New("malformed template token")

	// ErrRenderFailed indicates the render hook reported ok=false or the
	// rendered HTML could not be post-processed.
	ErrRenderFailed = errors.New("failed to render template")

	// ErrHookFailed indicates the render hook could not be reached or returned an error.
	ErrHookFailed = errors.New("render hook failed")

	// ErrSendFailed indicates email sending failed.
	ErrSendFailed = errors.New("failed to send email")
)

// defaultWhy is reported when a hook fails without an explanation.
const defaultWhy = "unknown"

// RenderError is returned when a render hook answers with ok=false.
// It matches ErrRenderFailed with errors.Is.
type RenderError struct {
	Code string
	Part string
	Why  string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s/%s: %s", ErrRenderFailed, e.Code, e.Part, e.Why)
}

func (e *RenderError) Is(target error) bool {
	return target == ErrRenderFailed
}
