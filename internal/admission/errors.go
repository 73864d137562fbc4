package admission

import "errors"

var (
	// ErrMalformedBody indicates a message body that is not a JSON job payload.
	ErrMalformedBody = errors.New("malformed message body")
	// ErrMissingMessageID indicates a message without an identity to key its execution.
	ErrMissingMessageID = errors.New("message id missing")
	// ErrMissingJobID indicates a reaped job that cannot be routed to the error handler.
	ErrMissingJobID = errors.New("review job id missing")
)
