package domain

import "errors"

var (
	// ErrEmptyMessage means the outbound turn had no usable content; no
	// network attempt is made.
	ErrEmptyMessage = errors.New("message must contain text or at least one image")

	// ErrEmptyResponse means the service answered with blank text. It does
	// not trigger credential rotation.
	ErrEmptyResponse = errors.New("empty response from AI")

	// ErrCredentialsExhausted means every credential in the pool failed
	// with a retryable error.
	ErrCredentialsExhausted = errors.New("all credentials exhausted")
)
