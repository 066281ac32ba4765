package llm

import "errors"

var (
	// ErrAuthentication is returned when a provider rejects the
	// caller-supplied credential.
	ErrAuthentication = errors.New("provider rejected credentials")

	// ErrRateLimited is returned when a provider throttles the request.
	// Callers may retry; the core never retries on its own.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrProvider is returned for any other transport or service failure,
	// including timeouts propagated from the capability boundary.
	ErrProvider = errors.New("provider request failed")
)

// ErrorResponse is the structured error body returned by the HTTP API.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
