package schema

import "errors"

// Error kinds used across the transcription core. Callers classify failures
// with errors.Is; the HTTP layer maps each kind to a status code and a
// machine-readable category.
var (
	// ErrModelLoad marks a failure to load an ASR, alignment or separation
	// model. Fatal to the triggering call, never retried.
	ErrModelLoad = errors.New("model load failed")

	// ErrAudioDecode marks an unreadable or corrupt audio input.
	ErrAudioDecode = errors.New("audio decode failed")

	// ErrResourceExhausted marks an inference failure caused by the compute
	// device running out of memory or equivalent capacity.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrUnsupportedFormat marks a result format outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported result format")

	// ErrInvalidArgument marks a request parameter outside the supported
	// set, such as an unknown model or language.
	ErrInvalidArgument = errors.New("invalid argument")
)

// APIError provides error information returned to API callers.
type APIError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error *APIError `json:"error,omitempty"`
}

// ErrorKind returns the machine-readable category for err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrResourceExhausted):
		return "resource_exhausted"
	case errors.Is(err, ErrModelLoad):
		return "model_load"
	case errors.Is(err, ErrAudioDecode):
		return "invalid_input"
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	}
	return "internal"
}
