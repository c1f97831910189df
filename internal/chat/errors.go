package chat

import "errors"

// configurationError signals a backend that cannot be built: missing
// credential, unreadable model source, unsupported build.
type configurationError struct {
	msg   string
	cause error
}

func (e configurationError) Error() string {
	if e.cause != nil {
		return "configuration error: " + e.msg + ": " + e.cause.Error()
	}
	return "configuration error: " + e.msg
}

func (e configurationError) Unwrap() error { return e.cause }

// ErrConfiguration constructs a configuration error. cause may be nil.
func ErrConfiguration(msg string, cause error) error {
	return configurationError{msg: msg, cause: cause}
}

// IsConfiguration reports whether err (or anything it wraps) is a configuration error.
func IsConfiguration(err error) bool {
	var ce configurationError
	return errors.As(err, &ce)
}

// generationError signals a failed generation attempt on a constructed backend.
type generationError struct {
	backend string
	cause   error
}

func (e generationError) Error() string {
	if e.cause == nil {
		return e.backend + " generation failed"
	}
	return e.backend + " generation failed: " + e.cause.Error()
}

func (e generationError) Unwrap() error { return e.cause }

// ErrGeneration wraps cause as a generation error reported by backend.
func ErrGeneration(backend string, cause error) error {
	return generationError{backend: backend, cause: cause}
}

// IsGeneration reports whether err (or anything it wraps) is a generation error.
func IsGeneration(err error) bool {
	var ge generationError
	return errors.As(err, &ge)
}
