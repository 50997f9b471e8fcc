package errors

import "errors"

// Validation errors
var (
	ErrEmptyURL          = errors.New("URL is required and must be a string")
	ErrBlankURL          = errors.New("URL cannot be empty")
	ErrURLTooLong        = errors.New("URL exceeds maximum length")
	ErrInvalidURL        = errors.New("Invalid URL format")
	ErrUnsupportedScheme = errors.New("URL must use HTTP or HTTPS protocol")
	ErrMissingHost       = errors.New("URL must include a valid hostname")
	ErrPrivateHost       = errors.New("URLs pointing to private or localhost addresses are not allowed")
)

// Configuration errors
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Internal errors
var (
	// ErrInternal marks programming errors surfaced from the analysis pipeline.
	ErrInternal = errors.New("internal error")
)
