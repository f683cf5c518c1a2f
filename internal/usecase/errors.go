package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	// ErrUpstreamUnavailable is retryable: the provider could not be reached
	// within the retry budget.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrValidation          = errors.New("snapshot failed validation")
	ErrCorruptData         = errors.New("persisted data is corrupt")
	ErrSchemaMismatch      = errors.New("provider schema mismatch")
	ErrRequestRejected     = errors.New("request rejected by provider")
)
