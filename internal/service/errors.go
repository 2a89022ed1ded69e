package service

import "errors"

var (
	// ErrUnknownProvider is returned when the configured embedding provider is not supported
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrIndexMismatch is returned when a vector index does not cover its record table
	ErrIndexMismatch = errors.New("vector index does not match record count")

	// ErrEmbeddingCount is returned when a provider returns a different number of vectors than requested
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
