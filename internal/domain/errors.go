package domain

import "errors"

var (
	// ErrInvalidTopK signals a non-positive top_k request.
	ErrInvalidTopK = errors.New("top_k must be positive")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit on an upstream provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNewsProviderError signals a news provider failure.
	ErrNewsProviderError = errors.New("news provider error")
	// ErrNewsAuthFailed signals a rejected news provider API key.
	ErrNewsAuthFailed = errors.New("news provider rejected API key")
)
