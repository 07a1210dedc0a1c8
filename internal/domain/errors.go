package domain

import "errors"

var (
	// ErrInvalidInput is returned when the image or query is missing on entry
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable is returned when a capability provider could not run
	ErrProviderUnavailable = errors.New("capability provider unavailable")

	// ErrSourceUnreachable is returned when a retailer could not be fetched or parsed
	ErrSourceUnreachable = errors.New("retailer source unreachable")

	// ErrCircuitOpen is returned when a retailer's circuit breaker rejects a call
	ErrCircuitOpen = errors.New("retailer circuit open")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
