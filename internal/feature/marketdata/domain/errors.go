// Package domain defines domain-level errors for the marketdata feature.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"market_backend/internal/feature/marketdata/domain/entity"
)

// Error kinds. Every error leaving the engine matches exactly one of these with errors.Is.
var (
	// ErrInvalidSymbol indicates malformed, empty or over-length input (400).
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidInterval indicates an interval name the engine does not know (400).
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrInvalidParameter indicates an unknown list kind, sort key or filter value (400).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotFound indicates the symbol or contract could not be resolved by any provider (404).
	ErrNotFound = errors.New("symbol not found")

	// ErrRateLimited indicates an upstream signaled throttling (429). It is never retried here.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable covers network, timeout and parse failures of a single provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrAllProvidersFailed indicates a fallback chain was exhausted (503).
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// ProviderError is an error raised by one provider adapter.
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

// NewProviderError wraps err with a provider id and one of the error kinds above.
func NewProviderError(provider string, kind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// AllProvidersFailedError carries the outcome of every attempted provider.
type AllProvidersFailedError struct {
	Attempts []entity.ProviderAttempt
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s(%s)", a.ProviderID, a.ErrorKind))
	}
	return fmt.Sprintf("%v: %s", ErrAllProvidersFailed, strings.Join(parts, ", "))
}

func (e *AllProvidersFailedError) Unwrap() error {
	return ErrAllProvidersFailed
}

// KindOf maps any error to the name of its kind. Unknown errors are upstream failures.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.Is(err, ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrAllProvidersFailed):
		return "all_providers_failed"
	default:
		return "upstream_unavailable"
	}
}
