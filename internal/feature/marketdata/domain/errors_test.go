package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"market_backend/internal/feature/marketdata/domain/entity"
)

func TestProviderError_IsKindAndCause(t *testing.T) {
	t.Parallel()

	cause := context.DeadlineExceeded
	err := fmt.Errorf("fetch: %w", NewProviderError("binance", ErrUpstreamUnavailable, cause))

	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected kind to match, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause to match, got %v", err)
	}
	if errors.Is(err, ErrRateLimited) {
		t.Errorf("did not expect rate limited to match")
	}

	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Provider != "binance" {
		t.Errorf("expected ProviderError for binance, got %v", err)
	}
}

func TestAllProvidersFailedError(t *testing.T) {
	t.Parallel()

	err := &AllProvidersFailedError{Attempts: []entity.ProviderAttempt{
		{ProviderID: "coingecko", Outcome: entity.OutcomeError, ErrorKind: "rate_limited"},
		{ProviderID: "binance", Outcome: entity.OutcomeError, ErrorKind: "upstream_unavailable"},
	}}

	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
	want := "all providers failed: coingecko(rate_limited), binance(upstream_unavailable)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidSymbol, "invalid_symbol"},
		{ErrInvalidInterval, "invalid_interval"},
		{fmt.Errorf("sort: %w", ErrInvalidParameter), "invalid_parameter"},
		{NewProviderError("x", ErrNotFound, nil), "not_found"},
		{NewProviderError("x", ErrRateLimited, errors.New("429")), "rate_limited"},
		{&AllProvidersFailedError{}, "all_providers_failed"},
		{errors.New("boom"), "upstream_unavailable"},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
