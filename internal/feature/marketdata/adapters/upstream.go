// Package adapters holds helpers shared by upstream provider adapters and the candle archive store.
package adapters

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"market_backend/internal/feature/marketdata/domain"
	platformhttp "market_backend/internal/platform/http"
)

// WrapError maps a transport or decode failure onto the error taxonomy.
// Provider errors are returned untouched and bare sentinel kinds keep their kind.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	for _, kind := range []error{domain.ErrRateLimited, domain.ErrNotFound, domain.ErrInvalidSymbol} {
		if errors.Is(err, kind) {
			return domain.NewProviderError(provider, kind, err)
		}
	}

	var se *platformhttp.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusTooManyRequests, http.StatusTeapot:
			return domain.NewProviderError(provider, domain.ErrRateLimited, err)
		case http.StatusNotFound:
			return domain.NewProviderError(provider, domain.ErrNotFound, err)
		}
	}
	return domain.NewProviderError(provider, domain.ErrUpstreamUnavailable, err)
}

// IsStatus reports whether err is an upstream response with the given status code.
func IsStatus(err error, code int) bool {
	var se *platformhttp.StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// ParseFloat parses a numeric string field. Empty strings and "None" read as zero.
func ParseFloat(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "null" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}

// ParsePercent parses values such as "1.2345%".
func ParsePercent(field, s string) (float64, error) {
	return ParseFloat(field, strings.TrimSuffix(strings.TrimSpace(s), "%"))
}
