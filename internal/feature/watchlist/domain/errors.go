// Package domain defines domain-level errors for the watchlist feature.
package domain

import "errors"

// ErrNotTracked is returned when a code has no watchlist row.
var ErrNotTracked = errors.New("symbol not on watchlist")
