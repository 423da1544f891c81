package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/platform/requestid"
)

// DefaultAttemptTimeout bounds one provider attempt.
const DefaultAttemptTimeout = 10 * time.Second

// Orchestrator walks a fallback chain. It keeps no state between requests.
type Orchestrator struct {
	attemptTimeout time.Duration
	maxChainLength int
	now            func() time.Time
}

// NewOrchestrator creates an Orchestrator. maxChainLength <= 0 means unlimited.
func NewOrchestrator(attemptTimeout time.Duration, maxChainLength int) *Orchestrator {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &Orchestrator{attemptTimeout: attemptTimeout, maxChainLength: maxChainLength, now: time.Now}
}

// MaxChainLength returns the configured chain cap (0 = unlimited).
func (o *Orchestrator) MaxChainLength() int { return o.maxChainLength }

// step is one link of a chain: a provider id and the call to make.
type step[T any] struct {
	id  string
	run func(ctx context.Context) (T, error)
}

// result is the outcome of a chain walk.
type result[T any] struct {
	value    T
	source   string
	attempts []entity.ProviderAttempt
}

// attempt tries each step in order and returns the first success.
//
// A single step chain fails with that provider's error kind. A longer chain that is
// exhausted fails with ErrNotFound when every provider reported not found, and with
// AllProvidersFailedError otherwise.
func attempt[T any](ctx context.Context, o *Orchestrator, op string, steps []step[T]) (result[T], error) {
	var out result[T]
	if len(steps) == 0 {
		return out, fmt.Errorf("%s: %w: no provider serves this asset", op, domain.ErrNotFound)
	}

	rid := requestid.FromContext(ctx)
	var lastErr error
	allNotFound := true
	for _, s := range steps {
		started := o.now()
		actx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
		v, err := s.run(actx)
		cancel()

		a := entity.ProviderAttempt{ProviderID: s.id, StartedAt: started, Duration: o.now().Sub(started)}
		if err == nil {
			a.Outcome = entity.OutcomeSuccess
			out.attempts = append(out.attempts, a)
			slog.DebugContext(ctx, "provider attempt succeeded",
				"op", op, "provider", s.id, "request_id", rid, "duration", a.Duration)
			out.value, out.source = v, s.id
			return out, nil
		}

		a.Outcome = entity.OutcomeError
		a.ErrorKind = domain.KindOf(err)
		a.Error = err.Error()
		out.attempts = append(out.attempts, a)
		slog.WarnContext(ctx, "provider attempt failed",
			"op", op, "provider", s.id, "request_id", rid, "kind", a.ErrorKind, "error", err)

		lastErr = err
		if !errors.Is(err, domain.ErrNotFound) {
			allNotFound = false
		}
	}

	if len(steps) == 1 || allNotFound {
		return out, fmt.Errorf("%s: %w", op, lastErr)
	}
	return out, fmt.Errorf("%s: %w", op, &domain.AllProvidersFailedError{Attempts: out.attempts})
}
