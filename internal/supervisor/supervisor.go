// Package supervisor runs the reconnect loop around a feed session (C5):
// on every disconnect it measures how long the session survived and waits
// with exponential backoff before the next attempt, the way ws.go's Run
// loop does — but using the 2^n + U(0,1) jitter formula and the seven
// consecutive fast-failure reset rule instead of a capped doubling.
package supervisor

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"coinbase-mm/internal/logx"
	"coinbase-mm/internal/restclient"
)

// fastFailureThreshold is how long a session must survive to count as a
// "real" connection rather than a fast failure that should escalate backoff.
const fastFailureThreshold = 2 * time.Second

// fastFailureResetLimit is the fast-failure count past which the carried
// counter resets to zero — the reset applies only to the state carried
// into the *next* failure, not to the sleep exponent used for the failure
// that crossed the limit. That failure still sleeps at its own
// just-incremented exponent, giving a repeating 1..7 cycle rather than a
// single reset down to a near-zero wait every eighth attempt.
const fastFailureResetLimit = 6

// Supervisor owns the reconnect loop and the one-time startup steps that
// must happen before the first session: clearing any resting orders left
// over from a previous run so the account starts from a known state.
type Supervisor struct {
	wsURL  string
	rest   *restclient.Client
	logger *slog.Logger
	rng    *rand.Rand

	// OnStatus, when set, is wired into every session so the command-line
	// status line keeps rendering across reconnects.
	OnStatus func(logx.Status)
}

// New creates a supervisor for the given feed and REST endpoints.
func New(wsURL string, rest *restclient.Client, logger *slog.Logger) *Supervisor {
	return &Supervisor{wsURL: wsURL, rest: rest, logger: logger, rng: rand.New(rand.NewSource(1))}
}

// Run cancels all resting orders once, then loops sessions until ctx is
// cancelled, backing off 2^n + U(0,1) seconds between attempts and
// resetting n after seven consecutive sub-fastFailureThreshold sessions.
func (sup *Supervisor) Run(ctx context.Context) error {
	if _, err := sup.rest.CancelAll(ctx); err != nil {
		sup.logger.Warn("startup cancel-all failed", "error", err)
	}

	var fastFailures int
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		session := NewSession(sup.wsURL, sup.rest, sup.logger)
		session.OnStatus = sup.OnStatus
		start := time.Now()
		err := session.Run(ctx)
		elapsed := time.Since(start)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		sup.logger.Warn("session ended, reconnecting", "error", err, "lived", elapsed)

		var sleepExponent int
		sleepExponent, fastFailures = nextBackoffState(elapsed, fastFailures)
		wait := backoffWait(sleepExponent, sup.rng)
		sup.logger.Info("backing off before reconnect", "n", sleepExponent, "wait", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// nextBackoffState advances the fast-failure counter for one completed
// session and returns both the exponent to sleep at for *this* failure and
// the counter to carry into the next call. A session that lived at least
// fastFailureThreshold resets the counter to zero with no backoff growth.
// Otherwise the counter increments first and that incremented value is the
// sleep exponent; only once it exceeds fastFailureResetLimit does the
// carried-forward counter drop back to zero — the sleep that just happened
// still used the pre-reset exponent, producing a repeating 1,2,...,7
// cycle instead of an eighth attempt that sleeps at exponent 0.
func nextBackoffState(elapsed time.Duration, fastFailures int) (sleepExponent, carried int) {
	if elapsed >= fastFailureThreshold {
		return 0, 0
	}
	fastFailures++
	sleepExponent = fastFailures
	if fastFailures > fastFailureResetLimit {
		fastFailures = 0
	}
	return sleepExponent, fastFailures
}

// backoffWait computes 2^n + U(0,1) seconds.
func backoffWait(n int, rng *rand.Rand) time.Duration {
	return time.Duration(math.Pow(2, float64(n))*float64(time.Second)) + time.Duration(rng.Float64()*float64(time.Second))
}
