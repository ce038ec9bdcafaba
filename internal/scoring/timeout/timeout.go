// Package timeout provides a generic race-a-unit-of-work-against-a-deadline
// primitive used by every provider attempt in the scoring pipeline.
//
// The loser is abandoned, not cancelled: several scoring backends have no
// cooperative abort, so on expiry this package simply stops waiting. The
// underlying call may still complete in the background and its result is
// discarded.
package timeout

import (
	"context"
	"time"

	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
)

// Do runs op, failing with a *scorerrors.TimeoutError if it does not settle
// within d. The optional onTimeout callback fires exactly once at the moment
// of expiry - for telemetry, not cancellation.
//
// A non-positive d disables the race entirely and op runs inline. This is an
// explicit escape hatch for debugging, not a production default.
func Do[T any](ctx context.Context, provider string, d time.Duration, onTimeout func(), op func(context.Context) (T, error)) (T, error) {
	var zero T

	if d <= 0 {
		return op(ctx)
	}

	type outcome struct {
		val T
		err error
	}

	// Buffered so the abandoned goroutine can always deliver and exit.
	resultCh := make(chan outcome, 1)
	go func() {
		val, err := op(ctx)
		resultCh <- outcome{val: val, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.val, res.err
	case <-timer.C:
		if onTimeout != nil {
			onTimeout()
		}
		return zero, &scorerrors.TimeoutError{Provider: provider, Duration: d}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
