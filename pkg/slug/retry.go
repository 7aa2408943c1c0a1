package slug

import (
	"context"
	"errors"
)

// DefaultRetryAttempts is how many times Retry runs fn before giving up.
const DefaultRetryAttempts = 3

// Retry runs fn until it succeeds, fails with an error other than ErrTaken, or has been
// attempted the given number of times. fn must re-read the namespace on every call.
// After the last conflict Retry returns ErrCollisionExhausted joined with that conflict.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = DefaultRetryAttempts
	}

	var last error
	for range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTaken) {
			return err
		}
		last = err
	}

	return errors.Join(ErrCollisionExhausted, last)
}
