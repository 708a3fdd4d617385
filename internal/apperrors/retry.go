package apperrors

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxRetries = 3

// RetryNetwork runs op, retrying up to maxRetries times with exponential
// backoff, but only while the failure classifies as a network error.
// Validation, authentication and server errors are returned immediately.
func RetryNetwork(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(100*time.Millisecond),
			backoff.WithMaxInterval(2*time.Second),
		), maxRetries),
		ctx,
	)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		classified := Classify(err)
		if KindOf(classified) == KindNetwork {
			return classified
		}
		return backoff.Permanent(classified)
	}, bo)
}
