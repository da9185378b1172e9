package query

import (
	"context"
	"fmt"
	"time"

	"github.com/pbarbosa/descobre/pkg/spotify"
)

const (
	// maxRetries is the number of retries after the initial attempt for
	// transient failures. 4xx responses are never retried.
	maxRetries = 3

	// maxBackoff caps the exponential retry delay.
	maxBackoff = 30 * time.Second
)

// fetch returns the cached value for key when it is fresh, otherwise
// runs fn (deduplicated per key) and caches the result.
//
// When track is true the store's loading flag and error field follow
// the fetch; prefetches pass false so background work stays invisible.
func fetch[T any](ctx context.Context, s *Service, key string, pol policy, track bool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if value, fresh, ok := s.cache.lookup(key, pol); ok && fresh {
		return value.(T), nil
	}

	cl, owner := s.begin(key)
	if !owner {
		// Another request for the same key is already fetching; share
		// its result.
		select {
		case <-cl.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		if cl.err != nil {
			return zero, cl.err
		}
		return cl.value.(T), nil
	}

	if track {
		s.store.SetLoading(true)
		s.store.SetError("")
	}

	value, err := retryFetch(ctx, s, key, fn)
	if err == nil {
		s.cache.store(key, value, pol)
	}

	if track {
		s.store.SetLoading(false)
		if err != nil {
			s.store.SetError(err.Error())
		}
	}

	s.cache.finish(key, cl, value, err)

	if err != nil {
		return zero, err
	}
	return value, nil
}

// begin forwards to the cache's in-flight tracking.
func (s *Service) begin(key string) (*call, bool) {
	return s.cache.begin(key)
}

// retryFetch runs fn with up to maxRetries retries on transient
// failures, backing off exponentially (1s, 2s, 4s, capped at 30s).
// Client errors are returned immediately: a malformed or
// unauthorized-after-retry request does not improve with repetition.
func retryFetch[T any](ctx context.Context, s *Service, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}

		if !spotify.Retryable(err) || attempt >= maxRetries {
			return zero, err
		}

		delay := backoff(attempt)
		s.logger.Debug().Err(err).Str("key", key).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying fetch")

		if !s.sleep(ctx, delay) {
			return zero, fmt.Errorf("fetch cancelled: %w", ctx.Err())
		}
	}
}

// backoff returns the delay before retry number attempt (0-based):
// min(1s * 2^attempt, 30s).
func backoff(attempt int) time.Duration {
	delay := time.Second << attempt
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}

// sleepCtx waits for d or until ctx is cancelled. Returns true if the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
