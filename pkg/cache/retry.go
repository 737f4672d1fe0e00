package cache

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrNetwork marks failures talking to a remote backend.
var ErrNetwork = errors.New("cache backend unreachable")

// transientError marks an error worth retrying.
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// IsTransient reports whether err is a remote failure that a retry may fix.
func IsTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

// classify marks network failures of a remote backend as transient.
// Other errors, including cache misses, pass through unchanged.
func classify(err error) error {
	var ne net.Error
	if err != nil && errors.As(err, &ne) {
		return transientError{errors.Join(ErrNetwork, err)}
	}
	return err
}

// retryPolicy bounds how remote backends retry transient failures.
type retryPolicy struct {
	attempts int
	backoff  time.Duration // doubled after every failed attempt
}

// remoteRetry is used by the Redis and Mongo backends.
var remoteRetry = retryPolicy{attempts: 3, backoff: 200 * time.Millisecond}

// do runs fn until it succeeds, fails permanently, the attempts run out or
// ctx is done.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	delay := p.backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) || attempt >= p.attempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
