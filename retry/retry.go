// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package retry provides a function for retrying an operation.
package retry

import (
	"context"
	"errors"
	"time"

	"zombiezen.com/go/log"
)

// A BackoffStrategy can be called repeatedly to obtain (presumably) increasing
// durations to wait between retries.
type BackoffStrategy interface {
	Duration() time.Duration
}

// Constant is a BackoffStrategy that always waits the same duration.
type Constant time.Duration

// Duration returns d.
func (d Constant) Duration() time.Duration {
	return time.Duration(d)
}

// Exponential is a BackoffStrategy that doubles its wait after each call,
// starting at Initial and never exceeding Max. A zero Max means no limit.
// An Exponential must not be shared between concurrent calls to Do.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration

	next time.Duration
}

// Duration returns the next wait.
func (e *Exponential) Duration() time.Duration {
	if e.next == 0 {
		e.next = e.Initial
	}
	d := e.next
	e.next *= 2
	if e.Max > 0 && e.next > e.Max {
		e.next = e.Max
	}
	return d
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do stops retrying and returns err at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// Do calls a function repeatedly, waiting between calls as directed by
// strategy, until it returns a nil error. Do returns an error only if the
// function returns an error wrapped by Permanent or does not return nil before
// the Context is Done. The function is guaranteed to be called at least once.
//
// The operation should be a verb phrase like "talking to Alice" for logging.
func Do(ctx context.Context, operation string, strategy BackoffStrategy, f func() error) error {
	var t *time.Timer
	for {
		err := f()
		if err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		d := strategy.Duration()
		if d <= 0 {
			log.Debugf(ctx, "Error %s (will retry): %v", operation, err)
			select {
			case <-ctx.Done():
				return err
			default:
			}
			continue
		}
		log.Debugf(ctx, "Error %s (will retry in %v): %v", operation, d, err)
		if t == nil {
			t = time.NewTimer(d)
			defer t.Stop()
		} else {
			t.Reset(d)
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return err
		}
	}
}
