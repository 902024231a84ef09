// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"context"
	"errors"

	"github.com/yourbase/settings/retry"
	"zombiezen.com/go/log"
)

// AcquireLock takes the Store's lock, waiting up to the lock timeout for
// another process to release it. It reports whether the lock was taken. Running
// out of time is not logged; any other failure is logged as a warning.
func (s *Store) AcquireLock(ctx context.Context) bool {
	ok, err := s.tryLock(ctx)
	if err != nil {
		log.Warnf(ctx, "%s: %v", component, err)
		return false
	}
	if !ok {
		log.Debugf(ctx, "%s: %s busy after %v", component, s.path, s.lockTimeout)
	}
	return ok
}

// ReleaseLock releases the Store's lock. Errors, including releasing a lock
// that is not held, are logged and otherwise ignored.
func (s *Store) ReleaseLock(ctx context.Context) {
	if s.lock == nil {
		s.ok(ctx, s.fail("unlock", "", "", ErrNoLock))
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.ok(ctx, s.fail("unlock", "", "", err))
	}
}

// WithLock calls f while holding the Store's lock and releases the lock when f
// returns or panics. If the lock cannot be taken, f is not called and WithLock
// returns an error wrapping ErrLockBusy or the cause.
func (s *Store) WithLock(ctx context.Context, f func() error) error {
	ok, err := s.tryLock(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return s.fail("lock", "", "", ErrLockBusy)
	}
	defer s.ReleaseLock(ctx)
	return f()
}

// WaitLock tries to take the Store's lock until it succeeds or ctx is done,
// pausing between attempts as directed by strategy. Each attempt waits up to
// the lock timeout. A Store without a lock fails at once with ErrNoLock.
func (s *Store) WaitLock(ctx context.Context, strategy retry.BackoffStrategy) error {
	return retry.Do(ctx, "acquiring lock for "+s.path, strategy, func() error {
		ok, err := s.tryLock(ctx)
		if errors.Is(err, ErrNoLock) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		if !ok {
			return s.fail("lock", "", "", ErrLockBusy)
		}
		return nil
	})
}

func (s *Store) tryLock(ctx context.Context) (bool, error) {
	if s.lock == nil {
		return false, s.fail("lock", "", "", ErrNoLock)
	}
	ok, err := s.lock.TryLock(ctx, s.lockTimeout)
	if err != nil {
		return false, s.fail("lock", "", "", err)
	}
	return ok, nil
}
