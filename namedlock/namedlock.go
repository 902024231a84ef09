// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package namedlock provides advisory locks that are shared between processes
// by name. A lock is backed by an OS file lock on a file in a common directory,
// so the operating system releases it if the holding process dies.
package namedlock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrNotHeld is returned by Unlock when the lock is not held.
var ErrNotHeld = errors.New("lock not held")

// pollInterval is how often TryLock retries while waiting.
const pollInterval = 10 * time.Millisecond

// maxNameLength bounds the names Name returns, leaving room for the ".lock"
// suffix within the usual 255-byte file name limit.
const maxNameLength = 200

// Name derives a lock name from a file path by replacing path separators and
// drive-letter colons with underscores. Equal paths give equal names. A name
// longer than maxNameLength is cut short and ends with a hash of the full
// path instead.
func Name(path string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		default:
			return r
		}
	}, path)
	if len(name) <= maxNameLength {
		return name
	}
	sum := sha256.Sum256([]byte(path))
	suffix := "_" + hex.EncodeToString(sum[:8])
	return name[:maxNameLength-len(suffix)] + suffix
}

// A Lock is a named lock. A Lock is not safe for concurrent use by multiple
// goroutines.
type Lock struct {
	name string
	fl   *flock.Flock
}

// New returns the lock with the given name. Its lock file lives in dir, which
// is created if it does not exist. Every process that uses the same directory
// and name shares the lock.
func New(dir, name string) (*Lock, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("new lock %q: invalid name", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("new lock %q: %w", name, err)
	}
	return &Lock{
		name: name,
		fl:   flock.New(filepath.Join(dir, name+".lock")),
	}, nil
}

// Name returns the lock's name.
func (l *Lock) Name() string {
	return l.name
}

// Path returns the path of the lock's backing file.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Locked reports whether l currently holds the lock.
func (l *Lock) Locked() bool {
	return l.fl.Locked()
}

// TryLock attempts to take the lock, waiting up to timeout for another holder
// to release it. It returns false with a nil error if the timeout passes first.
// A timeout of zero or less makes a single attempt. If ctx is done before the
// lock is taken, TryLock returns ctx.Err().
//
// Taking a lock that l already holds succeeds immediately.
func (l *Lock) TryLock(ctx context.Context, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("lock %s: %w", l.name, err)
	}
	if timeout <= 0 {
		ok, err := l.fl.TryLock()
		if err != nil {
			return false, fmt.Errorf("lock %s: %w", l.name, err)
		}
		return ok, nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ok, err := l.fl.TryLockContext(waitCtx, pollInterval)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, fmt.Errorf("lock %s: %w", l.name, err)
	}
	return ok, nil
}

// Unlock releases the lock. It returns ErrNotHeld if l does not hold it.
func (l *Lock) Unlock() error {
	if !l.fl.Locked() {
		return fmt.Errorf("unlock %s: %w", l.name, ErrNotHeld)
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.name, err)
	}
	return nil
}

// Close releases the lock if it is held. The backing file is left in place:
// removing it would let a waiting process lock a file no one else can see.
func (l *Lock) Close() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("close lock %s: %w", l.name, err)
	}
	return nil
}
