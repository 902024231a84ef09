// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"errors"
	"fmt"
)

var (
	// ErrLockBusy means another holder kept the lock for the whole wait.
	ErrLockBusy = errors.New("lock held elsewhere")

	// ErrNoLock means the Store's lock could not be created.
	ErrNoLock = errors.New("lock unavailable")

	// ErrPasswordRange means a password had a character above U+00FF.
	ErrPasswordRange = errors.New("character out of range for password")
)

// Error describes a failed Store operation. Read and Write methods log these
// rather than return them.
type Error struct {
	Op      string
	Path    string
	Section string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Section == "" && e.Key == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s [%s] %s in %s: %v", e.Op, e.Section, e.Key, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
