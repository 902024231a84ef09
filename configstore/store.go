// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/yourbase/settings/envvar"
	"github.com/yourbase/settings/namedlock"
	"github.com/yourbase/settings/profile"
	"zombiezen.com/go/log"
)

// component prefixes every log message from this package.
const component = "configstore"

// Defaults for Options fields.
const (
	DefaultSubDirectory = "etc"
	DefaultLockTimeout  = 100 * time.Millisecond
)

// Environment variables consulted for Options defaults.
const (
	LockDirEnv     = "SETTINGS_LOCK_DIR"
	LockTimeoutEnv = "SETTINGS_LOCK_TIMEOUT"
)

// Profile is the storage a Store reads and writes values through.
// profile.Files is the implementation used unless Options says otherwise.
type Profile interface {
	// GetValue returns the value stored under key in the named section of the
	// file at path and reports whether it was present.
	GetValue(path, section, key string) (value string, ok bool, err error)
	// SetValue stores value under key, creating the section or key as needed.
	SetValue(path, section, key, value string) error
	DeleteKey(path, section, key string) error
	Sections(path string) ([]string, error)
	Keys(path, section string) ([]string, error)
}

// Options holds optional parameters for New. Nil options are treated
// identically as passing the zero value.
type Options struct {
	// SubDirectory is the directory under the base path that holds the file.
	// If empty, DefaultSubDirectory is used.
	SubDirectory string

	// DesktopDir is where the file goes if SubDirectory cannot be created.
	// If empty, envvar.DesktopDir() is used.
	DesktopDir string

	// LockDir holds the lock files. If empty, $SETTINGS_LOCK_DIR is used,
	// falling back to os.TempDir(). Processes only share a lock if they use
	// the same LockDir.
	LockDir string

	// LockTimeout is how long AcquireLock waits. If zero,
	// $SETTINGS_LOCK_TIMEOUT is used, falling back to DefaultLockTimeout.
	LockTimeout time.Duration

	// Location is the time zone of stored timestamps. If nil, time.Local.
	Location *time.Location

	// Profile reads and writes values. If nil, profile.Files{} is used.
	Profile Profile
}

// Store gives typed access to the values in a single INI file.
type Store struct {
	// LastReadTime is for the owner of the Store to record when it last loaded
	// its settings. The Store never sets it.
	LastReadTime time.Time

	fileName    string
	path        string
	profile     Profile
	loc         *time.Location
	lockTimeout time.Duration
	lock        *namedlock.Lock // nil if the lock could not be created
}

// New returns a Store for the file named fileName in the subdirectory of
// basePath given by opts. New creates the subdirectory if needed. If that
// fails, New logs a warning and places the file in the desktop folder. The
// Store's lock is created but not taken; failure to create it is logged and
// makes every later AcquireLock fail.
//
// Call Close when done with the Store to release its lock.
func New(ctx context.Context, basePath, fileName string, opts *Options) *Store {
	if opts == nil {
		opts = new(Options)
	}
	s := &Store{
		fileName:    fileName,
		profile:     opts.Profile,
		loc:         opts.Location,
		lockTimeout: opts.LockTimeout,
	}
	if s.profile == nil {
		s.profile = profile.Files{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.lockTimeout == 0 {
		s.lockTimeout = envvar.Duration(LockTimeoutEnv, DefaultLockTimeout)
	}

	subDir := opts.SubDirectory
	if subDir == "" {
		subDir = DefaultSubDirectory
	}
	dir := filepath.Join(basePath, subDir)
	s.path = filepath.Join(dir, fileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warnf(ctx, "%s: %v", component, err)
		desktop := opts.DesktopDir
		if desktop == "" {
			desktop = envvar.DesktopDir()
		}
		s.path = filepath.Join(desktop, fileName)
		log.Infof(ctx, "%s: using %s", component, s.path)
	}
	if abs, err := filepath.Abs(s.path); err == nil {
		s.path = abs
	}

	lockDir := opts.LockDir
	if lockDir == "" {
		lockDir = envvar.Get(LockDirEnv, os.TempDir())
	}
	lock, err := namedlock.New(lockDir, namedlock.Name(s.path))
	if err != nil {
		log.Warnf(ctx, "%s: %v", component, err)
	} else {
		s.lock = lock
	}
	return s
}

// Path returns the absolute path of the settings file.
func (s *Store) Path() string {
	return s.path
}

// FileName returns the file name passed to New.
func (s *Store) FileName() string {
	return s.fileName
}

// LastWriteTime returns the modification time of the settings file in UTC.
// If the file cannot be examined, LastWriteTime logs a warning and returns the
// zero time.
func (s *Store) LastWriteTime(ctx context.Context) time.Time {
	info, err := os.Stat(s.path)
	if err != nil {
		log.Warnf(ctx, "%s: %v", component, &Error{Op: "stat", Path: s.path, Err: err})
		return time.Time{}
	}
	return info.ModTime().UTC()
}

// Close releases the Store's lock if it is held. The Store must not be used
// after Close.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	if err := s.lock.Close(); err != nil {
		return &Error{Op: "close", Path: s.path, Err: err}
	}
	return nil
}

func (s *Store) fail(op, section, key string, err error) error {
	return &Error{Op: op, Path: s.path, Section: section, Key: key, Err: err}
}

// ok logs err, if any, and reports whether err was nil.
func (s *Store) ok(ctx context.Context, err error) bool {
	if err != nil {
		log.Warnf(ctx, "%s: %v", component, err)
		return false
	}
	return true
}
