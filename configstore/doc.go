// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

/*
Package configstore provides typed access to the values in one INI settings
file.

A Store is created once per settings file. Its path is built from a base
directory, a subdirectory ("etc" by default) and a file name; if the
subdirectory cannot be created, the file goes in the user's desktop folder
instead. The file is read or written on every call: a Store keeps no copy of
its contents.

Reads and writes

Each supported type has a Read and a Write method. A Read of a key that is not
in the file stores the default value under it and returns the default, so the
first default passed for a key is the one that sticks. A stored value that does
not parse as the requested type yields the default.

Read and Write methods never return errors. A failure is logged as a warning
through zombiezen.com/go/log, using the Context passed to the method, and the
method returns the default value or false.

Canonical text forms:

	bool       "1" or "0"
	integers   base 10
	floats     shortest form that reads back to the same value
	time.Time  "2006-01-02 15:04:05" in the Store's location
	password   two uppercase hex digits per character

Passwords

ReadPassword and WritePassword store a string as the hex encoding of its
characters, which must all be in the range U+0000 to U+00FF. This only keeps
the value from being read at a glance. It is not encryption.

Locking

Every Store has a named lock shared with all other processes that use the same
settings file. Read and Write methods do not take it. Callers that need a
read-modify-write sequence to be atomic across processes use AcquireLock and
ReleaseLock, or WithLock. AcquireLock waits at most 100 milliseconds by default
and never retries; WaitLock retries on the caller's behalf.

A Store is not safe for concurrent use by multiple goroutines.
*/
package configstore
