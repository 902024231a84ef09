// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package envvar provides functions to read environment variables for
// configuration.
package envvar

import (
	"os"
	"path/filepath"
	"time"
)

// Get returns the value of the given environment variable. If it is empty or
// unset, it returns the default value.
func Get(key string, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}

// Duration returns the value of an environment variable parsed with
// time.ParseDuration. If it is unset or does not parse, it returns the default
// value.
func Duration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

// DesktopDir returns the current user's desktop folder. It uses
// XDG_DESKTOP_DIR if set (expanding $HOME, as xdg-user-dirs writes it) and
// otherwise the Desktop folder in the home directory. If the home directory
// is unknown, it returns the temporary directory.
func DesktopDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	if dir := os.Getenv("XDG_DESKTOP_DIR"); dir != "" {
		return os.Expand(dir, func(name string) string {
			if name == "HOME" {
				return home
			}
			return os.Getenv(name)
		})
	}
	if home == "" {
		return os.TempDir()
	}
	return filepath.Join(home, "Desktop")
}
