// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package profile gets and sets individual values in INI files on disk, in the
// manner of the Windows GetPrivateProfileString and WritePrivateProfileString
// functions. Every call reads the file afresh; nothing is cached.
package profile

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/yourbase/settings/ini"
)

// DefaultPerm is the mode given to files that Files creates.
const DefaultPerm fs.FileMode = 0o644

// Files reads and writes profile values directly in INI files.
// The zero value is ready to use.
type Files struct {
	// Perm is the mode used when a write creates a file.
	// Zero means DefaultPerm.
	Perm fs.FileMode
}

// GetValue returns the value stored under key in the named section of the file
// at path and reports whether it was present. A missing file holds no values.
func (p Files) GetValue(path, section, key string) (string, bool, error) {
	f, err := load(path)
	if err != nil {
		return "", false, err
	}
	v, ok := f.Lookup(section, key)
	return v, ok, nil
}

// SetValue stores value under key in the named section of the file at path,
// creating the file, section, or key as needed.
func (p Files) SetValue(path, section, key, value string) error {
	f, err := load(path)
	if err != nil {
		return err
	}
	if err := f.Set(section, key, value); err != nil {
		return fmt.Errorf("profile %s: %w", path, err)
	}
	return p.save(path, f)
}

// DeleteKey removes key from the named section of the file at path. Deleting
// a key that does not exist is not an error.
func (p Files) DeleteKey(path, section, key string) error {
	f, err := load(path)
	if err != nil {
		return err
	}
	if !f.Delete(section, key) {
		return nil
	}
	return p.save(path, f)
}

// DeleteSection removes the named section and everything in it.
func (p Files) DeleteSection(path, section string) error {
	f, err := load(path)
	if err != nil {
		return err
	}
	if !f.DeleteSection(section) {
		return nil
	}
	return p.save(path, f)
}

// Sections returns the section names in the file at path.
func (p Files) Sections(path string) ([]string, error) {
	f, err := load(path)
	if err != nil {
		return nil, err
	}
	return f.SectionNames(), nil
}

// Keys returns the keys in the named section of the file at path.
func (p Files) Keys(path, section string) ([]string, error) {
	f, err := load(path)
	if err != nil {
		return nil, err
	}
	return f.Keys(section), nil
}

func load(path string) (*ini.File, error) {
	f, err := ini.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return new(ini.File), nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return f, nil
}

func (p Files) save(path string, f *ini.File) error {
	perm := p.Perm
	if perm == 0 {
		perm = DefaultPerm
	}
	if err := f.WriteFile(path, perm); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}
