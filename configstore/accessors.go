// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"context"
	"time"
)

// read returns the value stored under section and key. If there is none, or
// the stored text is empty, the text form of def is stored and def returned. On any error read returns def
// along with the error.
func read[T any](s *Store, section, key string, def T, c codec[T]) (T, error) {
	text, ok, err := s.profile.GetValue(s.path, section, key)
	if err != nil {
		return def, s.fail("read", section, key, err)
	}
	if !ok || text == "" {
		text, err := c.format(def)
		if err != nil {
			return def, s.fail("store default", section, key, err)
		}
		if err := s.profile.SetValue(s.path, section, key, text); err != nil {
			return def, s.fail("store default", section, key, err)
		}
		return def, nil
	}
	v, err := c.parse(text)
	if err != nil {
		return def, s.fail("parse", section, key, err)
	}
	return v, nil
}

func write[T any](s *Store, section, key string, v T, c codec[T]) error {
	text, err := c.format(v)
	if err != nil {
		return s.fail("write", section, key, err)
	}
	if err := s.profile.SetValue(s.path, section, key, text); err != nil {
		return s.fail("write", section, key, err)
	}
	return nil
}

// readOrDefault is the boundary between read's errors and the Read methods,
// which log and fall back instead.
func readOrDefault[T any](ctx context.Context, s *Store, section, key string, def T, c codec[T]) T {
	v, err := read(s, section, key, def, c)
	s.ok(ctx, err)
	return v
}

// ReadString returns the string stored under section and key, storing and
// returning defaultValue if there is none. An empty stored value counts as none.
func (s *Store) ReadString(ctx context.Context, section, key, defaultValue string) string {
	return readOrDefault(ctx, s, section, key, defaultValue, stringCodec)
}

// WriteString stores value under section and key.
func (s *Store) WriteString(ctx context.Context, section, key, value string) bool {
	return s.ok(ctx, write(s, section, key, value, stringCodec))
}

// ReadBool returns the boolean stored under section and key. Besides "1" and
// "0" it accepts the spellings strconv.ParseBool does.
func (s *Store) ReadBool(ctx context.Context, section, key string, defaultValue bool) bool {
	return readOrDefault(ctx, s, section, key, defaultValue, boolCodec)
}

// WriteBool stores value as "1" or "0".
func (s *Store) WriteBool(ctx context.Context, section, key string, value bool) bool {
	return s.ok(ctx, write(s, section, key, value, boolCodec))
}

// ReadInt returns the integer stored under section and key.
func (s *Store) ReadInt(ctx context.Context, section, key string, defaultValue int) int {
	return readOrDefault(ctx, s, section, key, defaultValue, intCodec)
}

// WriteInt stores value in base 10.
func (s *Store) WriteInt(ctx context.Context, section, key string, value int) bool {
	return s.ok(ctx, write(s, section, key, value, intCodec))
}

// ReadUint returns the unsigned integer stored under section and key. A
// negative stored value yields defaultValue.
func (s *Store) ReadUint(ctx context.Context, section, key string, defaultValue uint) uint {
	return readOrDefault(ctx, s, section, key, defaultValue, uintCodec)
}

// WriteUint stores value in base 10.
func (s *Store) WriteUint(ctx context.Context, section, key string, value uint) bool {
	return s.ok(ctx, write(s, section, key, value, uintCodec))
}

// ReadFloat32 returns the number stored under section and key, rounded to
// single precision.
func (s *Store) ReadFloat32(ctx context.Context, section, key string, defaultValue float32) float32 {
	return readOrDefault(ctx, s, section, key, defaultValue, float32Codec)
}

// WriteFloat32 stores the shortest text that reads back as value.
func (s *Store) WriteFloat32(ctx context.Context, section, key string, value float32) bool {
	return s.ok(ctx, write(s, section, key, value, float32Codec))
}

// ReadFloat64 returns the number stored under section and key.
func (s *Store) ReadFloat64(ctx context.Context, section, key string, defaultValue float64) float64 {
	return readOrDefault(ctx, s, section, key, defaultValue, float64Codec)
}

// WriteFloat64 stores the shortest text that reads back as value.
func (s *Store) WriteFloat64(ctx context.Context, section, key string, value float64) bool {
	return s.ok(ctx, write(s, section, key, value, float64Codec))
}

// ReadTime returns the timestamp stored under section and key, interpreted in
// the Store's location. RFC 3339 and date-only values are also accepted.
func (s *Store) ReadTime(ctx context.Context, section, key string, defaultValue time.Time) time.Time {
	return readOrDefault(ctx, s, section, key, defaultValue, timeCodec(s.loc))
}

// WriteTime stores value to the second, formatted with TimeLayout in the
// Store's location.
func (s *Store) WriteTime(ctx context.Context, section, key string, value time.Time) bool {
	return s.ok(ctx, write(s, section, key, value, timeCodec(s.loc)))
}

// ReadPassword returns the password stored under section and key. A stored
// value that is not valid hex yields defaultValue. If there is no stored value,
// defaultValue is stored in encoded form; if it cannot be encoded, it is
// returned without being stored.
func (s *Store) ReadPassword(ctx context.Context, section, key, defaultValue string) string {
	return readOrDefault(ctx, s, section, key, defaultValue, passwordCodec)
}

// WritePassword stores value hex-encoded. It fails if value has a character
// above U+00FF.
func (s *Store) WritePassword(ctx context.Context, section, key, value string) bool {
	return s.ok(ctx, write(s, section, key, value, passwordCodec))
}

// DeleteKey removes key from section. Removing a missing key succeeds.
func (s *Store) DeleteKey(ctx context.Context, section, key string) bool {
	if err := s.profile.DeleteKey(s.path, section, key); err != nil {
		return s.ok(ctx, s.fail("delete", section, key, err))
	}
	return true
}

// Sections returns the names of the file's sections. It returns nil if the
// file cannot be read.
func (s *Store) Sections(ctx context.Context) []string {
	names, err := s.profile.Sections(s.path)
	if err != nil {
		s.ok(ctx, s.fail("list sections", "", "", err))
		return nil
	}
	return names
}

// Keys returns the keys in section. It returns nil if the file cannot be read.
func (s *Store) Keys(ctx context.Context, section string) []string {
	keys, err := s.profile.Keys(s.path, section)
	if err != nil {
		s.ok(ctx, s.fail("list keys", section, "", err))
		return nil
	}
	return keys
}
