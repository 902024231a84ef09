// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the layout timestamps are stored in.
const TimeLayout = "2006-01-02 15:04:05"

// extraTimeLayouts are also accepted when reading a timestamp.
var extraTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// A codec converts values of one type to and from their stored text.
type codec[T any] struct {
	format func(T) (string, error)
	parse  func(string) (T, error)
}

var stringCodec = codec[string]{
	format: func(v string) (string, error) { return v, nil },
	parse:  func(text string) (string, error) { return text, nil },
}

var boolCodec = codec[bool]{
	format: func(v bool) (string, error) {
		if v {
			return "1", nil
		}
		return "0", nil
	},
	parse: func(text string) (bool, error) {
		return strconv.ParseBool(strings.TrimSpace(text))
	},
}

var intCodec = codec[int]{
	format: func(v int) (string, error) { return strconv.Itoa(v), nil },
	parse: func(text string) (int, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, strconv.IntSize)
		return int(n), err
	},
}

var uintCodec = codec[uint]{
	format: func(v uint) (string, error) { return strconv.FormatUint(uint64(v), 10), nil },
	parse: func(text string) (uint, error) {
		n, err := strconv.ParseUint(strings.TrimSpace(text), 10, strconv.IntSize)
		return uint(n), err
	},
}

var float32Codec = codec[float32]{
	format: func(v float32) (string, error) { return strconv.FormatFloat(float64(v), 'g', -1, 32), nil },
	parse: func(text string) (float32, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 32)
		return float32(f), err
	},
}

var float64Codec = codec[float64]{
	format: func(v float64) (string, error) { return strconv.FormatFloat(v, 'g', -1, 64), nil },
	parse: func(text string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	},
}

var passwordCodec = codec[string]{
	format: EncodePassword,
	parse:  DecodePassword,
}

func timeCodec(loc *time.Location) codec[time.Time] {
	return codec[time.Time]{
		format: func(v time.Time) (string, error) {
			return v.In(loc).Format(TimeLayout), nil
		},
		parse: func(text string) (time.Time, error) {
			text = strings.TrimSpace(text)
			t, err := time.ParseInLocation(TimeLayout, text, loc)
			if err == nil {
				return t, nil
			}
			for _, layout := range extraTimeLayouts {
				if t, err2 := time.ParseInLocation(layout, text, loc); err2 == nil {
					return t, nil
				}
			}
			return time.Time{}, err
		},
	}
}

// EncodePassword returns the stored form of a password: each character as two
// uppercase hex digits. It fails with ErrPasswordRange if s has a character
// above U+00FF. The encoding is reversible by anyone and is not encryption.
func EncodePassword(s string) (string, error) {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return "", fmt.Errorf("encode password: %w: %U", ErrPasswordRange, r)
		}
		b = append(b, byte(r))
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// DecodePassword reverses EncodePassword. Hex digits may be in either case.
// Text of odd length or with a non-hex character is an error.
func DecodePassword(text string) (string, error) {
	b, err := hex.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return "", fmt.Errorf("decode password: %w", err)
	}
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r), nil
}
