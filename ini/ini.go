// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLineLength is the longest line Parse accepts, in bytes.
const MaxLineLength = 64 * 1024

// Errors returned by File.Set.
var (
	ErrInvalidSection = errors.New("invalid section name")
	ErrInvalidKey     = errors.New("invalid key")
)

// A File is an INI document held in memory. The zero value is an empty file.
// Files can be read by multiple concurrent goroutines.
type File struct {
	// sections[0], when present, is always the global section.
	sections []section
	trailing []string
}

type section struct {
	name string
	// leading holds the comment and unrecognized lines above the header.
	leading    []string
	properties []property
}

type property struct {
	leading []string
	key     string
	value   string
}

// Parse reads an INI document from r. Parse only fails if r returns an error
// or a line is longer than MaxLineLength; malformed lines are kept as opaque
// text. See the package documentation for the recognized syntax.
func Parse(r io.Reader) (*File, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLineLength)
	f := &File{sections: []section{{}}}
	var pending []string
	lineno := 0
	for s.Scan() {
		lineno++
		line := s.Bytes()
		if lineno == 1 {
			line = bytes.TrimPrefix(line, []byte("\uFEFF"))
		}
		text := strings.TrimFunc(string(line), unicode.IsSpace)
		switch kind, name, value := classify(text); kind {
		case blankLine:
		case opaqueLine:
			pending = append(pending, text)
		case headerLine:
			f.sections = append(f.sections, section{name: name, leading: pending})
			pending = nil
		case propertyLine:
			curr := &f.sections[len(f.sections)-1]
			curr.properties = append(curr.properties, property{
				leading: pending,
				key:     name,
				value:   value,
			})
			pending = nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("parse ini: line %d: %w", lineno+1, err)
	}
	f.trailing = pending
	return f, nil
}

type lineKind int

const (
	blankLine lineKind = iota
	opaqueLine
	headerLine
	propertyLine
)

// classify determines what a trimmed line holds. For headers it returns the
// section name; for properties, the key and the decoded value.
func classify(line string) (_ lineKind, name, value string) {
	if line == "" {
		return blankLine, "", ""
	}
	switch line[0] {
	case ';', '#':
		return opaqueLine, "", ""
	case '[':
		if !strings.HasSuffix(line, "]") {
			return opaqueLine, "", ""
		}
		name = strings.TrimFunc(line[1:len(line)-1], unicode.IsSpace)
		if name == "" || !IsValidSection(name) {
			return opaqueLine, "", ""
		}
		return headerLine, name, ""
	}
	i := strings.IndexByte(line, '=')
	if i == -1 {
		return opaqueLine, "", ""
	}
	key := strings.TrimRightFunc(line[:i], unicode.IsSpace)
	if !IsValidKey(key) {
		return opaqueLine, "", ""
	}
	raw := strings.TrimLeftFunc(line[i+1:], unicode.IsSpace)
	if v, ok := unquote(raw); ok {
		return propertyLine, key, v
	}
	return propertyLine, key, raw
}

// unquote decodes a double-quoted value. It reports false if v is not quoted
// or the quoting is malformed.
func unquote(v string) (string, bool) {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return "", false
	}
	v = v[1 : len(v)-1]
	sb := new(strings.Builder)
	sb.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '"' {
			return "", false
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(v) {
			return "", false
		}
		i++
		switch v[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '"':
			sb.WriteByte(v[i])
		case 'x':
			if i+2 >= len(v) || !isHexDigit(v[i+1]) || !isHexDigit(v[i+2]) {
				return "", false
			}
			sb.WriteByte(fromHex(v[i+1])<<4 | fromHex(v[i+2]))
			i += 2
		default:
			return "", false
		}
	}
	return sb.String(), true
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' ||
		'a' <= c && c <= 'f' ||
		'A' <= c && c <= 'F'
}

func fromHex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 0xa
	default:
		return c - 'A' + 0xa
	}
}

// Lookup returns the last value for key in the named section and reports
// whether the key was present. The empty section name refers to properties
// outside any section.
func (f *File) Lookup(sectionName, key string) (string, bool) {
	if f == nil {
		return "", false
	}
	for i := len(f.sections) - 1; i >= 0; i-- {
		s := &f.sections[i]
		if !strings.EqualFold(s.name, sectionName) {
			continue
		}
		for j := len(s.properties) - 1; j >= 0; j-- {
			if strings.EqualFold(s.properties[j].key, key) {
				return s.properties[j].value, true
			}
		}
	}
	return "", false
}

// Get is like Lookup but returns the empty string for a missing key.
func (f *File) Get(sectionName, key string) string {
	v, _ := f.Lookup(sectionName, key)
	return v
}

// SectionNames returns the names of the file's sections in the order they
// first appear, including sections without properties. The global section is
// listed first, as "", only if it has properties.
func (f *File) SectionNames() []string {
	if f == nil {
		return nil
	}
	var names []string
	for i, s := range f.sections {
		if i == 0 && s.name == "" && len(s.properties) == 0 {
			continue
		}
		if !containsFold(names, s.name) {
			names = append(names, s.name)
		}
	}
	return names
}

// Keys returns the distinct keys in the named section, in the order they
// first appear.
func (f *File) Keys(sectionName string) []string {
	if f == nil {
		return nil
	}
	var keys []string
	for _, s := range f.sections {
		if !strings.EqualFold(s.name, sectionName) {
			continue
		}
		for _, p := range s.properties {
			if !containsFold(keys, p.key) {
				keys = append(keys, p.key)
			}
		}
	}
	return keys
}

func containsFold(list []string, s string) bool {
	for _, elem := range list {
		if strings.EqualFold(elem, s) {
			return true
		}
	}
	return false
}

// Set stores value under key in the named section. An existing property keeps
// its position and spelling and any earlier duplicates are removed. A new
// property goes at the end of the last section with that name, or in a new
// section at the end of the file.
func (f *File) Set(sectionName, key, value string) error {
	if !IsValidSection(sectionName) {
		return fmt.Errorf("set [%s] %s: %w", sectionName, key, ErrInvalidSection)
	}
	if !IsValidKey(key) {
		return fmt.Errorf("set [%s] %s: %w", sectionName, key, ErrInvalidKey)
	}
	var target *section
	wrote := false
	for i := len(f.sections) - 1; i >= 0; i-- {
		s := &f.sections[i]
		if !strings.EqualFold(s.name, sectionName) {
			continue
		}
		if target == nil {
			target = s
		}
		for j := len(s.properties) - 1; j >= 0; j-- {
			if !strings.EqualFold(s.properties[j].key, key) {
				continue
			}
			if !wrote {
				s.properties[j].value = value
				wrote = true
				continue
			}
			s.properties = removeProperty(s.properties, j)
		}
	}
	if wrote {
		return nil
	}
	if target == nil {
		target = f.addSection(sectionName)
	}
	target.properties = append(target.properties, property{key: key, value: value})
	return nil
}

func (f *File) addSection(name string) *section {
	if name != "" {
		f.sections = append(f.sections, section{name: name})
		return &f.sections[len(f.sections)-1]
	}
	// The global section must stay first.
	f.sections = append(f.sections, section{})
	copy(f.sections[1:], f.sections)
	f.sections[0] = section{}
	return &f.sections[0]
}

func removeProperty(props []property, i int) []property {
	copy(props[i:], props[i+1:])
	props[len(props)-1] = property{}
	return props[:len(props)-1]
}

// Delete removes every property with the given key from the named section and
// reports whether anything was removed. Comments attached to a removed
// property move to the property that followed it.
func (f *File) Delete(sectionName, key string) bool {
	if f == nil {
		return false
	}
	removed := false
	for i := range f.sections {
		s := &f.sections[i]
		if !strings.EqualFold(s.name, sectionName) {
			continue
		}
		kept := s.properties[:0]
		var orphans []string
		for _, p := range s.properties {
			if strings.EqualFold(p.key, key) {
				orphans = append(orphans, p.leading...)
				removed = true
				continue
			}
			if len(orphans) > 0 {
				p.leading = append(orphans, p.leading...)
				orphans = nil
			}
			kept = append(kept, p)
		}
		for j := len(kept); j < len(s.properties); j++ {
			s.properties[j] = property{}
		}
		s.properties = kept
		if len(orphans) > 0 {
			if i+1 < len(f.sections) {
				f.sections[i+1].leading = append(orphans, f.sections[i+1].leading...)
			} else {
				f.trailing = append(orphans, f.trailing...)
			}
		}
	}
	return removed
}

// DeleteSection removes every section with the given name, along with its
// properties and comments. Deleting the global section clears its properties.
func (f *File) DeleteSection(sectionName string) bool {
	if f == nil {
		return false
	}
	removed := false
	n := 0
	for i, s := range f.sections {
		if !strings.EqualFold(s.name, sectionName) {
			f.sections[n] = s
			n++
			continue
		}
		removed = true
		if i == 0 && s.name == "" {
			f.sections[n] = section{}
			n++
		}
	}
	for i := n; i < len(f.sections); i++ {
		f.sections[i] = section{}
	}
	f.sections = f.sections[:n]
	return removed
}

// MarshalText serializes the file, including comments and unrecognized lines.
// Sections are separated by a blank line.
func (f *File) MarshalText() ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	var buf []byte
	for _, s := range f.sections {
		if s.name != "" && len(buf) > 0 {
			buf = append(buf, '\n')
		}
		buf = appendLines(buf, s.leading)
		if s.name != "" {
			buf = append(buf, '[')
			buf = append(buf, s.name...)
			buf = append(buf, "]\n"...)
		}
		for _, p := range s.properties {
			buf = appendLines(buf, p.leading)
			buf = append(buf, p.key...)
			buf = append(buf, '=')
			if needsQuotes(p.value) {
				buf = appendQuoted(buf, p.value)
			} else {
				buf = append(buf, p.value...)
			}
			buf = append(buf, '\n')
		}
	}
	if len(f.trailing) > 0 && len(buf) > 0 {
		buf = append(buf, '\n')
	}
	buf = appendLines(buf, f.trailing)
	return buf, nil
}

// UnmarshalText parses data, replacing the contents of f.
func (f *File) UnmarshalText(data []byte) error {
	parsed, err := Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}

func appendLines(dst []byte, lines []string) []byte {
	for _, line := range lines {
		dst = append(dst, line...)
		dst = append(dst, '\n')
	}
	return dst
}

const del = '\x7f'

func needsQuotes(v string) bool {
	if v == "" {
		return false
	}
	if strings.TrimFunc(v, unicode.IsSpace) != v {
		return true
	}
	if v[0] == '"' {
		return true
	}
	for i := 0; i < len(v); i++ {
		if c := v[i]; c < ' ' || c == del {
			return true
		}
	}
	return false
}

func appendQuoted(dst []byte, v string) []byte {
	const hexDigits = "0123456789abcdef"
	dst = append(dst, '"')
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\\' || c == '"':
			dst = append(dst, '\\', c)
		case c < ' ' || c == del:
			dst = append(dst, '\\', 'x', hexDigits[c>>4], hexDigits[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

// IsValidSection reports whether name can be written as a section header.
// The empty string names the global section and is valid.
func IsValidSection(name string) bool {
	if name == "" {
		return true
	}
	if hasSpaceAtEnds(name) {
		return false
	}
	return !strings.ContainsAny(name, "[]\r\n")
}

// IsValidKey reports whether key can be written as a property key.
func IsValidKey(key string) bool {
	if key == "" || hasSpaceAtEnds(key) {
		return false
	}
	if key[0] == '[' || key[0] == ']' {
		return false
	}
	return !strings.ContainsAny(key, ";#=\r\n")
}

func hasSpaceAtEnds(s string) bool {
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}
