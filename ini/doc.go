// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

/*
Package ini reads and edits INI files the way the Windows profile-string
functions treat them. See https://en.wikipedia.org/wiki/INI_file.

The package is built for read-modify-write: a File remembers comments and any
lines it could not make sense of, and writes them back untouched around the
properties that were edited.

Syntax

An INI file is UTF-8 text made of lines. Blank lines are ignored. A line whose
first non-whitespace character is a semicolon (';') or a hash ('#') is a
comment. A section header is a name in square brackets:

	[section]

A property is a key and a value separated by the first equals sign ('='):

	key=value

Whitespace around section names, keys, and values is ignored. Values may be
surrounded by double quotes ('"') to keep leading or trailing whitespace or to
use C-style escapes:

	\n    U+000A line feed or newline
	\r    U+000D carriage return
	\t    U+0009 horizontal tab
	\\    U+005C backslash
	\"    U+0022 double quote
	\xFF  hex escape

A quoted value that is not well formed is kept as literal text.

Properties before the first section header belong to the global section,
named by the empty string ("").

Any other line (a key with a semicolon in it, a header without a closing
bracket, text without an equals sign) is not an error. It is kept in place and
ignored for lookups, which matches what the profile-string API does.

Matching

Section names and keys are matched without regard to case. The spelling found
in the file is kept when a value is rewritten.

Repeated names

When a key appears more than once in a section, the last one wins. Sections
that appear more than once are treated as a single section.
*/
package ini
