// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package ini

import (
	"encoding"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Ensure File satisfies the encoding.Text* interfaces.
var _ interface {
	encoding.TextMarshaler
	encoding.TextUnmarshaler
} = new(File)

func TestNil(t *testing.T) {
	f := (*File)(nil)
	if got, ok := f.Lookup("foo", "bar"); ok || got != "" {
		t.Errorf("Lookup(...) = %q, %t; want \"\", false", got, ok)
	}
	if got := f.SectionNames(); len(got) > 0 {
		t.Errorf("SectionNames() = %q; want empty", got)
	}
	if got := f.Keys("foo"); len(got) > 0 {
		t.Errorf("Keys(...) = %q; want empty", got)
	}
	if f.Delete("foo", "bar") {
		t.Error("Delete(...) = true; want false")
	}
	if got, err := f.MarshalText(); err != nil {
		t.Errorf("MarshalText(): %v", err)
	} else if len(got) > 0 {
		t.Errorf("MarshalText() = %q; want empty", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		want      map[string]map[string]string
		canonical string
	}{
		{
			name: "Empty",
		},
		{
			name:   "Single",
			source: "FOO=bar\n",
			want: map[string]map[string]string{
				"": {"FOO": "bar"},
			},
			canonical: "FOO=bar\n",
		},
		{
			name:   "SpaceSurroundingBoth",
			source: " FOO = bar \n",
			want: map[string]map[string]string{
				"": {"FOO": "bar"},
			},
			canonical: "FOO=bar\n",
		},
		{
			name:   "NoNewline",
			source: "FOO=bar",
			want: map[string]map[string]string{
				"": {"FOO": "bar"},
			},
			canonical: "FOO=bar\n",
		},
		{
			name:   "EmptyValue",
			source: "FOO=\n",
			want: map[string]map[string]string{
				"": {"FOO": ""},
			},
			canonical: "FOO=\n",
		},
		{
			name:   "EqualsInValue",
			source: "FOO=a=b\n",
			want: map[string]map[string]string{
				"": {"FOO": "a=b"},
			},
			canonical: "FOO=a=b\n",
		},
		{
			name:   "RepeatedKeyLastWins",
			source: "FOO=bar\nFOO=baz\n",
			want: map[string]map[string]string{
				"": {"FOO": "baz"},
			},
			canonical: "FOO=bar\nFOO=baz\n",
		},
		{
			name:   "CRLF",
			source: "FOO=bar\r\n\r\nBAZ=quux\r\n",
			want: map[string]map[string]string{
				"": {"FOO": "bar", "BAZ": "quux"},
			},
			canonical: "FOO=bar\nBAZ=quux\n",
		},
		{
			name:   "ByteOrderMark",
			source: "\uFEFF[foo]\nbar=baz\n",
			want: map[string]map[string]string{
				"foo": {"bar": "baz"},
			},
			canonical: "[foo]\nbar=baz\n",
		},
		{
			name:   "SectionWhitespace",
			source: "  [  foo  ] \nbar=baz\n",
			want: map[string]map[string]string{
				"foo": {"bar": "baz"},
			},
			canonical: "[foo]\nbar=baz\n",
		},
		{
			name:   "EmptySection",
			source: "[foo]\n",
			want: map[string]map[string]string{
				"foo": {},
			},
			canonical: "[foo]\n",
		},
		{
			name:   "MultipleSections",
			source: "[foo]\nbar=baz\n[python]\nspam=eggs\n",
			want: map[string]map[string]string{
				"foo":    {"bar": "baz"},
				"python": {"spam": "eggs"},
			},
			canonical: "[foo]\nbar=baz\n\n[python]\nspam=eggs\n",
		},
		{
			name:   "RepeatedSection",
			source: "[foo]\na=1\n[bar]\nb=2\n[FOO]\na=3\n",
			want: map[string]map[string]string{
				"foo": {"a": "3"},
				"bar": {"b": "2"},
			},
			canonical: "[foo]\na=1\n\n[bar]\nb=2\n\n[FOO]\na=3\n",
		},
		{
			name:   "Comments",
			source: "; top\n[foo]\n# about bar\nbar=baz\n",
			want: map[string]map[string]string{
				"foo": {"bar": "baz"},
			},
			canonical: "; top\n[foo]\n# about bar\nbar=baz\n",
		},
		{
			name:   "TrailingComment",
			source: "FOO=bar\n; the end\n",
			want: map[string]map[string]string{
				"": {"FOO": "bar"},
			},
			canonical: "FOO=bar\n\n; the end\n",
		},
		{
			name:      "SemicolonKeyIsOpaque",
			source:    "FOO;Bar=bar\n",
			canonical: "FOO;Bar=bar\n",
		},
		{
			name:   "NoEqualsIsOpaque",
			source: "FOO\nBAR=baz\n",
			want: map[string]map[string]string{
				"": {"BAR": "baz"},
			},
			canonical: "FOO\nBAR=baz\n",
		},
		{
			name:   "MissingSectionNameIsOpaque",
			source: "[]\nbar=baz\n",
			want: map[string]map[string]string{
				"": {"bar": "baz"},
			},
			canonical: "[]\nbar=baz\n",
		},
		{
			name:   "MismatchedSectionBracketIsOpaque",
			source: "[foo]]\nbar=baz\n",
			want: map[string]map[string]string{
				"": {"bar": "baz"},
			},
			canonical: "[foo]]\nbar=baz\n",
		},
		{
			name:   "QuotedWhitespace",
			source: `FOO=" bar "` + "\n",
			want: map[string]map[string]string{
				"": {"FOO": " bar "},
			},
			canonical: `FOO=" bar "` + "\n",
		},
		{
			name:   "QuotedEscapes",
			source: `FOO="a\tb\x41\\\""` + "\n",
			want: map[string]map[string]string{
				"": {"FOO": "a\tbA\\\""},
			},
			canonical: `FOO="a\tbA\\\""` + "\n",
		},
		{
			name:   "UnterminatedQuoteIsLiteral",
			source: `FOO="bar` + "\n",
			want: map[string]map[string]string{
				"": {"FOO": `"bar`},
			},
			canonical: `FOO="\"bar"` + "\n",
		},
		{
			name:   "InnerQuoteIsLiteral",
			source: `FOO=a"b` + "\n",
			want: map[string]map[string]string{
				"": {"FOO": `a"b`},
			},
			canonical: `FOO=a"b` + "\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(test.source))
			if err != nil {
				t.Fatal("Parse:", err)
			}
			if diff := cmp.Diff(test.want, dump(f), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("parsed (-want +got):\n%s", diff)
			}
			got, err := f.MarshalText()
			if err != nil {
				t.Fatal("MarshalText:", err)
			}
			if diff := cmp.Diff(test.canonical, string(got)); diff != "" {
				t.Errorf("MarshalText() (-want +got):\n%s", diff)
			}

			// Serializing the canonical form must be stable.
			f2 := new(File)
			if err := f2.UnmarshalText(got); err != nil {
				t.Fatal("UnmarshalText:", err)
			}
			got2, err := f2.MarshalText()
			if err != nil {
				t.Fatal("MarshalText:", err)
			}
			if diff := cmp.Diff(string(got), string(got2)); diff != "" {
				t.Errorf("canonical form not stable (-first +second):\n%s", diff)
			}
		})
	}
}

func TestParseLongLine(t *testing.T) {
	source := "FOO=" + strings.Repeat("x", MaxLineLength) + "\n"
	if _, err := Parse(strings.NewReader(source)); err == nil {
		t.Error("Parse did not return an error")
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	f, err := Parse(strings.NewReader("[Database]\nHostName=db.example.com\n"))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := f.Lookup("DATABASE", "hostname")
	if !ok || got != "db.example.com" {
		t.Errorf("Lookup(\"DATABASE\", \"hostname\") = %q, %t; want %q, true", got, ok, "db.example.com")
	}
	if _, ok := f.Lookup("Database", "port"); ok {
		t.Error("Lookup(\"Database\", \"port\") reported a value")
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		section string
		key     string
		value   string
		want    string
	}{
		{
			name:    "EmptyGlobal",
			section: "",
			key:     "foo",
			value:   "bar",
			want:    "foo=bar\n",
		},
		{
			name:    "EmptySection",
			section: "main",
			key:     "foo",
			value:   "bar",
			want:    "[main]\nfoo=bar\n",
		},
		{
			name:    "Overwrite",
			source:  "[main]\nfoo=bar\nbaz=quux\n",
			section: "main",
			key:     "foo",
			value:   "xyzzy",
			want:    "[main]\nfoo=xyzzy\nbaz=quux\n",
		},
		{
			name:    "OverwriteKeepsSpelling",
			source:  "[Main]\nFoo=bar\n",
			section: "MAIN",
			key:     "foo",
			value:   "xyzzy",
			want:    "[Main]\nFoo=xyzzy\n",
		},
		{
			name:    "OverwriteDropsDuplicates",
			source:  "[main]\nfoo=1\nFOO=2\n[other]\nx=y\n[main]\nfoo=3\n",
			section: "main",
			key:     "foo",
			value:   "4",
			want:    "[main]\n\n[other]\nx=y\n\n[main]\nfoo=4\n",
		},
		{
			name:    "KeepsComments",
			source:  "; top\n[main]\n; about foo\nfoo=bar\n",
			section: "main",
			key:     "foo",
			value:   "baz",
			want:    "; top\n[main]\n; about foo\nfoo=baz\n",
		},
		{
			name:    "AppendToSection",
			source:  "[main]\nfoo=bar\n[other]\nx=y\n",
			section: "main",
			key:     "baz",
			value:   "quux",
			want:    "[main]\nfoo=bar\nbaz=quux\n\n[other]\nx=y\n",
		},
		{
			name:    "NewSectionAtEnd",
			source:  "[main]\nfoo=bar\n",
			section: "other",
			key:     "x",
			value:   "y",
			want:    "[main]\nfoo=bar\n\n[other]\nx=y\n",
		},
		{
			name:    "GlobalBeforeSections",
			source:  "[main]\nfoo=bar\n",
			section: "",
			key:     "x",
			value:   "y",
			want:    "x=y\n\n[main]\nfoo=bar\n",
		},
		{
			name:    "QuotesWhenNeeded",
			source:  "",
			section: "main",
			key:     "foo",
			value:   "line1\nline2 ",
			want:    "[main]\nfoo=\"line1\\nline2 \"\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(test.source))
			if err != nil {
				t.Fatal(err)
			}
			if err := f.Set(test.section, test.key, test.value); err != nil {
				t.Fatalf("Set(%q, %q, %q): %v", test.section, test.key, test.value, err)
			}
			if got := f.Get(test.section, test.key); got != test.value {
				t.Errorf("Get(%q, %q) = %q after Set; want %q", test.section, test.key, got, test.value)
			}
			got, err := f.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, string(got)); diff != "" {
				t.Errorf("MarshalText() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetZeroFile(t *testing.T) {
	f := new(File)
	if err := f.Set("main", "foo", "bar"); err != nil {
		t.Fatal(err)
	}
	if err := f.Set("", "global", "yes"); err != nil {
		t.Fatal(err)
	}
	got, err := f.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	const want = "global=yes\n\n[main]\nfoo=bar\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("MarshalText() (-want +got):\n%s", diff)
	}
}

func TestSetInvalid(t *testing.T) {
	tests := []struct {
		section string
		key     string
		want    error
	}{
		{"main", "", ErrInvalidKey},
		{"main", "a=b", ErrInvalidKey},
		{"main", "a;b", ErrInvalidKey},
		{"main", "[a", ErrInvalidKey},
		{"main", " a", ErrInvalidKey},
		{"a]b", "key", ErrInvalidSection},
		{" main", "key", ErrInvalidSection},
	}
	for _, test := range tests {
		f := new(File)
		err := f.Set(test.section, test.key, "v")
		if !errors.Is(err, test.want) {
			t.Errorf("Set(%q, %q, ...) = %v; want %v", test.section, test.key, err, test.want)
		}
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		section     string
		key         string
		want        string
		wantRemoved bool
	}{
		{
			name:        "Missing",
			source:      "[main]\nfoo=bar\n",
			section:     "main",
			key:         "baz",
			want:        "[main]\nfoo=bar\n",
			wantRemoved: false,
		},
		{
			name:        "CommentMovesDown",
			source:      "[main]\n; note\nfoo=bar\nbaz=quux\n",
			section:     "MAIN",
			key:         "FOO",
			want:        "[main]\n; note\nbaz=quux\n",
			wantRemoved: true,
		},
		{
			name:        "AllDuplicates",
			source:      "[main]\nfoo=1\nfoo=2\n[main]\nfoo=3\n",
			section:     "main",
			key:         "foo",
			want:        "[main]\n\n[main]\n",
			wantRemoved: true,
		},
		{
			name:        "LastPropertyComment",
			source:      "[main]\n; gone\nfoo=bar\n[next]\nx=y\n",
			section:     "main",
			key:         "foo",
			want:        "[main]\n\n; gone\n[next]\nx=y\n",
			wantRemoved: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(test.source))
			if err != nil {
				t.Fatal(err)
			}
			if got := f.Delete(test.section, test.key); got != test.wantRemoved {
				t.Errorf("Delete(%q, %q) = %t; want %t", test.section, test.key, got, test.wantRemoved)
			}
			if _, ok := f.Lookup(test.section, test.key); ok {
				t.Errorf("Lookup(%q, %q) found a value after Delete", test.section, test.key)
			}
			got, err := f.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, string(got)); diff != "" {
				t.Errorf("MarshalText() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteSection(t *testing.T) {
	f, err := Parse(strings.NewReader("g=1\n[main]\nfoo=bar\n[other]\nx=y\n[Main]\nbaz=quux\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !f.DeleteSection("main") {
		t.Error("DeleteSection(\"main\") = false; want true")
	}
	if f.DeleteSection("main") {
		t.Error("second DeleteSection(\"main\") = true; want false")
	}
	got, err := f.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	const want = "g=1\n\n[other]\nx=y\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("MarshalText() (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "other"}, f.SectionNames()); diff != "" {
		t.Errorf("SectionNames() (-want +got):\n%s", diff)
	}
}

func TestKeys(t *testing.T) {
	f, err := Parse(strings.NewReader("[main]\nb=1\na=2\n[other]\nz=0\n[MAIN]\nB=3\nc=4\n"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, f.Keys("main")); diff != "" {
		t.Errorf("Keys(\"main\") (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"main", "other"}, f.SectionNames()); diff != "" {
		t.Errorf("SectionNames() (-want +got):\n%s", diff)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.ini")
	if err := os.WriteFile(path, []byte("; keep me\n[main]\nfoo=bar\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Set("main", "foo", "baz"); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteFile(path, 0o644); err != nil {
		t.Fatal("WriteFile:", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("; keep me\n[main]\nfoo=baz\n", string(got)); diff != "" {
		t.Errorf("file content (-want +got):\n%s", diff)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %v; want %v", perm, os.FileMode(0o600))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %q; want only settings.ini", names)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.ini"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) = %v; want %v", err, os.ErrNotExist)
	}
}

// dump flattens f into a map for comparison.
func dump(f *File) map[string]map[string]string {
	m := make(map[string]map[string]string)
	for _, name := range f.SectionNames() {
		sect := make(map[string]string)
		for _, k := range f.Keys(name) {
			sect[k] = f.Get(name, k)
		}
		m[name] = sect
	}
	return m
}
