package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrIllegalFilename is returned when a name passed to a file-writing
// operation contains directory-traversal components.
var ErrIllegalFilename = errors.New("illegal filename")

// SafeFilename rejects any name that does not resolve (as an absolute path)
// to exactly its own base name. Every file name handed to a writing
// operation must pass this check first.
func SafeFilename(name string) error {
	abs, err := filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrIllegalFilename, name)
	}
	if filepath.Base(abs) != name {
		return fmt.Errorf("%w: %q", ErrIllegalFilename, name)
	}
	return nil
}

// isShellStyle reports whether the file uses VAR=value assignments instead of
// RPM spec headers.
func isShellStyle(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "PKGBUILD") || strings.HasSuffix(base, "APKBUILD")
}

// RewriteVersionField updates the given field of a packaging file in place.
// Shell-variable-style files (PKGBUILD, APKBUILD) get a whole-line
// `field=value` replacement; everything else is treated as an RPM spec,
// where the whitespace run after the field name is preserved and lines
// containing a `%` macro are left untouched. Only the first matching line is
// replaced, and the file is rewritten only when a substitution happened.
//
// The rewrite is whole-file read-modify-write and not atomic across process
// crashes.
func RewriteVersionField(path, field, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var content string
	var count int
	if isShellStyle(path) {
		content, count = rewriteShellVariable(string(data), field, value)
	} else {
		content, count = rewriteSpecField(string(data), field, value)
	}
	if count == 0 {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), info.Mode().Perm())
}

// rewriteShellVariable replaces the first `field=...` assignment line.
func rewriteShellVariable(content, field, value string) (string, int) {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(field) + `=.*$`)
	loc := re.FindStringIndex(content)
	if loc == nil {
		return content, 0
	}
	return content[:loc[0]] + field + "=" + value + content[loc[1]:], 1
}

// rewriteSpecField replaces the value of the first `Field: value` header
// line. The captured whitespace run is kept and any line whose value part
// contains a literal '%' never matches, so inline build macros survive.
func rewriteSpecField(content, field, value string) (string, int) {
	re := regexp.MustCompile(`(?m)^(` + regexp.QuoteMeta(field) + `:[ \t]*)([^%\n]+)$`)
	m := re.FindStringSubmatchIndex(content)
	if m == nil {
		return content, 0
	}
	return content[:m[0]] + content[m[2]:m[3]] + value + content[m[1]:], 1
}

// PrependChangelogEntry writes the entry in front of the existing contents of
// a .changes file: newest entry first, prior history after.
func PrependChangelogEntry(path, entry string) error {
	old, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(entry), old...), info.Mode().Perm())
}
