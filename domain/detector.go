package domain

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrVersionNotFound is returned when every detection strategy exhausts
// without a match. The run must abort on it — no version is ever guessed.
var ErrVersionNotFound = errors.New("no version detected in local files")

const (
	obsinfoVersionPrefix = "version: "
	specVersionPrefix    = "Version:"
	// The spec header value starts after "Version:" plus one column.
	specValueOffset = 9
)

// Strategy is one source of local version evidence. Detect scans the file
// list and reports the version it found, if any.
type Strategy interface {
	Name() string
	Detect(files []string) (string, bool)
}

// Detector runs an ordered chain of strategies and stops at the first hit.
// Earlier strategies carry more explicit evidence and take precedence.
type Detector struct {
	strategies []Strategy
}

// NewDetector creates a detector over the given strategies, tried in order.
func NewDetector(strategies ...Strategy) *Detector {
	return &Detector{strategies: strategies}
}

// Detect returns the version found by the highest-priority matching strategy,
// or ErrVersionNotFound when the whole chain exhausts.
func (d *Detector) Detect(files []string) (string, error) {
	for _, s := range d.strategies {
		if version, ok := s.Detect(files); ok {
			return version, nil
		}
	}
	return "", ErrVersionNotFound
}

// DefaultStrategies returns the standard evidence chain for a package, in
// precedence order: obsinfo sidecar, spec file header, archive entry paths,
// bare filename. A non-empty pattern overrides the default capture pattern of
// the archive-entry and filename strategies.
func DefaultStrategies(
	dir, basename, pattern string,
	inspector ArchiveInspector,
) ([]Strategy, error) {
	archiveStrategy, err := NewArchiveEntryStrategy(dir, basename, pattern, inspector)
	if err != nil {
		return nil, err
	}
	filenameStrategy, err := NewFilenameStrategy(basename, pattern)
	if err != nil {
		return nil, err
	}
	return []Strategy{
		NewObsinfoStrategy(dir, basename),
		NewSpecFileStrategy(dir, basename),
		archiveStrategy,
		filenameStrategy,
	}, nil
}

// ---------------------------------------------------------------------------
// obsinfo sidecar strategy
// ---------------------------------------------------------------------------

type obsinfoStrategy struct {
	dir      string
	basename string
}

// NewObsinfoStrategy reads the version from an OBS build-metadata sidecar
// file (<basename>.obsinfo), the most explicit local evidence available.
func NewObsinfoStrategy(dir, basename string) Strategy {
	return &obsinfoStrategy{dir: dir, basename: basename}
}

func (s *obsinfoStrategy) Name() string { return "obsinfo" }

func (s *obsinfoStrategy) Detect(files []string) (string, bool) {
	for _, name := range files {
		if !strings.HasSuffix(name, s.basename+".obsinfo") {
			continue
		}
		if version, ok := firstLineValue(
			filepath.Join(s.dir, name), obsinfoVersionPrefix, len(obsinfoVersionPrefix),
		); ok {
			return version, true
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// spec file strategy
// ---------------------------------------------------------------------------

type specFileStrategy struct {
	dir      string
	basename string
}

// NewSpecFileStrategy reads the version from the Version: header of an RPM
// spec file (<basename>.spec).
func NewSpecFileStrategy(dir, basename string) Strategy {
	return &specFileStrategy{dir: dir, basename: basename}
}

func (s *specFileStrategy) Name() string { return "spec" }

func (s *specFileStrategy) Detect(files []string) (string, bool) {
	for _, name := range files {
		if !strings.HasSuffix(name, s.basename+".spec") {
			continue
		}
		if version, ok := firstLineValue(
			filepath.Join(s.dir, name), specVersionPrefix, specValueOffset,
		); ok {
			return version, true
		}
	}
	return "", false
}

// firstLineValue scans the file for the first line starting with prefix and
// returns the trimmed remainder after offset characters.
func firstLineValue(path, prefix string, offset int) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		if len(line) <= offset {
			return "", false
		}
		value := strings.TrimSpace(line[offset:])
		return value, value != ""
	}
	return "", false
}

// ---------------------------------------------------------------------------
// archive entry strategy
// ---------------------------------------------------------------------------

type archiveEntryStrategy struct {
	dir       string
	pattern   *regexp.Regexp
	inspector ArchiveInspector
}

// NewArchiveEntryStrategy matches the capture pattern against the internal
// entry paths of every recognized archive in the file list. Upstream tarballs
// conventionally unpack into a <name>-<version>/ root directory, which is
// what the default pattern targets.
func NewArchiveEntryStrategy(
	dir, basename, pattern string,
	inspector ArchiveInspector,
) (Strategy, error) {
	if pattern == "" {
		pattern = fmt.Sprintf(`%s.*[-_](\d[^/]*).*`, basename)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid version pattern %q: %w", pattern, err)
	}
	return &archiveEntryStrategy{dir: dir, pattern: re, inspector: inspector}, nil
}

func (s *archiveEntryStrategy) Name() string { return "archive" }

func (s *archiveEntryStrategy) Detect(files []string) (string, bool) {
	for _, name := range files {
		if !IsArchiveName(name) {
			continue
		}
		entries, err := s.inspector.List(filepath.Join(s.dir, name))
		if err != nil {
			// Not a valid archive after all; keep trying the rest.
			continue
		}
		for _, entry := range entries {
			if version, ok := captureVersion(s.pattern, entry); ok {
				return version, true
			}
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// filename strategy
// ---------------------------------------------------------------------------

type filenameStrategy struct {
	pattern *regexp.Regexp
}

// NewFilenameStrategy matches the capture pattern against bare file names,
// the least reliable evidence and therefore the last resort.
func NewFilenameStrategy(basename, pattern string) (Strategy, error) {
	if pattern == "" {
		suffixes := make([]string, 0, len(ArchiveSuffixes))
		for _, suffix := range ArchiveSuffixes {
			suffixes = append(suffixes, regexp.QuoteMeta(suffix))
		}
		pattern = fmt.Sprintf(
			`^%s.*[-_](\d.*)\.(%s)$`,
			regexp.QuoteMeta(basename), strings.Join(suffixes, "|"),
		)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid version pattern %q: %w", pattern, err)
	}
	return &filenameStrategy{pattern: re}, nil
}

func (s *filenameStrategy) Name() string { return "filename" }

func (s *filenameStrategy) Detect(files []string) (string, bool) {
	for _, name := range files {
		if version, ok := captureVersion(s.pattern, name); ok {
			return version, true
		}
	}
	return "", false
}

// captureVersion applies a single-capture-group pattern and returns the
// trimmed group when it is non-empty.
func captureVersion(re *regexp.Regexp, s string) (string, bool) {
	match := re.FindStringSubmatch(s)
	if len(match) < 2 {
		return "", false
	}
	version := strings.TrimSpace(match[1])
	return version, version != ""
}
