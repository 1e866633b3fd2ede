package domain

import (
	"path"
	"path/filepath"
	"strings"
)

// pythonMarker identifies a Python sdist by its packaging metadata directory.
const pythonMarker = "egg-info/PKG-INFO"

// Classifier infers the package ecosystem from the contents of local
// archives. The result is a single flat tag; extending it means adding
// another marker check.
type Classifier struct {
	inspector ArchiveInspector
}

// NewClassifier creates a classifier using the given archive inspector.
func NewClassifier(inspector ArchiveInspector) *Classifier {
	return &Classifier{inspector: inspector}
}

// Classify returns PackageTypePython when any recognized archive in the file
// list contains an entry ending in egg-info/PKG-INFO, or an empty string when
// no ecosystem is recognized. The first matching archive wins.
func (c *Classifier) Classify(dir string, files []string) string {
	for _, name := range files {
		if !IsArchiveName(name) {
			continue
		}
		entries, err := c.inspector.List(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if strings.HasSuffix(path.Clean(entry), pythonMarker) {
				return PackageTypePython
			}
		}
	}
	return ""
}
