package domain

import (
	"os"
	"sort"
	"strings"
	"time"
)

// mergePrefix marks commits that are excluded from changelog bullets.
const mergePrefix = "Merge "

// PackageTypePython is the only ecosystem the classifier currently recognizes.
const PackageTypePython = "python"

// ArchiveSuffixes lists the recognized archive file suffixes, in the order
// they are consulted for version detection and classification.
var ArchiveSuffixes = []string{
	"obscpio",
	"tar",
	"tar.gz",
	"tgz",
	"tar.bz2",
	"tbz2",
	"tar.xz",
	"zip",
}

// Commit is one record of a commit-range comparison between two revisions.
type Commit struct {
	Message string
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

// IsMerge reports whether the commit is a merge commit.
func (c Commit) IsMerge() bool {
	return strings.HasPrefix(c.Message, mergePrefix)
}

// IsArchiveName reports whether the file name carries a recognized
// archive suffix.
func IsArchiveName(name string) bool {
	for _, suffix := range ArchiveSuffixes {
		if strings.HasSuffix(name, "."+suffix) {
			return true
		}
	}
	return false
}

// CollectLocalFiles snapshots the file names in dir, ordered
// newest-modified-first. Directories are skipped. The snapshot is computed
// once per run and never refreshed.
func CollectLocalFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type fileEntry struct {
		name    string
		modTime time.Time
	}

	files := make([]fileEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		files = append(files, fileEntry{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.name)
	}
	return names, nil
}
