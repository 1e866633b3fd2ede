package domain

import (
	"strings"
	"time"
)

const (
	changesDivider = "-------------------------------------------------------------------"
	bulletPrefix   = "  + "
)

// ComposeChangelogEntry formats a .changes entry for the given commit range.
// Merge commits are dropped and only the first line of each remaining commit
// message becomes a bullet. An empty commit range yields an empty string,
// signalling that the package is up to date and nothing needs rewriting.
//
// The timestamp is rendered in the fixed human-readable UTC form used by
// .changes files (weekday, month, day, time, year).
func ComposeChangelogEntry(commits []Commit, version, email string, now time.Time) string {
	if len(commits) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(changesDivider + "\n")
	b.WriteString(now.UTC().Format(time.ANSIC) + " - " + email + "\n")
	b.WriteString("\n")
	b.WriteString("- Update to version " + version + "\n")
	for _, c := range commits {
		if c.IsMerge() {
			continue
		}
		b.WriteString(bulletPrefix + c.Subject() + "\n")
	}
	b.WriteString("\n")
	return b.String()
}
