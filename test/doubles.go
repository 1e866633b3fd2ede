// Package testdoubles provides test doubles (spies, stubs, dummies) for
// domain interfaces. These are hand-crafted implementations — no mock
// frameworks.
package testdoubles

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/computersalat/obs-service-github-tarballs/domain"
)

// ---------------------------------------------------------------------------
// SpyForgeClient
// ---------------------------------------------------------------------------

// SpyForgeClient implements domain.ForgeClient as a configurable spy.
// Configure the response fields for the queries your test exercises, then
// inspect the call-tracking fields to verify behavior.
type SpyForgeClient struct {
	// --- LatestReleaseTag ---
	LatestTag string
	LatestErr error
	// spy: owner/repo pairs that were requested
	ReleaseRequests []string

	// --- CommitForTag ---
	TagSHAs map[string]string // tag -> sha
	TagErr  error
	// spy: tags that were resolved
	ResolvedTags []string

	// --- CompareCommits ---
	Commits    []domain.Commit
	CompareErr error
	// spy: base...head ranges that were compared
	ComparedRanges []string

	// --- DownloadTarball ---
	TarballContent []byte
	DownloadErr    error
	// spy: destination paths that were written
	DownloadedTo []string
}

func (s *SpyForgeClient) LatestReleaseTag(
	_ context.Context,
	owner, repo string,
) (string, error) {
	s.ReleaseRequests = append(s.ReleaseRequests, owner+"/"+repo)
	if s.LatestErr != nil {
		return "", s.LatestErr
	}
	return s.LatestTag, nil
}

func (s *SpyForgeClient) CommitForTag(
	_ context.Context,
	_, _, tag string,
) (string, error) {
	s.ResolvedTags = append(s.ResolvedTags, tag)
	if s.TagErr != nil {
		return "", s.TagErr
	}
	sha, ok := s.TagSHAs[tag]
	if !ok {
		return "", fmt.Errorf("no stubbed sha for tag %q", tag)
	}
	return sha, nil
}

func (s *SpyForgeClient) CompareCommits(
	_ context.Context,
	_, _, base, head string,
) ([]domain.Commit, error) {
	s.ComparedRanges = append(s.ComparedRanges, base+"..."+head)
	if s.CompareErr != nil {
		return nil, s.CompareErr
	}
	return s.Commits, nil
}

func (s *SpyForgeClient) DownloadTarball(
	_ context.Context,
	_, dest string,
) error {
	s.DownloadedTo = append(s.DownloadedTo, dest)
	if s.DownloadErr != nil {
		return s.DownloadErr
	}
	return os.WriteFile(dest, s.TarballContent, 0o644)
}

// ---------------------------------------------------------------------------
// StubInspector
// ---------------------------------------------------------------------------

// StubInspector implements domain.ArchiveInspector with canned entry lists.
type StubInspector struct {
	// Entries maps a base name to the entry paths to return for it.
	Entries map[string][]string
	ListErr error
}

func (s *StubInspector) List(path string) ([]string, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	for name, entries := range s.Entries {
		if strings.HasSuffix(path, name) {
			return entries, nil
		}
	}
	return nil, fmt.Errorf("no stubbed entries for %q", path)
}

// ---------------------------------------------------------------------------
// StubTranslator
// ---------------------------------------------------------------------------

// StubTranslator implements domain.VersionTranslator with a fixed mapping.
type StubTranslator struct {
	// Translations maps input versions to translated ones; misses pass through.
	Translations map[string]string
	// spy: pkgType values received
	SeenTypes []string
}

func (s *StubTranslator) Translate(pkgType, version string) string {
	s.SeenTypes = append(s.SeenTypes, pkgType)
	if translated, ok := s.Translations[version]; ok {
		return translated
	}
	return version
}
