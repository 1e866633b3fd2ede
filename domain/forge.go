package domain

import "context"

// ForgeClient abstracts the read-only queries made against the upstream
// hosting service. Each implementation handles authentication and host
// selection for its platform; every query blocks until the response arrives
// or the transport fails — there is no retry.
type ForgeClient interface {
	// LatestReleaseTag returns the tag name bound to the newest published
	// release of the repository.
	LatestReleaseTag(ctx context.Context, owner, repo string) (string, error)

	// CommitForTag resolves a tag name to the commit SHA it points at.
	CommitForTag(ctx context.Context, owner, repo, tag string) (string, error)

	// CompareCommits returns the commits reachable from head but not from
	// base, in the order reported by the hosting service.
	CompareCommits(ctx context.Context, owner, repo, base, head string) ([]Commit, error)

	// DownloadTarball fetches the source tarball for the given tag and
	// writes it to dest.
	DownloadTarball(ctx context.Context, tag, dest string) error
}

// ArchiveInspector lists the internal entry paths of a local archive file.
// Implementations probe the supported formats at the boundary so callers
// never branch on the archive kind.
type ArchiveInspector interface {
	List(path string) ([]string, error)
}

// VersionTranslator adjusts an upstream tag into the version notation of a
// package ecosystem. The zero behavior is identity; ecosystem-specific
// translations plug in here.
type VersionTranslator interface {
	Translate(pkgType, version string) string
}

// NoopTranslator returns every version unchanged.
type NoopTranslator struct{}

func (NoopTranslator) Translate(_, version string) string { return version }
