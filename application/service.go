// Package application wires the version detection, forge queries and
// metadata rewriting into the single refresh pipeline.
package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/computersalat/obs-service-github-tarballs/config"
	"github.com/computersalat/obs-service-github-tarballs/domain"
)

// Service runs one refresh: detect the packaged version, query the forge for
// the latest release, download its tarball, diff the commit history and
// rewrite the packaging metadata. The pipeline is fully sequential and
// fail-fast; a failure aborts the run without rolling back completed steps.
type Service struct {
	forge      domain.ForgeClient
	inspector  domain.ArchiveInspector
	translator domain.VersionTranslator
	now        func() time.Time
}

// NewService creates the orchestrator with its collaborators.
func NewService(
	forge domain.ForgeClient,
	inspector domain.ArchiveInspector,
	translator domain.VersionTranslator,
) *Service {
	return &Service{
		forge:      forge,
		inspector:  inspector,
		translator: translator,
		now:        time.Now,
	}
}

// Run executes the full pipeline for the configured package.
func (s *Service) Run(ctx context.Context, cfg *config.Config) error {
	if cfg.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	files, err := domain.CollectLocalFiles(workDir)
	if err != nil {
		return fmt.Errorf("failed to list local files: %w", err)
	}

	current, err := s.detectCurrentVersion(workDir, files, cfg)
	if err != nil {
		return err
	}
	logger.Infof("Detected current version %s of %s", current, cfg.Package)

	pkgType := domain.NewClassifier(s.inspector).Classify(workDir, files)
	if pkgType != "" {
		logger.Debugf("Classified package as %s", pkgType)
	}

	latest, err := s.forge.LatestReleaseTag(ctx, cfg.Owner, cfg.RepoName)
	if err != nil {
		return err
	}
	latest = s.translator.Translate(pkgType, latest)
	logger.Infof("Latest release of %s/%s is %s", cfg.Owner, cfg.RepoName, latest)

	if err = s.downloadTarball(ctx, cfg, latest); err != nil {
		return err
	}

	entry, err := s.composeChangelog(ctx, cfg, current, latest)
	if err != nil {
		return err
	}
	if entry == "" {
		logger.Infof("Package %s is up to date, nothing to do", cfg.Package)
		return nil
	}

	if err = s.rewriteSpecFiles(workDir, files, cfg, latest); err != nil {
		return err
	}
	return s.prependChangesFiles(workDir, files, cfg, entry)
}

// detectCurrentVersion runs the evidence chain over the local file snapshot.
// Exhaustion is fatal: no default version is ever fabricated.
func (s *Service) detectCurrentVersion(
	workDir string,
	files []string,
	cfg *config.Config,
) (string, error) {
	strategies, err := domain.DefaultStrategies(
		workDir, cfg.Package, cfg.VersionRegex, s.inspector,
	)
	if err != nil {
		return "", err
	}

	current, err := domain.NewDetector(strategies...).Detect(files)
	if err != nil {
		return "", fmt.Errorf("unable to detect the current version of %q: %w", cfg.Package, err)
	}
	return current, nil
}

// downloadTarball fetches the release tarball into the output directory as
// <repo>-<version>.tar.gz.
func (s *Service) downloadTarball(ctx context.Context, cfg *config.Config, version string) error {
	name := fmt.Sprintf("%s-%s.tar.gz", cfg.RepoName, version)
	if err := domain.SafeFilename(name); err != nil {
		return err
	}
	if err := s.forge.DownloadTarball(ctx, version, filepath.Join(cfg.OutDir, name)); err != nil {
		return err
	}
	logger.Infof("Downloaded %s", name)
	return nil
}

// composeChangelog resolves both tags to commits, compares them and formats
// the .changes entry. An empty result means there is nothing to rewrite.
func (s *Service) composeChangelog(
	ctx context.Context,
	cfg *config.Config,
	current, latest string,
) (string, error) {
	currentSHA, err := s.forge.CommitForTag(ctx, cfg.Owner, cfg.RepoName, current)
	if err != nil {
		return "", err
	}
	latestSHA, err := s.forge.CommitForTag(ctx, cfg.Owner, cfg.RepoName, latest)
	if err != nil {
		return "", err
	}

	commits, err := s.forge.CompareCommits(ctx, cfg.Owner, cfg.RepoName, currentSHA, latestSHA)
	if err != nil {
		return "", err
	}
	logger.Debugf("Found %d commits between %s and %s", len(commits), current, latest)

	return domain.ComposeChangelogEntry(commits, latest, cfg.Email, s.now()), nil
}

// rewriteSpecFiles copies every spec-style packaging file into the output
// directory and bumps its version there; the originals in the working
// directory stay untouched. Spec files get Version/Release, shell-style
// build descriptors get pkgver/pkgrel. The release is always forced back
// to "0" for the new version.
func (s *Service) rewriteSpecFiles(
	workDir string,
	files []string,
	cfg *config.Config,
	version string,
) error {
	for _, name := range files {
		versionField, releaseField := "", ""
		switch {
		case strings.HasSuffix(name, ".spec"):
			versionField, releaseField = "Version", "Release"
		case strings.HasSuffix(name, "PKGBUILD"), strings.HasSuffix(name, "APKBUILD"):
			versionField, releaseField = "pkgver", "pkgrel"
		default:
			continue
		}

		dest, err := s.copyToOutDir(workDir, name, cfg.OutDir)
		if err != nil {
			return err
		}
		if err = domain.RewriteVersionField(dest, versionField, version); err != nil {
			return err
		}
		if err = domain.RewriteVersionField(dest, releaseField, "0"); err != nil {
			return err
		}
		logger.Infof("Updated %s", dest)
	}
	return nil
}

// prependChangesFiles copies every .changes file into the output directory
// and prepends the composed entry there.
func (s *Service) prependChangesFiles(
	workDir string,
	files []string,
	cfg *config.Config,
	entry string,
) error {
	for _, name := range files {
		if !strings.HasSuffix(name, ".changes") {
			continue
		}
		dest, err := s.copyToOutDir(workDir, name, cfg.OutDir)
		if err != nil {
			return err
		}
		if err = domain.PrependChangelogEntry(dest, entry); err != nil {
			return err
		}
		logger.Infof("Updated %s", dest)
	}
	return nil
}

// copyToOutDir copies a working-directory file into the output directory and
// returns the destination path. The name must pass the traversal guard.
func (s *Service) copyToOutDir(workDir, name, outDir string) (string, error) {
	if err := domain.SafeFilename(name); err != nil {
		return "", err
	}

	src, err := os.Open(filepath.Join(workDir, name))
	if err != nil {
		return "", err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", err
	}

	dest := filepath.Join(outDir, name)
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return dest, out.Close()
}
