package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/computersalat/obs-service-github-tarballs/config"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	repoURL  string
	email    string
	apiHost  string
	pkgName  string
	owner    string
	repoName string
	outDir   string
	verbose  bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "github-tarballs",
	Short: "Refresh a package's vendored GitHub tarball and metadata",
	Long: `An OBS source service that keeps a packaging checkout in sync with
its upstream GitHub repository.

It detects the currently packaged version from the local files, queries
GitHub for the latest release, downloads the matching source tarball,
diffs the commit history between the two tags, and rewrites the spec and
changes files with the new version and a changelog entry.`,
	RunE: run,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.Flags().StringVar(
		&repoURL, "repourl", "",
		"Base URL of the upstream repository (e.g. https://github.com/owner/repo)",
	)
	rootCmd.Flags().StringVar(
		&email, "email", "",
		"Author email stamped into changelog entries",
	)
	rootCmd.Flags().StringVar(
		&apiHost, "api", "",
		"Override the API host, e.g. for a self-hosted instance (derived from --repourl when omitted)",
	)
	rootCmd.Flags().StringVar(
		&pkgName, "package", "",
		"Package name (defaults to the current directory's base name)",
	)
	rootCmd.Flags().StringVar(
		&owner, "repo_owner", "",
		"Repository owner (defaults to the --repourl path)",
	)
	rootCmd.Flags().StringVar(
		&repoName, "repo_name", "",
		"Repository name (defaults to the --repourl path)",
	)
	rootCmd.Flags().StringVar(
		&outDir, "outdir", "",
		"Destination directory for the downloaded tarball and rewritten files",
	)
	rootCmd.Flags().BoolVarP(
		&verbose, "verbose", "v", false,
		"Enable verbose output",
	)
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(config.Options{
		RepoURL:  repoURL,
		Email:    email,
		APIHost:  apiHost,
		Package:  pkgName,
		Owner:    owner,
		RepoName: repoName,
		OutDir:   outDir,
		Verbose:  verbose,
	})
	if err != nil {
		return err
	}

	svc, err := injectService(cfg)
	if err != nil {
		return err
	}
	return svc.Run(context.Background(), cfg)
}
