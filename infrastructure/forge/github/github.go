// Package github implements the forge queries against the GitHub API,
// covering both github.com and self-hosted GitHub Enterprise instances.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/computersalat/obs-service-github-tarballs/domain"
)

const (
	perPage         = 100
	apiTimeout      = 30 * time.Second
	downloadTimeout = 15 * time.Minute
	publicAPIHost   = "api.github.com"
)

// ErrTagNotFound is returned when the tag scan finds no tag with the
// requested name.
var ErrTagNotFound = errors.New("tag not found in repository")

// Client implements domain.ForgeClient over the GitHub REST API.
type Client struct {
	api      *gh.Client
	download *http.Client
	repoURL  string
}

// New creates a client for the given API host. An empty user leaves requests
// unauthenticated, subject to the stricter public rate limits. Tarballs are
// downloaded from repoURL, not from the API host.
func New(apiHost, repoURL, user, token string) (domain.ForgeClient, error) {
	var transport http.RoundTripper
	if user != "" {
		transport = &gh.BasicAuthTransport{Username: user, Password: token}
	}

	api := gh.NewClient(&http.Client{Timeout: apiTimeout, Transport: transport})
	if apiHost != "" && apiHost != publicAPIHost {
		base := apiHost
		if !strings.Contains(base, "://") {
			base = "https://" + base + "/"
		}
		var err error
		api, err = api.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("invalid API host %q: %w", apiHost, err)
		}
	}

	return &Client{
		api:      api,
		download: &http.Client{Timeout: downloadTimeout, Transport: transport},
		repoURL:  strings.TrimSuffix(repoURL, "/"),
	}, nil
}

// LatestReleaseTag returns the tag name of the newest published release.
func (c *Client) LatestReleaseTag(ctx context.Context, owner, repo string) (string, error) {
	release, _, err := c.api.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf(
			"failed to fetch the latest release for %s/%s "+
				"(create a Release in the repository and bind it to a tag): %w",
			owner, repo, err,
		)
	}
	return release.GetTagName(), nil
}

// CommitForTag scans the repository's tag list for an exact name match and
// returns the commit SHA the tag points at. A missing tag is a fatal,
// named error — it never silently falls through into a broken comparison.
func (c *Client) CommitForTag(ctx context.Context, owner, repo, tag string) (string, error) {
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		tags, resp, err := c.api.Repositories.ListTags(ctx, owner, repo, opts)
		if err != nil {
			return "", fmt.Errorf("failed to list tags for %s/%s: %w", owner, repo, err)
		}
		for _, t := range tags {
			if t.GetName() == tag {
				return t.GetCommit().GetSHA(), nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return "", fmt.Errorf("%w: %q in %s/%s", ErrTagNotFound, tag, owner, repo)
}

// CompareCommits returns the commits reachable from head but not from base.
func (c *Client) CompareCommits(
	ctx context.Context,
	owner, repo, base, head string,
) ([]domain.Commit, error) {
	comparison, _, err := c.api.Repositories.CompareCommits(
		ctx, owner, repo, base, head, &gh.ListOptions{PerPage: perPage},
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to compare %s...%s for %s/%s: %w", base, head, owner, repo, err,
		)
	}

	commits := make([]domain.Commit, 0, len(comparison.Commits))
	for _, rc := range comparison.Commits {
		commits = append(commits, domain.Commit{Message: rc.GetCommit().GetMessage()})
	}
	return commits, nil
}

// DownloadTarball fetches <repoURL>/archive/<tag>.tar.gz and streams it to
// dest. There is no retry; a transport failure is fatal to the run.
func (c *Client) DownloadTarball(ctx context.Context, tag, dest string) error {
	url := c.repoURL + "/archive/" + tag + ".tar.gz"
	logger.Debugf("Downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.download.Do(req)
	if err != nil {
		return fmt.Errorf("download of %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s failed: %s", url, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return out.Close()
}
