package github //nolint:testpackage // tests unexported client wiring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	gh "github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computersalat/obs-service-github-tarballs/domain"
)

// newTestClient points a Client at a local test server for both the API and
// the tarball downloads.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	api := gh.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	api.BaseURL = base

	return &Client{
		api:      api,
		download: srv.Client(),
		repoURL:  srv.URL + "/owner/repo",
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("should create a client for the public API host", func(t *testing.T) {
		t.Parallel()

		// when
		client, err := New("api.github.com", "https://github.com/owner/repo", "", "")

		// then
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("should create a client for a self-hosted API host", func(t *testing.T) {
		t.Parallel()

		// when
		client, err := New("github.example.com", "https://github.example.com/owner/repo", "u", "t")

		// then
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestLatestReleaseTag(t *testing.T) {
	t.Parallel()

	t.Run("should return the tag name of the latest release", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/owner/repo/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"tag_name": "1.3.0"}`))
		})
		client := newTestClient(t, mux)

		// when
		tag, err := client.LatestReleaseTag(context.Background(), "owner", "repo")

		// then
		require.NoError(t, err)
		assert.Equal(t, "1.3.0", tag)
	})

	t.Run("should fail with release-creation advice when none exists", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/owner/repo/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
		})
		client := newTestClient(t, mux)

		// when
		_, err := client.LatestReleaseTag(context.Background(), "owner", "repo")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create a Release")
	})
}

func TestCommitForTag(t *testing.T) {
	t.Parallel()

	t.Run("should resolve an exact tag name to its commit sha", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/owner/repo/tags", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[
				{"name": "1.2.0", "commit": {"sha": "aaa111"}},
				{"name": "1.3.0", "commit": {"sha": "bbb222"}}
			]`))
		})
		client := newTestClient(t, mux)

		// when
		sha, err := client.CommitForTag(context.Background(), "owner", "repo", "1.3.0")

		// then
		require.NoError(t, err)
		assert.Equal(t, "bbb222", sha)
	})

	t.Run("should fail with a named error when the tag is missing", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/owner/repo/tags", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"name": "0.1.0", "commit": {"sha": "aaa111"}}]`))
		})
		client := newTestClient(t, mux)

		// when
		_, err := client.CommitForTag(context.Background(), "owner", "repo", "9.9.9")

		// then
		require.ErrorIs(t, err, ErrTagNotFound)
	})
}

func TestCompareCommits(t *testing.T) {
	t.Parallel()

	t.Run("should map the comparison to commit records in order", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/owner/repo/compare/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"commits": [
				{"commit": {"message": "Fix bug"}},
				{"commit": {"message": "Merge pull request #3"}},
				{"commit": {"message": "Add feature"}}
			]}`))
		})
		client := newTestClient(t, mux)

		// when
		commits, err := client.CompareCommits(context.Background(), "owner", "repo", "aaa111", "bbb222")

		// then
		require.NoError(t, err)
		assert.Equal(t, []domain.Commit{
			{Message: "Fix bug"},
			{Message: "Merge pull request #3"},
			{Message: "Add feature"},
		}, commits)
	})

	t.Run("should fail on a non-success response", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/owner/repo/compare/", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
		})
		client := newTestClient(t, mux)

		// when
		_, err := client.CompareCommits(context.Background(), "owner", "repo", "aaa111", "bbb222")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to compare")
	})
}

func TestDownloadTarball(t *testing.T) {
	t.Parallel()

	t.Run("should stream the archive to the destination file", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/owner/repo/archive/1.3.0.tar.gz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("tarball bytes"))
		})
		client := newTestClient(t, mux)
		dest := filepath.Join(t.TempDir(), "repo-1.3.0.tar.gz")

		// when
		err := client.DownloadTarball(context.Background(), "1.3.0", dest)

		// then
		require.NoError(t, err)
		data, readErr := os.ReadFile(dest)
		require.NoError(t, readErr)
		assert.Equal(t, "tarball bytes", string(data))
	})

	t.Run("should fail on a non-success status", func(t *testing.T) {
		t.Parallel()

		// given
		client := newTestClient(t, http.NewServeMux())
		dest := filepath.Join(t.TempDir(), "repo-9.9.9.tar.gz")

		// when
		err := client.DownloadTarball(context.Background(), "9.9.9", dest)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download of")
	})
}
