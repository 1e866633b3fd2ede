package archive_test

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cavaliergopher/cpio"
	gzip "github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/computersalat/obs-service-github-tarballs/infrastructure/archive"
)

// --- fixture helpers ---

func writeTarGz(t *testing.T, path string, entries ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	writeTarEntries(t, gw, entries)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())
}

func writeTar(t *testing.T, path string, entries ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	writeTarEntries(t, f, entries)
	require.NoError(t, f.Close())
}

func writeTarXz(t *testing.T, path string, entries ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	xw, err := xz.NewWriter(f)
	require.NoError(t, err)
	writeTarEntries(t, xw, entries)
	require.NoError(t, xw.Close())
	require.NoError(t, f.Close())
}

func writeTarEntries(t *testing.T, w io.Writer, entries []string) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, name := range entries {
		if strings.HasSuffix(name, "/") {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     name,
				Typeflag: tar.TypeDir,
				Mode:     0o755,
			}))
			continue
		}
		content := []byte("x")
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func writeZip(t *testing.T, path string, entries ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range entries {
		w, createErr := zw.Create(name)
		require.NoError(t, createErr)
		_, writeErr := w.Write([]byte("x"))
		require.NoError(t, writeErr)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func writeCpio(t *testing.T, path string, entries ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	cw := cpio.NewWriter(f)
	for _, name := range entries {
		content := []byte("x")
		require.NoError(t, cw.WriteHeader(&cpio.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, writeErr := cw.Write(content)
		require.NoError(t, writeErr)
	}
	require.NoError(t, cw.Close())
	require.NoError(t, f.Close())
}

// --- tests ---

func TestInspectorList(t *testing.T) {
	t.Parallel()

	t.Run("should list entries of a gzip-compressed tarball", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "pkg-1.0.tar.gz")
		writeTarGz(t, path, "pkg-1.0/", "pkg-1.0/README.md")

		// when
		entries, err := archive.New().List(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-1.0/", "pkg-1.0/README.md"}, entries)
	})

	t.Run("should list entries of a tgz tarball", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "pkg-1.0.tgz")
		writeTarGz(t, path, "pkg-1.0/main.c")

		// when
		entries, err := archive.New().List(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-1.0/main.c"}, entries)
	})

	t.Run("should list entries of a plain tarball", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "pkg-1.0.tar")
		writeTar(t, path, "pkg-1.0/main.c")

		// when
		entries, err := archive.New().List(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-1.0/main.c"}, entries)
	})

	t.Run("should list entries of an xz-compressed tarball", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "pkg-1.0.tar.xz")
		writeTarXz(t, path, "pkg-1.0/main.c")

		// when
		entries, err := archive.New().List(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-1.0/main.c"}, entries)
	})

	t.Run("should list entries of a zip archive", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "pkg-1.0.zip")
		writeZip(t, path, "pkg-1.0/setup.py", "pkg-1.0/pkg.egg-info/PKG-INFO")

		// when
		entries, err := archive.New().List(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-1.0/setup.py", "pkg-1.0/pkg.egg-info/PKG-INFO"}, entries)
	})

	t.Run("should list entries of an obscpio archive", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "pkg-1.0.obscpio")
		writeCpio(t, path, "pkg-1.0/main.c")

		// when
		entries, err := archive.New().List(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-1.0/main.c"}, entries)
	})

	t.Run("should probe the real format regardless of the suffix", func(t *testing.T) {
		t.Parallel()

		// given: zip content behind a tar suffix
		path := filepath.Join(t.TempDir(), "pkg-1.0.tar")
		writeZip(t, path, "pkg-1.0/main.c")

		// when
		entries, err := archive.New().List(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-1.0/main.c"}, entries)
	})

	t.Run("should fail for an unrecognized format", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "pkg-1.0.tar.gz")
		require.NoError(t, os.WriteFile(path, []byte("not an archive at all"), 0o644))

		// when
		_, err := archive.New().List(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unrecognized archive format")
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := archive.New().List(filepath.Join(t.TempDir(), "missing.tar.gz"))

		// then
		require.Error(t, err)
	})
}
