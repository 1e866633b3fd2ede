// Package archive lists the entries of local source archives. Tar (plain,
// gzip, bzip2, xz), zip and cpio (obscpio) containers are supported; the kind
// of a file is determined by probing, not by trusting its suffix.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cavaliergopher/cpio"
	gzip "github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/computersalat/obs-service-github-tarballs/domain"
)

var errNoEntries = errors.New("archive has no entries")

// lister is the per-format listing capability.
type lister interface {
	list(path string) ([]string, error)
}

// Inspector implements domain.ArchiveInspector. It probes tar semantics
// first, then zip, then cpio, and returns the entries of the first format
// that can read the file.
type Inspector struct {
	listers []lister
}

// New creates the standard inspector.
func New() domain.ArchiveInspector {
	return &Inspector{
		listers: []lister{tarLister{}, zipLister{}, cpioLister{}},
	}
}

// List returns the internal entry paths of the archive at path.
func (i *Inspector) List(path string) ([]string, error) {
	for _, l := range i.listers {
		entries, err := l.list(path)
		if err == nil {
			return entries, nil
		}
	}
	return nil, fmt.Errorf("unrecognized archive format: %q", filepath.Base(path))
}

// ---------------------------------------------------------------------------
// tar
// ---------------------------------------------------------------------------

type tarLister struct{}

func (tarLister) list(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompress(path, f)
	if err != nil {
		return nil, err
	}

	tr := tar.NewReader(r)
	var entries []string
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return nil, nextErr
		}
		entries = append(entries, hdr.Name)
	}
	if len(entries) == 0 {
		// Leave empty files to the other probes.
		return nil, errNoEntries
	}
	return entries, nil
}

// decompress wraps the raw reader with the decompressor the file suffix
// calls for. Plain tar passes through.
func decompress(path string, f io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return gzip.NewReader(f)
	case strings.HasSuffix(path, ".tar.bz2"), strings.HasSuffix(path, ".tbz2"):
		return bzip2.NewReader(f), nil
	case strings.HasSuffix(path, ".tar.xz"):
		return xz.NewReader(f)
	default:
		return f, nil
	}
}

// ---------------------------------------------------------------------------
// zip
// ---------------------------------------------------------------------------

type zipLister struct{}

func (zipLister) list(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	entries := make([]string, 0, len(zr.File))
	for _, file := range zr.File {
		entries = append(entries, file.Name)
	}
	if len(entries) == 0 {
		return nil, errNoEntries
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// cpio (obscpio)
// ---------------------------------------------------------------------------

type cpioLister struct{}

func (cpioLister) list(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := cpio.NewReader(f)
	var entries []string
	for {
		hdr, nextErr := cr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return nil, nextErr
		}
		entries = append(entries, hdr.Name)
	}
	if len(entries) == 0 {
		return nil, errNoEntries
	}
	return entries, nil
}
