package reconciler

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rpmtool/rpm-tool/internal/lazyval"
	"github.com/rpmtool/rpm-tool/internal/logging"
	"github.com/rpmtool/rpm-tool/internal/repomd"
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

// knownSet is step 2's result: the previously published Package records
// keyed by repository-relative location href, plus each one's full file
// list keyed by pkgid (sha256), read from an existing repomd.xml.
//
// filelists.xml.gz is only decoded on first access (fileListsFor), via
// fileLists: add-files without --filelists, or a repository with no
// previous filelists.xml at all, never pays for that decode.
type knownSet struct {
	packages  map[string]*rpmpkg.Package
	fileLists *lazyval.Value[map[string][]rpmpkg.FileEntry]
	warned    bool
}

// fileListsFor returns the full file list for a carry-over package keyed
// by its checksum, decoding filelists.xml.gz at most once across however
// many carry-over packages ask for it. A decode failure is logged once and
// every caller sees !ok from then on.
func (k *knownSet) fileListsFor(sink logging.Sink, checksum string) ([]rpmpkg.FileEntry, bool) {
	joined, err := k.fileLists.Get()
	if err != nil {
		if !k.warned {
			k.warned = true
			sink.Warn("existing filelists.xml.gz unreadable, carry-over packages keep only their primary.xml file lists", map[string]any{"error": err.Error()})
		}
		return nil, false
	}
	files, ok := joined[checksum]
	return files, ok
}

// loadKnown reads repodata/repomd.xml under root, if present, resolving
// each referenced artifact by its href rather than a hardcoded filename.
// A missing or unreadable index is not an error: every discovered file is
// then treated as new-or-changed, which is always correct, just slower.
func loadKnown(root string, sink logging.Sink) *knownSet {
	known := &knownSet{
		packages:  map[string]*rpmpkg.Package{},
		fileLists: lazyval.New(func() (map[string][]rpmpkg.FileEntry, error) { return nil, nil }),
	}

	repomdPath := filepath.Join(root, "repodata", "repomd.xml")
	f, err := os.Open(repomdPath)
	if err != nil {
		return known
	}
	defer f.Close()

	md, err := repomd.ReadRepoMd(f)
	if err != nil {
		sink.Warn("existing repomd.xml unreadable, rebuilding index from scratch", map[string]any{"error": err.Error()})
		return known
	}

	if e, ok := md.Data["primary"]; ok {
		pkgs, err := readGzippedPrimary(root, e.LocationHref)
		if err != nil {
			sink.Warn("existing primary.xml.gz unreadable, rebuilding index from scratch", map[string]any{"error": err.Error()})
		} else {
			for _, p := range pkgs {
				known.packages[p.LocationHref] = p
			}
		}
	}

	if e, ok := md.Data["filelists"]; ok {
		href := e.LocationHref
		known.fileLists = lazyval.New(func() (map[string][]rpmpkg.FileEntry, error) {
			return readGzippedFilelists(root, href)
		})
	}

	return known
}

func readGzippedPrimary(root, href string) ([]*rpmpkg.Package, error) {
	r, err := openGzipArtifact(root, href)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return repomd.ReadPrimary(r)
}

func readGzippedFilelists(root, href string) (map[string][]rpmpkg.FileEntry, error) {
	r, err := openGzipArtifact(root, href)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return repomd.ReadFilelists(r)
}

func openGzipArtifact(root, href string) (io.ReadCloser, error) {
	path := filepath.Join(root, filepath.FromSlash(href))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gunzip %s: %w", path, err)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	err := g.gz.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}
