// Package reconciler implements the index reconciler: the
// Idle->Locked->Scanned->Diffed->Parsing->Writing->Published->Released
// state machine that diffs a repository's RPM files against its existing
// index and writes a new one, reusing everything it safely can.
package reconciler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rpmtool/rpm-tool/internal/checksum"
	"github.com/rpmtool/rpm-tool/internal/logging"
	"github.com/rpmtool/rpm-tool/internal/repolock"
	"github.com/rpmtool/rpm-tool/internal/repomd"
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
	"github.com/rpmtool/rpm-tool/internal/signer"
	"github.com/rpmtool/rpm-tool/internal/walker"
	"github.com/rpmtool/rpm-tool/internal/workerpool"
)

// Options configures one generate/add-files invocation.
type Options struct {
	Root              string
	Concurrency       int
	UsefulFiles       rpmpkg.Matcher
	ParallelGzip      bool
	GenerateFilelists bool
	Signer            signer.Signer
	Sink              logging.Sink
}

func (o *Options) sink() logging.Sink {
	if o.Sink == nil {
		return logging.Discard
	}
	return o.Sink
}

// Generate performs a full repository (re)build: walk the root, diff
// against whatever index already exists, parse new-or-changed files, and
// write new artifacts.
func Generate(ctx context.Context, opts Options) error {
	found, err := walker.Walk(ctx, opts.Root, opts.sink())
	if err != nil {
		return err
	}
	return reconcile(ctx, opts, found)
}

// AddFiles is the add-files specialization: it skips the walk (F) and
// takes the file list as input. Everything past that point is identical,
// which is why it is not a separate component.
func AddFiles(ctx context.Context, opts Options, files []string) error {
	found := make([]walker.Found, 0, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("reconciler: stat %s: %w", path, err)
		}
		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		found = append(found, walker.Found{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
			MTime:   info.ModTime().Unix(),
		})
	}
	return reconcile(ctx, opts, found)
}

func reconcile(ctx context.Context, opts Options, found []walker.Found) error {
	sink := opts.sink()

	lock, err := repolock.Acquire(opts.Root)
	if err != nil {
		if errors.Is(err, repolock.ErrLocked) {
			sink.Error("repository is locked by another invocation", map[string]any{"root": opts.Root})
		}
		return err
	}
	defer lock.Release()

	known := loadKnown(opts.Root, sink)
	cls := classify(known, found)
	sink.Info("diffed repository", map[string]any{
		"carry_over": len(cls.carryOver),
		"fresh":      len(cls.fresh),
	})

	fresh, err := parseFresh(ctx, opts, cls.fresh, sink)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		sink.Warn("cancelled before writing index, releasing lock without publishing", map[string]any{"error": err.Error()})
		return err
	}

	// Reassemble carry-over and fresh packages in walker order, so that
	// dedupeByNEVRA keeps the earlier-found file of a duplicate pair.
	byPath := make(map[string]*rpmpkg.Package, len(cls.carryOver)+len(fresh))
	for _, pkg := range cls.carryOver {
		byPath[pkg.LocationHref] = pkg
	}
	for _, pkg := range fresh {
		byPath[pkg.LocationHref] = pkg
	}
	all := make([]*rpmpkg.Package, 0, len(byPath))
	for _, f := range found {
		if pkg, ok := byPath[f.RelPath]; ok {
			all = append(all, pkg)
		}
	}

	if opts.GenerateFilelists {
		for _, pkg := range cls.carryOver {
			if full, ok := known.fileListsFor(sink, pkg.Checksum); ok {
				pkg.Files = full
			}
		}
	}

	all = dedupeByNEVRA(all, sink)
	sortPackages(all)

	if err := ctx.Err(); err != nil {
		sink.Warn("cancelled before writing index, releasing lock without publishing", map[string]any{"error": err.Error()})
		return err
	}

	sink.Info("writing repository index", map[string]any{"packages": len(all)})
	return writeArtifacts(opts, all)
}

// parseFresh dispatches one parse+checksum job per new-or-changed file to
// the worker pool. A parse failure for one file is logged and that file
// is excluded from the index; the run as a whole continues.
func parseFresh(ctx context.Context, opts Options, fresh []walker.Found, sink logging.Sink) ([]*rpmpkg.Package, error) {
	pool := workerpool.New(ctx, opts.Concurrency)
	results := make([]*rpmpkg.Package, len(fresh))

	for i, f := range fresh {
		i, f := i, f
		pool.Submit(func(ctx context.Context) error {
			pkg, err := parseAndHash(f, opts.GenerateFilelists)
			if err != nil {
				sink.Warn("failed to process package, excluding from index", map[string]any{"file": f.RelPath, "error": err.Error()})
				return nil
			}
			results[i] = pkg
			return nil
		})
	}

	pool.Wait()

	out := results[:0]
	for _, pkg := range results {
		if pkg != nil {
			out = append(out, pkg)
		}
	}
	return out, nil
}

// parseAndHash reads f's RPM file once, streaming it through checksum.Reader
// so the SHA-256 engine sees every byte exactly as the header parser does,
// per spec §4.G step 5, then hands the same in-memory bytes to the header
// parser. One disk read serves both.
func parseAndHash(f walker.Found, full bool) (*rpmpkg.Package, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	defer file.Close()

	hr := checksum.NewReader(file)
	raw, err := io.ReadAll(hr)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	pkg, err := rpmpkg.ParsePackageBytes(raw, f.Path, full)
	if err != nil {
		return nil, err
	}

	pkg.Checksum = hr.Sum()
	pkg.Size = f.Size
	pkg.MTime = f.MTime
	pkg.LocationHref = f.RelPath
	return pkg, nil
}

// dedupeByNEVRA drops later-scheduled entries on a duplicate
// (name,epoch,version,release,arch) with a differing checksum, logging
// each drop at error. Order is stable: the walker's own order.
func dedupeByNEVRA(pkgs []*rpmpkg.Package, sink logging.Sink) []*rpmpkg.Package {
	seen := make(map[[5]string]*rpmpkg.Package, len(pkgs))
	out := make([]*rpmpkg.Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		key := pkg.NEVRA()
		if prior, ok := seen[key]; ok {
			if prior.Checksum != pkg.Checksum {
				sink.Error("duplicate package with differing checksum, dropping later entry", map[string]any{
					"name": pkg.Name, "location": pkg.LocationHref, "kept": prior.LocationHref,
				})
			}
			continue
		}
		seen[key] = pkg
		out = append(out, pkg)
	}
	return out
}

// sortPackages orders the final set by name, then epoch, version, release,
// arch, the deterministic order spec.md requires of the output XML.
func sortPackages(pkgs []*rpmpkg.Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		a, b := pkgs[i].NEVRA(), pkgs[j].NEVRA()
		return a[0] < b[0] || (a[0] == b[0] && pkgs[i].Epoch < pkgs[j].Epoch) ||
			(a[0] == b[0] && a[1] == b[1] && a[2] < b[2]) ||
			(a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] < b[3]) ||
			(a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3] && a[4] < b[4])
	})
}

// writeArtifacts publishes a new generation of the index. Per spec.md
// §4.G step 8 and §9, repomd.xml is the unit of atomic publish: the new
// <sha>-*.xml.gz artifacts are written directly into the live repodata/
// directory (their content-addressed names never collide with anything a
// concurrent reader already has open), repomd.xml itself is written to a
// temp file in the same directory and renamed into place, and only once
// that rename has succeeded are the previous generation's now-unreferenced
// <sha>-*.xml.gz files removed. A reader never observes repodata/ in a
// state where repomd.xml is missing.
func writeArtifacts(opts Options, pkgs []*rpmpkg.Package) error {
	repodataPath := filepath.Join(opts.Root, "repodata")
	if err := os.MkdirAll(repodataPath, 0o755); err != nil {
		return fmt.Errorf("reconciler: create repodata dir: %w", err)
	}

	before, err := listGzArtifacts(repodataPath)
	if err != nil {
		return fmt.Errorf("reconciler: list existing repodata: %w", err)
	}

	entries := map[string]repomd.RepomdEntry{}
	order := []string{"primary"}

	primaryEntry, err := writePrimaryArtifact(repodataPath, pkgs, opts)
	if err != nil {
		return err
	}
	entries["primary"] = primaryEntry

	if opts.GenerateFilelists {
		flEntry, err := writeFilelistsArtifact(repodataPath, pkgs, opts)
		if err != nil {
			return err
		}
		entries["filelists"] = flEntry
		order = append(order, "filelists")
	}

	var repomdBuf bytes.Buffer
	if err := repomd.WriteRepoMd(&repomdBuf, time.Now().Unix(), entries, order); err != nil {
		return fmt.Errorf("reconciler: write repomd.xml: %w", err)
	}

	if err := publishFile(repodataPath, "repomd.xml", repomdBuf.Bytes()); err != nil {
		return err
	}

	if opts.Signer != nil {
		sig, err := opts.Signer.SignDetached(repomdBuf.Bytes())
		if err != nil {
			return fmt.Errorf("reconciler: sign repomd.xml: %w", err)
		}
		if err := publishFile(repodataPath, "repomd.xml.asc", sig); err != nil {
			return err
		}
	}

	after := referencedGzArtifacts(entries)
	for name := range before {
		if !after[name] {
			if err := os.Remove(filepath.Join(repodataPath, name)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reconciler: remove stale artifact %s: %w", name, err)
			}
		}
	}
	return nil
}

// publishFile writes data to a temp file inside dir and renames it onto
// name, an atomic same-directory replace so a concurrent reader of name
// never observes a half-written file or a window where it doesn't exist.
func publishFile(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("reconciler: create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("reconciler: write %s: %w", name, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("reconciler: write %s: %w", name, closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("reconciler: chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("reconciler: publish %s: %w", name, err)
	}
	return nil
}

// listGzArtifacts returns the set of *.xml.gz filenames currently present
// in dir, the previous generation's artifacts that become candidates for
// cleanup once the new repomd.xml is published.
func listGzArtifacts(dir string) (map[string]bool, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	out := map[string]bool{}
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".xml.gz") {
			out[e.Name()] = true
		}
	}
	return out, nil
}

// referencedGzArtifacts returns the *.xml.gz basenames the just-written
// repomd.xml actually references, by filename rather than full href.
func referencedGzArtifacts(entries map[string]repomd.RepomdEntry) map[string]bool {
	out := map[string]bool{}
	for _, e := range entries {
		out[filepath.Base(e.LocationHref)] = true
	}
	return out
}

func writePrimaryArtifact(dir string, pkgs []*rpmpkg.Package, opts Options) (repomd.RepomdEntry, error) {
	var buf bytes.Buffer
	w, err := repomd.NewPrimaryWriter(&buf, len(pkgs))
	if err != nil {
		return repomd.RepomdEntry{}, fmt.Errorf("reconciler: open primary.xml writer: %w", err)
	}
	for _, pkg := range pkgs {
		if err := w.WritePackage(pkg, pkg.UsefulFiles(opts.UsefulFiles)); err != nil {
			return repomd.RepomdEntry{}, fmt.Errorf("reconciler: write primary.xml package %s: %w", pkg.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return repomd.RepomdEntry{}, fmt.Errorf("reconciler: close primary.xml: %w", err)
	}
	return finishArtifact(dir, "primary", buf.Bytes(), opts)
}

func writeFilelistsArtifact(dir string, pkgs []*rpmpkg.Package, opts Options) (repomd.RepomdEntry, error) {
	var buf bytes.Buffer
	w, err := repomd.NewFilelistsWriter(&buf, len(pkgs))
	if err != nil {
		return repomd.RepomdEntry{}, fmt.Errorf("reconciler: open filelists.xml writer: %w", err)
	}
	for _, pkg := range pkgs {
		if err := w.WritePackage(pkg); err != nil {
			return repomd.RepomdEntry{}, fmt.Errorf("reconciler: write filelists.xml package %s: %w", pkg.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return repomd.RepomdEntry{}, fmt.Errorf("reconciler: close filelists.xml: %w", err)
	}
	return finishArtifact(dir, "filelists", buf.Bytes(), opts)
}

// finishArtifact gzips xmlData (single-threaded by default, block-parallel
// via checksum.GzipParallel when opts.ParallelGzip is set, with up to
// opts.Concurrency blocks in flight on pgzip's own goroutines; the worker
// pool is not used for compression), computes
// the open-checksum over the uncompressed bytes and the checksum over the
// compressed ones, and writes the result under its content-addressed name.
func finishArtifact(dir, name string, xmlData []byte, opts Options) (repomd.RepomdEntry, error) {
	openChecksum := checksum.Bytes(xmlData)

	var gz []byte
	var err error
	if opts.ParallelGzip {
		gz, err = checksum.GzipParallel(xmlData, opts.Concurrency)
	} else {
		gz, err = checksum.Gzip(xmlData)
	}
	if err != nil {
		return repomd.RepomdEntry{}, fmt.Errorf("reconciler: gzip %s: %w", name, err)
	}

	sum := checksum.Bytes(gz)
	filename := fmt.Sprintf("%s-%s.xml.gz", sum, name)
	if err := os.WriteFile(filepath.Join(dir, filename), gz, 0o644); err != nil {
		return repomd.RepomdEntry{}, fmt.Errorf("reconciler: write %s: %w", filename, err)
	}

	return repomd.RepomdEntry{
		LocationHref: "repodata/" + filename,
		Checksum:     sum,
		OpenChecksum: openChecksum,
		Size:         int64(len(gz)),
		OpenSize:     int64(len(xmlData)),
		Timestamp:    time.Now().Unix(),
	}, nil
}

