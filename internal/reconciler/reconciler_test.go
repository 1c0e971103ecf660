package reconciler

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpmtool/rpm-tool/internal/logging"
	"github.com/rpmtool/rpm-tool/internal/repomd"
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

func samplePackage(name, checksum string) *rpmpkg.Package {
	return &rpmpkg.Package{
		Name: name, Version: "1.0", Release: "1", Arch: "x86_64",
		LocationHref: name + "-1.0-1.x86_64.rpm",
		Checksum:     checksum,
		Files: []rpmpkg.FileEntry{
			{Path: "/usr/bin/" + name, Kind: rpmpkg.KindFile},
		},
	}
}

func TestDedupeByNEVRADropsLaterDuplicateChecksum(t *testing.T) {
	a := samplePackage("pkg", "sum-a")
	b := samplePackage("pkg", "sum-b")

	out := dedupeByNEVRA([]*rpmpkg.Package{a, b}, logging.Discard)
	if len(out) != 1 || out[0].Checksum != "sum-a" {
		t.Fatalf("expected first entry kept, got %+v", out)
	}
}

func TestDedupeByNEVRAKeepsIdenticalChecksumOnce(t *testing.T) {
	a := samplePackage("pkg", "sum-a")
	b := samplePackage("pkg", "sum-a")

	out := dedupeByNEVRA([]*rpmpkg.Package{a, b}, logging.Discard)
	if len(out) != 1 {
		t.Fatalf("expected exactly one survivor, got %d", len(out))
	}
}

func TestSortPackagesOrdersByNEVRA(t *testing.T) {
	pkgs := []*rpmpkg.Package{
		samplePackage("zeta", "z"),
		samplePackage("alpha", "a"),
		samplePackage("alpha", "a2"),
	}
	pkgs[2].Epoch = 1

	sortPackages(pkgs)
	if pkgs[0].Name != "alpha" || pkgs[1].Name != "alpha" || pkgs[2].Name != "zeta" {
		t.Fatalf("unexpected order: %v", []string{pkgs[0].Name, pkgs[1].Name, pkgs[2].Name})
	}
	if pkgs[0].Epoch != 0 || pkgs[1].Epoch != 1 {
		t.Fatalf("expected epoch 0 before epoch 1 within same name, got %+v", pkgs)
	}
}

func TestWriteArtifactsProducesReadableRepodata(t *testing.T) {
	root := t.TempDir()
	pkgs := []*rpmpkg.Package{
		samplePackage("hello", string(bytes.Repeat([]byte("a"), 64))),
		samplePackage("world", string(bytes.Repeat([]byte("b"), 64))),
	}

	opts := Options{Root: root, Concurrency: 1, GenerateFilelists: true}
	if err := writeArtifacts(opts, pkgs); err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}

	repomdPath := filepath.Join(root, "repodata", "repomd.xml")
	f, err := os.Open(repomdPath)
	if err != nil {
		t.Fatalf("open repomd.xml: %v", err)
	}
	defer f.Close()

	md, err := repomd.ReadRepoMd(f)
	if err != nil {
		t.Fatalf("ReadRepoMd: %v", err)
	}
	primaryEntry, ok := md.Data["primary"]
	if !ok {
		t.Fatalf("missing primary entry in repomd.xml")
	}
	flEntry, ok := md.Data["filelists"]
	if !ok {
		t.Fatalf("missing filelists entry in repomd.xml")
	}

	gotPkgs := readGzippedPrimaryArtifact(t, root, primaryEntry.LocationHref)
	if len(gotPkgs) != 2 {
		t.Fatalf("expected 2 packages in primary.xml, got %d", len(gotPkgs))
	}

	joined := readGzippedFilelistsArtifact(t, root, flEntry.LocationHref)
	if len(joined) != 2 {
		t.Fatalf("expected 2 packages in filelists.xml, got %d", len(joined))
	}
}

func TestWriteArtifactsRemovesStaleArtifactsAfterRepublish(t *testing.T) {
	root := t.TempDir()
	opts := Options{Root: root, Concurrency: 1, GenerateFilelists: true}

	first := []*rpmpkg.Package{samplePackage("hello", string(bytes.Repeat([]byte("a"), 64)))}
	if err := writeArtifacts(opts, first); err != nil {
		t.Fatalf("writeArtifacts (first): %v", err)
	}

	repodataPath := filepath.Join(root, "repodata")
	before, err := os.ReadDir(repodataPath)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var staleName string
	for _, e := range before {
		if filepath.Ext(e.Name()) == "" {
			continue
		}
		if bytes.HasSuffix([]byte(e.Name()), []byte("primary.xml.gz")) {
			staleName = e.Name()
		}
	}
	if staleName == "" {
		t.Fatalf("expected a primary.xml.gz artifact after first write, got %v", before)
	}

	second := []*rpmpkg.Package{samplePackage("world", string(bytes.Repeat([]byte("b"), 64)))}
	if err := writeArtifacts(opts, second); err != nil {
		t.Fatalf("writeArtifacts (second): %v", err)
	}

	if _, err := os.Stat(filepath.Join(repodataPath, staleName)); !os.IsNotExist(err) {
		t.Fatalf("expected stale artifact %s to be removed, stat err = %v", staleName, err)
	}
	if _, err := os.Stat(filepath.Join(repodataPath, "repomd.xml")); err != nil {
		t.Fatalf("expected repomd.xml to still exist: %v", err)
	}
}

func readGzippedPrimaryArtifact(t *testing.T, root, href string) []*rpmpkg.Package {
	t.Helper()
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(href)))
	if err != nil {
		t.Fatalf("open %s: %v", href, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gunzip %s: %v", href, err)
	}
	defer gz.Close()
	pkgs, err := repomd.ReadPrimary(gz)
	if err != nil {
		t.Fatalf("ReadPrimary: %v", err)
	}
	return pkgs
}

func readGzippedFilelistsArtifact(t *testing.T, root, href string) map[string][]rpmpkg.FileEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(href)))
	if err != nil {
		t.Fatalf("open %s: %v", href, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gunzip %s: %v", href, err)
	}
	defer gz.Close()
	joined, err := repomd.ReadFilelists(gz)
	if err != nil {
		t.Fatalf("ReadFilelists: %v", err)
	}
	return joined
}
