package repomd

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

func TestReadPrimaryEmptyMetadata(t *testing.T) {
	doc := `<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="302"></metadata>`
	pkgs, err := ReadPrimary(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadPrimary: %v", err)
	}
	if len(pkgs) != 0 {
		t.Fatalf("expected 0 packages, got %d", len(pkgs))
	}
}

func TestReadPrimaryOnePackage(t *testing.T) {
	doc := `
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="302">
<package type="rpm">
  <name>v8_monolith</name>
  <arch>x86_64</arch>
  <version epoch="0" ver="10.3.174.14" rel="1"/>
  <checksum type="sha256" pkgid="YES">bff3977e704f06e9f8ff51ee365c4ab419e91225</checksum>
  <summary>JavaScript Engine</summary>
  <description>V8 is Google's engine</description>
  <packager></packager>
  <url></url>
  <time file="1657717375" build="1655985827"/>
  <size package="8940944" installed="62249667" archive="62259544"/>
  <location href="v8_monolith-10.3.174.14-1.x86_64.rpm"/>
  <format>
    <rpm:license>BSD</rpm:license>
    <rpm:vendor></rpm:vendor>
    <rpm:group>System Environment/Libraries</rpm:group>
    <rpm:buildhost>some.host</rpm:buildhost>
    <rpm:sourcerpm>v8_monolith-10.3.174.14-1.src.rpm</rpm:sourcerpm>
    <rpm:header-range start="4504" end="15636"/>
    <rpm:provides>
      <rpm:entry name="v8_monolith" flags="EQ" epoch="0" ver="10.3.174.14" rel="1"/>
      <rpm:entry name="v8_monolith(x86-64)" flags="EQ" epoch="0" ver="10.3.174.14" rel="1"/>
    </rpm:provides>
  </format>
</package>
<package type="srpm">
  <name>ignored-source-package</name>
</package>
</metadata>
`
	pkgs, err := ReadPrimary(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadPrimary: %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("expected srpm entry to be skipped, got %d packages", len(pkgs))
	}
	p := pkgs[0]
	if p.Name != "v8_monolith" || p.Arch != "x86_64" || p.Version != "10.3.174.14" || p.Release != "1" {
		t.Fatalf("unexpected NEVRA: %+v", p)
	}
	if p.HeaderRange.Start != 4504 || p.HeaderRange.End != 15636 {
		t.Fatalf("unexpected header range: %+v", p.HeaderRange)
	}
	if len(p.Provides) != 2 || p.Provides[0].Name != "v8_monolith" || p.Provides[0].Flags != rpmpkg.FlagEQ {
		t.Fatalf("unexpected provides: %+v", p.Provides)
	}
}

func buildSamplePackage() *rpmpkg.Package {
	return &rpmpkg.Package{
		Name: "hello", Epoch: 1, Version: "2.10", Release: "3.el9", Arch: "x86_64",
		LocationHref: "hello-2.10-3.el9.x86_64.rpm",
		Size:         1024, MTime: 1700000000, Checksum: strings.Repeat("a", 64),
		Summary: "a package", Description: "a longer description",
		URL: "https://example.com", License: "GPLv2+", Vendor: "Example",
		Packager: "Jane <jane@example.com>", Group: "Applications/System",
		BuildHost: "builder.example.com", SourceRPM: "hello-2.10-3.el9.src.rpm",
		BuildTime: 1699999999, ArchiveSize: 2048, InstalledSize: 4096,
		Provides: []rpmpkg.Entry{{Name: "hello", Flags: rpmpkg.FlagEQ, Version: "2.10", Release: "3.el9"}},
		Requires: []rpmpkg.Entry{{Name: "libc.so.6", Flags: rpmpkg.FlagGE, Epoch: "2", Version: "2.34"}},
		Files: []rpmpkg.FileEntry{
			{Path: "/usr/bin/hello", Kind: rpmpkg.KindFile},
			{Path: "/usr/share/doc/hello", Kind: rpmpkg.KindDir},
			{Path: "/var/log/hello.log", Kind: rpmpkg.KindGhost},
		},
		HeaderRange: rpmpkg.HeaderRange{Start: 280, End: 3000},
	}
}

func TestPrimaryWriteThenReadRoundTrip(t *testing.T) {
	pkg := buildSamplePackage()

	var buf bytes.Buffer
	w, err := NewPrimaryWriter(&buf, 1)
	if err != nil {
		t.Fatalf("NewPrimaryWriter: %v", err)
	}
	if err := w.WritePackage(pkg, pkg.Files); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadPrimary(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadPrimary: %v\n%s", err, buf.String())
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 package, got %d", len(got))
	}
	rt := got[0]
	if rt.Name != pkg.Name || rt.Epoch != pkg.Epoch || rt.Version != pkg.Version || rt.Release != pkg.Release || rt.Arch != pkg.Arch {
		t.Fatalf("NEVRA mismatch after round trip: %+v vs %+v", rt, pkg)
	}
	if rt.Checksum != pkg.Checksum || rt.LocationHref != pkg.LocationHref {
		t.Fatalf("identity fields mismatch: %+v", rt)
	}
	if len(rt.Provides) != 1 || rt.Provides[0].Name != "hello" || rt.Provides[0].Flags != rpmpkg.FlagEQ {
		t.Fatalf("provides mismatch: %+v", rt.Provides)
	}
	if len(rt.Requires) != 1 || rt.Requires[0].Epoch != "2" {
		t.Fatalf("requires mismatch: %+v", rt.Requires)
	}
	if len(rt.Files) != 3 || rt.Files[1].Kind != rpmpkg.KindDir || rt.Files[2].Kind != rpmpkg.KindGhost {
		t.Fatalf("files mismatch: %+v", rt.Files)
	}
}

func TestFilelistsWriteThenReadRoundTrip(t *testing.T) {
	pkg := buildSamplePackage()

	var buf bytes.Buffer
	w, err := NewFilelistsWriter(&buf, 1)
	if err != nil {
		t.Fatalf("NewFilelistsWriter: %v", err)
	}
	if err := w.WritePackage(pkg); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	joined, err := ReadFilelists(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFilelists: %v", err)
	}
	files, ok := joined[pkg.Checksum]
	if !ok || len(files) != 3 {
		t.Fatalf("expected 3 files joined by pkgid, got %+v", files)
	}
}

func TestRepoMdWriteThenReadRoundTrip(t *testing.T) {
	entries := map[string]RepomdEntry{
		"primary": {
			LocationHref: "repodata/abc-primary.xml.gz",
			Checksum:     "abc", OpenChecksum: "def",
			Size: 100, OpenSize: 400, Timestamp: 1700000000,
		},
		"filelists": {
			LocationHref: "repodata/ghi-filelists.xml.gz",
			Checksum:     "ghi", OpenChecksum: "jkl",
			Size: 50, OpenSize: 200, Timestamp: 1700000001,
		},
	}

	var buf bytes.Buffer
	if err := WriteRepoMd(&buf, 1700000002, entries, []string{"primary", "filelists"}); err != nil {
		t.Fatalf("WriteRepoMd: %v", err)
	}

	got, err := ReadRepoMd(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadRepoMd: %v\n%s", err, buf.String())
	}
	if got.Revision != 1700000002 {
		t.Fatalf("unexpected revision: %d", got.Revision)
	}
	if len(got.Data) != 2 || got.Data["primary"].LocationHref != entries["primary"].LocationHref {
		t.Fatalf("unexpected data: %+v", got.Data)
	}
}

func TestPrimaryReaderNextReturnsEOF(t *testing.T) {
	pr := NewPrimaryReader(strings.NewReader(`<metadata packages="0"></metadata>`))
	_, err := pr.Next()
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
