package reconciler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rpmtool/rpm-tool/internal/checksum"
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

// seedRepository writes one real RPM-shaped file (content doesn't matter
// for validate, only its size and checksum) plus a repodata/ index built
// by writeArtifacts that correctly describes it.
func seedRepository(t *testing.T, root, relName string, content []byte) {
	t.Helper()
	path := filepath.Join(root, relName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	sum, size, err := checksum.File(path)
	if err != nil {
		t.Fatalf("checksum.File: %v", err)
	}

	pkg := &rpmpkg.Package{
		Name: "hello", Version: "1.0", Release: "1", Arch: "x86_64",
		LocationHref: relName, Checksum: sum, Size: size,
	}
	if err := writeArtifacts(Options{Root: root, Concurrency: 1}, []*rpmpkg.Package{pkg}); err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}
}

func TestValidateCleanRepositoryHasNoIssues(t *testing.T) {
	root := t.TempDir()
	seedRepository(t, root, "hello-1.0-1.x86_64.rpm", []byte("package bytes"))

	report, err := Validate(root)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestValidateDetectsMissingFile(t *testing.T) {
	root := t.TempDir()
	seedRepository(t, root, "hello-1.0-1.x86_64.rpm", []byte("package bytes"))

	if err := os.Remove(filepath.Join(root, "hello-1.0-1.x86_64.rpm")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	report, err := Validate(root)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(report.Issues) != 1 || report.Issues[0].Kind != "missing" {
		t.Fatalf("expected one missing issue, got %+v", report.Issues)
	}
}

func TestValidateDetectsContentTamperedAfterIndexing(t *testing.T) {
	root := t.TempDir()
	seedRepository(t, root, "hello-1.0-1.x86_64.rpm", []byte("package bytes"))

	path := filepath.Join(root, "hello-1.0-1.x86_64.rpm")
	if err := os.WriteFile(path, []byte("tampered bytes!!"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	report, err := Validate(root)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(report.Issues) != 1 {
		t.Fatalf("expected one issue for tampered file, got %+v", report.Issues)
	}
}

func TestValidateDetectsUnindexedFile(t *testing.T) {
	root := t.TempDir()
	seedRepository(t, root, "hello-1.0-1.x86_64.rpm", []byte("package bytes"))

	if err := os.WriteFile(filepath.Join(root, "stray.rpm"), []byte("ED\xAB\xEE\xDBrest"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	report, err := Validate(root)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	found := false
	for _, issue := range report.Issues {
		if issue.Kind == "unindexed" && issue.Path == "stray.rpm" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unindexed issue for stray.rpm, got %+v", report.Issues)
	}
}
