package reconciler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rpmtool/rpm-tool/internal/checksum"
	"github.com/rpmtool/rpm-tool/internal/logging"
	"github.com/rpmtool/rpm-tool/internal/walker"
)

// Issue is one integrity problem found by Validate.
type Issue struct {
	Kind    string // "missing", "size_mismatch", "checksum_mismatch", "unindexed"
	Path    string
	Message string
}

// Report summarizes a validate run. A non-empty Issues means the caller
// should exit with code 4.
type Report struct {
	Issues []Issue
}

func (r *Report) add(kind, path, msg string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Path: path, Message: msg})
}

// Validate reads the existing index under root and checks it against the
// files actually on disk: every indexed location must exist with a
// matching size and sha256, and every *.rpm found by the walker must be
// present in the index.
func Validate(root string) (*Report, error) {
	report := &Report{}
	known := loadKnown(root, logging.Discard)

	for href, pkg := range known.packages {
		path := filepath.Join(root, filepath.FromSlash(href))
		info, err := os.Stat(path)
		if err != nil {
			report.add("missing", href, fmt.Sprintf("indexed package not found on disk: %v", err))
			continue
		}
		if info.Size() != pkg.Size {
			report.add("size_mismatch", href, fmt.Sprintf("indexed size %d, actual %d", pkg.Size, info.Size()))
			continue
		}
		sum, _, err := checksum.File(path)
		if err != nil {
			report.add("missing", href, fmt.Sprintf("could not checksum file: %v", err))
			continue
		}
		if sum != pkg.Checksum {
			report.add("checksum_mismatch", href, fmt.Sprintf("indexed checksum %s, actual %s", pkg.Checksum, sum))
		}
	}

	found, err := walker.Walk(context.Background(), root, logging.Discard)
	if err != nil {
		return nil, err
	}
	for _, f := range found {
		if _, ok := known.packages[f.RelPath]; !ok {
			report.add("unindexed", f.RelPath, "rpm file present on disk but absent from the index")
		}
	}

	return report, nil
}
