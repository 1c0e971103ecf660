// Package walker discovers RPM files under a repository root, the way the
// index reconciler's diff step decides which files even exist to reconcile
// against the known set.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpmtool/rpm-tool/internal/logging"
)

// Found is one *.rpm file discovered under a repository root.
type Found struct {
	Path    string // absolute or root-relative path as passed to Walk
	RelPath string // path relative to the repository root, forward-slash separated
	Size    int64
	MTime   int64
}

// Walk recursively scans root for *.rpm files, skipping the repodata/
// directory and anything under it. Depth is unbounded: the reconciler
// relies on finding packages nested arbitrarily deep under root.
func Walk(ctx context.Context, root string, sink logging.Sink) ([]Found, error) {
	var found []Found

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if info.Name() == "repodata" {
				return filepath.SkipDir
			}
			return nil
		}

		if !looksLikeRPM(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		found = append(found, Found{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
			MTime:   info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sink.Debug("walker: finished scan", map[string]any{"root": root, "found": len(found)})
	return found, nil
}

// looksLikeRPM is a plain *.rpm extension check: discovery is a glob over
// the extension, not a content sniff, so a non-RPM file someone dropped in
// the tree with a .rpm extension is the parser's problem, not the
// walker's, and a real RPM named without the extension is not discovered.
func looksLikeRPM(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".rpm")
}
