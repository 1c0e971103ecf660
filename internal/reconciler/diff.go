package reconciler

import (
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
	"github.com/rpmtool/rpm-tool/internal/walker"
)

// classification is step 4's output: carry-over packages reused unchanged,
// and freshly discovered files scheduled for a parse+checksum job.
type classification struct {
	carryOver []*rpmpkg.Package
	fresh     []walker.Found
}

// classify splits found against known by the (relpath, size, mtime)
// triple: an exact match is carried over unchanged, anything else is
// new-or-changed.
func classify(known *knownSet, found []walker.Found) classification {
	var out classification
	for _, f := range found {
		if pkg, ok := known.packages[f.RelPath]; ok && pkg.Size == f.Size && pkg.MTime == f.MTime {
			out.carryOver = append(out.carryOver, pkg)
			continue
		}
		out.fresh = append(out.fresh, f)
	}
	return out
}
