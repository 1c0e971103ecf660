package cli

import (
	"errors"

	"github.com/rpmtool/rpm-tool/internal/models"
	"github.com/rpmtool/rpm-tool/internal/repolock"
)

// classifyReconcileErr maps a reconciler failure onto the process exit
// code table: lock contention fails fast with LockBusy, everything else
// from the index engine is an Io failure against repodata/ itself.
func classifyReconcileErr(root string, err error) error {
	if errors.Is(err, repolock.ErrLocked) {
		return models.NewFileError(models.ErrLockBusy, root, err)
	}
	return models.NewFileError(models.ErrIo, root, err)
}

// classifyValidateErr reports a failure of reconciler.Validate itself
// (walking the root) as Io. A non-empty validation report is not an error
// from Validate; the validate command reports it as Integrity.
func classifyValidateErr(root string, err error) error {
	return models.NewFileError(models.ErrIo, root, err)
}
