package reconcile

import (
	"os"

	"github.com/pkg/errors"
)

// handleOpenError implements the "open-failure" error kind of spec.md §7:
// depending on the underlying system error, either treat the path as simply
// gone (the common case: something removed the directory between the
// notification and our attempt to open it) or, if the error isn't one
// explainable by ordinary removal, schedule a recrawl since the view and
// disk may have diverged in a way a single re-enqueue won't fix.
//
// It never returns an error itself: by spec.md §7 an open-failure is never
// fatal, only routed to one of these two outcomes. os.IsNotExist/IsPermission
// are checked against the raw error, before any wrapping, since they only
// recognize *PathError/*SyscallError directly.
func (r *RootContext) handleOpenError(path, operation string, err error) {
	if os.IsNotExist(err) || os.IsPermission(err) {
		r.logger.Debugf("%s(%s): %v (treating as removed)", operation, path, err)
		return
	}

	wrapped := errors.Wrapf(err, "%s(%s)", operation, path)
	r.logger.Warn(wrapped)
	r.ScheduleRecrawl(wrapped.Error())
}
