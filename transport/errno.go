package transport

import "github.com/donball360/magenta/mxio"

// statusFromErrno folds a real syscall error into mxio's Status space,
// delegating to the core's own ErrorMap inverse.
func statusFromErrno(err error) mxio.Status { return mxio.StatusFromErrno(err) }
