package mxio

import (
	"context"
	"sync"

	"github.com/donball360/magenta/internal/descriptor"
	"golang.org/x/sys/unix"
)

// FD is a POSIX file descriptor number.
type FD int32

// AtFDCWD is the magic dirfd sentinel recognized by PathRouter for the
// "…at" family of calls, matching the platform's AT_FDCWD value.
const AtFDCWD FD = FD(unix.AT_FDCWD)

// DefaultMaxFD is the default fixed size of an FdTable.
const DefaultMaxFD = 1024

// FdTable is the process-wide mapping from small non-negative integers to
// IoObject references. All mutations happen under a single
// mutex; transport operations (in particular Close) are never invoked while
// that mutex is held.
type FdTable struct {
	mu     sync.Mutex
	slots  descriptor.Table[FD, *IoObject]
	maxFD  int
}

// NewFdTable creates an FdTable with room for maxFD slots. Passing 0 uses
// DefaultMaxFD.
func NewFdTable(maxFD int) *FdTable {
	if maxFD <= 0 {
		maxFD = DefaultMaxFD
	}
	t := &FdTable{maxFD: maxFD}
	t.slots.Grow(maxFD)
	return t
}

// Bind installs io at desiredFD (or the lowest free slot >= startingFD when
// desiredFD < 0), returning the fd it landed at.
//
// The caller must have already arranged for io's refcount to include the
// share the table is about to own (i.e. typically by calling Acquire, or by
// passing a freshly constructed object whose initial refcount=1 is meant
// for the table).
func (t *FdTable) Bind(io *IoObject, desiredFD FD, startingFD FD) (FD, Status) {
	t.mu.Lock()

	var fd FD
	if desiredFD < 0 {
		if startingFD < 0 {
			startingFD = 0
		}
		found := false
		for candidate := startingFD; int(candidate) < t.maxFD; candidate++ {
			if _, ok := t.slots.Lookup(candidate); !ok {
				fd = candidate
				found = true
				break
			}
		}
		if !found {
			t.mu.Unlock()
			return -1, ErrNoResources // ErrnoFor maps this to ENOMEM; there is no EMFILE status
		}
	} else if int(desiredFD) >= t.maxFD {
		t.mu.Unlock()
		return -1, ErrInvalidArgs
	} else {
		fd = desiredFD
	}

	var ioToClose *IoObject
	if occupant, ok := t.slots.Lookup(fd); ok {
		occupant.dupcount--
		if occupant.dupcount > 0 {
			// Still alive through another fdtab slot.
			occupant.Release()
		} else {
			ioToClose = occupant
		}
	}

	io.dupcount++
	t.slots.Assign(fd, io)
	t.mu.Unlock()

	if ioToClose != nil {
		ioToClose.Transport.Close(context.Background())
		ioToClose.Release()
	}
	return fd, StatusOK
}

// Unbind detaches fd from the table and hands the sole remaining reference
// to the caller. It fails with ErrUnavailable if the fd
// is shared via dup (dupcount > 1) or if another operation has it acquired
// (refcount > 1).
func (t *FdTable) Unbind(fd FD) (*IoObject, Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(fd) < 0 || int(fd) >= t.maxFD {
		return nil, ErrInvalidArgs
	}
	io, ok := t.slots.Lookup(fd)
	if !ok {
		return nil, ErrInvalidArgs
	}
	if io.dupcount > 1 {
		return nil, ErrUnavailable
	}
	if io.RefCount() > 1 {
		return nil, ErrUnavailable
	}
	io.dupcount = 0
	t.slots.Delete(fd)
	return io, StatusOK
}

// Lookup returns the IoObject bound to fd with an extra reference acquired
// on the caller's behalf; the caller must Release it when done.
func (t *FdTable) Lookup(fd FD) (*IoObject, Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(fd) < 0 || int(fd) >= t.maxFD {
		return nil, ErrBadHandle
	}
	io, ok := t.slots.Lookup(fd)
	if !ok {
		return nil, ErrBadHandle
	}
	io.Acquire()
	return io, StatusOK
}

// Close decrements fd's dupcount; if it reaches zero the table lock is
// dropped before the transport's Close is invoked and the final reference
// released.
func (t *FdTable) Close(ctx context.Context, fd FD) Status {
	t.mu.Lock()
	if int(fd) < 0 || int(fd) >= t.maxFD {
		t.mu.Unlock()
		return ErrBadHandle
	}
	io, ok := t.slots.Lookup(fd)
	if !ok {
		t.mu.Unlock()
		return ErrBadHandle
	}
	io.dupcount--
	t.slots.Delete(fd)
	if io.dupcount > 0 {
		t.mu.Unlock()
		io.Release()
		return StatusOK
	}
	t.mu.Unlock()

	status := io.Transport.Close(ctx)
	io.Release()
	return status
}

// Dup looks up oldFD and binds it to newFD (desired, or lowest free >=
// startingFD when newFD < 0), implementing dup/dup2/dup3/F_DUPFD.
func (t *FdTable) Dup(oldFD, newFD, startingFD FD) (FD, Status) {
	io, status := t.Lookup(oldFD)
	if status != StatusOK {
		return -1, status
	}
	fd, status := t.Bind(io, newFD, startingFD)
	if status != StatusOK {
		io.Release()
	}
	return fd, status
}

// Range iterates over every occupied slot, holding the table lock for the
// whole walk. f may return false to stop early.
func (t *FdTable) Range(f func(fd FD, io *IoObject) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots.Range(func(fd FD, io *IoObject) bool {
		return f(fd, io)
	})
}

// CloseAll walks every slot, closing and releasing each IoObject whose
// dupcount drops to zero; this is the table-wide teardown mxio_exit
// performs at process exit.
func (t *FdTable) CloseAll(ctx context.Context) {
	type closing struct {
		fd FD
		io *IoObject
	}
	var toClose []closing

	t.mu.Lock()
	t.slots.Range(func(fd FD, io *IoObject) bool {
		io.dupcount--
		if io.dupcount == 0 {
			toClose = append(toClose, closing{fd, io})
		}
		return true
	})
	t.slots.Reset()
	t.mu.Unlock()

	for _, c := range toClose {
		c.io.Transport.Close(ctx)
		c.io.Release()
	}
}

// MaxFD returns the table's fixed capacity.
func (t *FdTable) MaxFD() int { return t.maxFD }
