package transport

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/donball360/magenta/mxio"
)

// Waitable wraps a caller-supplied OS file descriptor plus an explicit
// mask of the events that fd is declared to support, the mxio_handle_fd
// style of bringing an already-open descriptor (a pty, an inherited
// socket, an eventfd) into the fd table without the transport guessing
// at its capabilities. Read/Write/Close are plain passthroughs to the
// fd; Close only actually closes it when the caller marked the Waitable
// as owning the descriptor.
type Waitable struct {
	mu      sync.Mutex
	fd      int
	allowed mxio.EventMask
	owned   bool
}

// NewWaitable adopts fd, restricting WaitBegin/WaitEnd to allowed events
// regardless of what a caller asks to wait for. If owned is true, Close
// closes fd; otherwise Close is a no-op and the descriptor remains the
// caller's responsibility.
func NewWaitable(fd int, allowed mxio.EventMask, owned bool) *Waitable {
	return &Waitable{fd: fd, allowed: allowed, owned: owned}
}

func (w *Waitable) Close(ctx context.Context) mxio.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.owned || w.fd < 0 {
		w.fd = -1
		return mxio.StatusOK
	}
	err := unix.Close(w.fd)
	w.fd = -1
	return statusFromErrno(err)
}

func (w *Waitable) Read(ctx context.Context, buf []byte) (int, mxio.Status) {
	n, err := unix.Read(w.fd, buf)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (w *Waitable) Write(ctx context.Context, buf []byte) (int, mxio.Status) {
	n, err := unix.Write(w.fd, buf)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (w *Waitable) ReadAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
func (w *Waitable) WriteAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (w *Waitable) Seek(ctx context.Context, offset int64, whence int) (int64, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (w *Waitable) Misc(ctx context.Context, op mxio.MiscOp, arg int64, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (w *Waitable) Ioctl(ctx context.Context, op uint32, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (w *Waitable) Open(ctx context.Context, path string, flags mxio.OpenFlags, mode uint32) (mxio.Transport, mxio.Status) {
	return nil, mxio.ErrNotSupported
}

func (w *Waitable) Clone(out []mxio.HandleInfo) (int, mxio.Status)  { return 0, mxio.ErrNotSupported }
func (w *Waitable) Unwrap(out []mxio.HandleInfo) (int, mxio.Status) { return 0, mxio.ErrNotSupported }

// WaitBegin restricts events to the mask this Waitable was constructed
// with before handing off to the real-fd poll translation.
func (w *Waitable) WaitBegin(events mxio.EventMask) (mxio.WaitDescriptor, mxio.Signals) {
	return fdWaitBegin(w.fd, events&w.allowed)
}
func (w *Waitable) WaitEnd(pending mxio.Signals) mxio.EventMask {
	return fdWaitEnd(pending) & w.allowed
}

func (w *Waitable) GetVMO() (mxio.WaitDescriptor, int64, int64, mxio.Status) {
	return mxio.NoWaitDescriptor, 0, 0, mxio.ErrNotSupported
}

func (w *Waitable) PosixIoctl(req uint, arg uintptr) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

// fdWaitBegin and fdWaitEnd translate between mxio's EventMask and real
// poll(2) bits for any transport backed by a genuine OS file descriptor
// (pipe ends, localfs files, Waitable), driving the same real unix.Poll
// over raw fds.
func fdWaitBegin(fd int, events mxio.EventMask) (mxio.WaitDescriptor, mxio.Signals) {
	var bits int16
	if events.Has(mxio.Readable) {
		bits |= unix.POLLIN
	}
	if events.Has(mxio.Writable) {
		bits |= unix.POLLOUT
	}
	if events.Has(mxio.ErrorReady) {
		bits |= unix.POLLERR
	}
	if events.Has(mxio.Hangup) {
		bits |= unix.POLLHUP
	}
	return mxio.WaitDescriptor(fd), mxio.Signals(bits)
}

func fdWaitEnd(pending mxio.Signals) mxio.EventMask {
	var out mxio.EventMask
	if pending&unix.POLLIN != 0 {
		out |= mxio.Readable
	}
	if pending&unix.POLLOUT != 0 {
		out |= mxio.Writable
	}
	if pending&(unix.POLLERR|unix.POLLNVAL) != 0 {
		out |= mxio.ErrorReady
	}
	if pending&unix.POLLHUP != 0 {
		out |= mxio.Hangup
	}
	return out
}
