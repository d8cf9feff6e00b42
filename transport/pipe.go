package transport

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/donball360/magenta/mxio"
)

// Pipe wraps one end of a real OS pipe (unix.Pipe2), grounded on the
// teacher's systems/unix.FD: a bare fd plus direct syscalls, no buffering
// layered on top.
type Pipe struct {
	mu sync.Mutex
	fd int
}

// NewPipePair creates a connected pipe and returns its two Transport ends,
// read then write, for PosixOps.Pipe2's newPipe callback.
func NewPipePair(nonblock bool) (mxio.Transport, mxio.Transport, mxio.Status) {
	var fds [2]int
	flags := 0
	if nonblock {
		flags = unix.O_NONBLOCK
	}
	if err := unix.Pipe2(fds[:], flags); err != nil {
		return nil, nil, statusFromErrno(err)
	}
	return &Pipe{fd: fds[0]}, &Pipe{fd: fds[1]}, mxio.StatusOK
}

func (p *Pipe) Close(ctx context.Context) mxio.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd < 0 {
		return mxio.StatusOK
	}
	err := unix.Close(p.fd)
	p.fd = -1
	return statusFromErrno(err)
}

func (p *Pipe) Read(ctx context.Context, buf []byte) (int, mxio.Status) {
	n, err := unix.Read(p.fd, buf)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (p *Pipe) Write(ctx context.Context, buf []byte) (int, mxio.Status) {
	n, err := unix.Write(p.fd, buf)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (p *Pipe) ReadAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
func (p *Pipe) WriteAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (p *Pipe) Seek(ctx context.Context, offset int64, whence int) (int64, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (p *Pipe) Misc(ctx context.Context, op mxio.MiscOp, arg int64, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (p *Pipe) Ioctl(ctx context.Context, op uint32, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (p *Pipe) Open(ctx context.Context, path string, flags mxio.OpenFlags, mode uint32) (mxio.Transport, mxio.Status) {
	return nil, mxio.ErrNotSupported
}

func (p *Pipe) Clone(out []mxio.HandleInfo) (int, mxio.Status)  { return 0, mxio.ErrNotSupported }
func (p *Pipe) Unwrap(out []mxio.HandleInfo) (int, mxio.Status) { return 0, mxio.ErrNotSupported }

func (p *Pipe) WaitBegin(events mxio.EventMask) (mxio.WaitDescriptor, mxio.Signals) {
	return fdWaitBegin(p.fd, events)
}
func (p *Pipe) WaitEnd(pending mxio.Signals) mxio.EventMask { return fdWaitEnd(pending) }

func (p *Pipe) GetVMO() (mxio.WaitDescriptor, int64, int64, mxio.Status) {
	return mxio.NoWaitDescriptor, 0, 0, mxio.ErrNotSupported
}

func (p *Pipe) PosixIoctl(req uint, arg uintptr) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
