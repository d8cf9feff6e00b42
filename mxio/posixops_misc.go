package mxio

import "context"

// Chdir implements chdir(2), delegating to CwdTracker.Chdir.
func (c *Context) Chdir(ctx context.Context, path string) Status {
	return c.Cwd.Chdir(ctx, c.Router, path)
}

// Getcwd implements getcwd(3).
func (c *Context) Getcwd(buf []byte) (string, Status) {
	return c.Cwd.Getcwd(buf)
}

// Isatty reports whether fd is a terminal. The vtable carries no terminal
// transport family, so bound stdio fds 0-2 are treated as ttys; an unbound
// 0-2 reports the lookup's ErrBadHandle, and every other fd answers
// ErrNotSupported, mirroring mxio's own hardcoded isatty stub. There is no
// ENOTTY status: ErrnoFor turns ErrNotSupported into ENOTSUP.
func (c *Context) Isatty(fd FD) (bool, Status) {
	if fd >= 0 && fd <= 2 {
		io, status := c.FdTab.Lookup(fd)
		if status != StatusOK {
			return false, status
		}
		io.Release()
		return true, StatusOK
	}
	return false, ErrNotSupported
}

// Pipe implements pipe(2): it allocates a connected pair of pipe
// transports, binding each end to the lowest two free descriptors.
func (c *Context) Pipe(ctx context.Context, newPipe func(nonblock bool) (Transport, Transport, Status)) ([2]FD, Status) {
	return c.Pipe2(ctx, 0, newPipe)
}

// Pipe2Flag mirrors the flags pipe2(2) accepts.
type Pipe2Flag uint32

const Pipe2NonBlock Pipe2Flag = 1 << 0

// Pipe2 implements pipe2(2). newPipe constructs the two connected transport
// ends (supplied by the caller since the vtable core has no transport
// package dependency); PosixOps only handles the fd-table bookkeeping.
func (c *Context) Pipe2(ctx context.Context, flags Pipe2Flag, newPipe func(nonblock bool) (Transport, Transport, Status)) ([2]FD, Status) {
	nonblock := flags&Pipe2NonBlock != 0
	readEnd, writeEnd, status := newPipe(nonblock)
	if status != StatusOK {
		return [2]FD{-1, -1}, status
	}

	ioFlags := Flags(0)
	if flags&Pipe2NonBlock != 0 {
		ioFlags |= FlagNonBlock
	}

	rIO := NewIoObject(readEnd, TransportPipe, ioFlags)
	wIO := NewIoObject(writeEnd, TransportPipe, ioFlags)

	rfd, status := c.FdTab.Bind(rIO, -1, 0)
	if status != StatusOK {
		rIO.Transport.Close(ctx)
		rIO.Release()
		wIO.Transport.Close(ctx)
		wIO.Release()
		return [2]FD{-1, -1}, status
	}
	wfd, status := c.FdTab.Bind(wIO, -1, 0)
	if status != StatusOK {
		c.FdTab.Close(ctx, rfd)
		wIO.Transport.Close(ctx)
		wIO.Release()
		return [2]FD{-1, -1}, status
	}
	return [2]FD{rfd, wfd}, StatusOK
}
