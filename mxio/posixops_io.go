package mxio

import "context"

// IOVec is a single scatter/gather buffer, the Go analogue of struct iovec.
type IOVec []byte

// Read implements read(2): it retries while the transport reports
// ErrShouldWait and NONBLOCK is unset, suspending in WaitMux.WaitFD between
// attempts.
func (c *Context) Read(ctx context.Context, fd FD, buf []byte) (int, Status) {
	io, status := c.FdTab.Lookup(fd)
	if status != StatusOK {
		return 0, status
	}
	defer io.Release()

	for {
		n, status := io.Transport.Read(ctx, buf)
		if status != ErrShouldWait || io.HasFlag(FlagNonBlock) {
			return n, status
		}
		if _, wstatus := c.Wait.WaitFD(ctx, fd, Readable, Infinite); wstatus != StatusOK {
			return 0, wstatus
		}
	}
}

// Write implements write(2), mirroring Read's blocking-retry pattern.
func (c *Context) Write(ctx context.Context, fd FD, buf []byte) (int, Status) {
	io, status := c.FdTab.Lookup(fd)
	if status != StatusOK {
		return 0, status
	}
	defer io.Release()

	for {
		n, status := io.Transport.Write(ctx, buf)
		if status != ErrShouldWait || io.HasFlag(FlagNonBlock) {
			return n, status
		}
		if _, wstatus := c.Wait.WaitFD(ctx, fd, Writable, Infinite); wstatus != StatusOK {
			return 0, wstatus
		}
	}
}

// Pread implements pread(2) atop Transport.ReadAt.
func (c *Context) Pread(ctx context.Context, fd FD, buf []byte, offset int64) (int, Status) {
	io, status := c.FdTab.Lookup(fd)
	if status != StatusOK {
		return 0, status
	}
	defer io.Release()

	for {
		n, status := io.Transport.ReadAt(ctx, buf, offset)
		if status != ErrShouldWait || io.HasFlag(FlagNonBlock) {
			return n, status
		}
		if _, wstatus := c.Wait.WaitFD(ctx, fd, Readable, Infinite); wstatus != StatusOK {
			return 0, wstatus
		}
	}
}

// Pwrite implements pwrite(2) atop Transport.WriteAt.
func (c *Context) Pwrite(ctx context.Context, fd FD, buf []byte, offset int64) (int, Status) {
	io, status := c.FdTab.Lookup(fd)
	if status != StatusOK {
		return 0, status
	}
	defer io.Release()

	for {
		n, status := io.Transport.WriteAt(ctx, buf, offset)
		if status != ErrShouldWait || io.HasFlag(FlagNonBlock) {
			return n, status
		}
		if _, wstatus := c.Wait.WaitFD(ctx, fd, Writable, Infinite); wstatus != StatusOK {
			return 0, wstatus
		}
	}
}

// Readv loops Read over iovec entries, stopping at the first short read or
// error; a short read on any entry is treated as end-of-data and the
// accumulated count returned.
func (c *Context) Readv(ctx context.Context, fd FD, iov []IOVec) (int, Status) {
	count := 0
	for _, v := range iov {
		if len(v) == 0 {
			continue
		}
		n, status := c.Read(ctx, fd, v)
		if status != StatusOK {
			if count > 0 {
				return count, StatusOK
			}
			return 0, status
		}
		count += n
		if n < len(v) {
			return count, StatusOK
		}
	}
	return count, StatusOK
}

// Writev mirrors Readv for write(2).
func (c *Context) Writev(ctx context.Context, fd FD, iov []IOVec) (int, Status) {
	count := 0
	for _, v := range iov {
		if len(v) == 0 {
			continue
		}
		n, status := c.Write(ctx, fd, v)
		if status != StatusOK {
			if count > 0 {
				return count, StatusOK
			}
			return 0, status
		}
		count += n
		if n < len(v) {
			return count, StatusOK
		}
	}
	return count, StatusOK
}

// Preadv mirrors Readv using Pread, advancing the offset by each entry's
// length as it goes.
func (c *Context) Preadv(ctx context.Context, fd FD, iov []IOVec, offset int64) (int, Status) {
	count := 0
	for _, v := range iov {
		if len(v) == 0 {
			continue
		}
		n, status := c.Pread(ctx, fd, v, offset)
		if status != StatusOK {
			if count > 0 {
				return count, StatusOK
			}
			return 0, status
		}
		count += n
		offset += int64(n)
		if n < len(v) {
			return count, StatusOK
		}
	}
	return count, StatusOK
}

// Pwritev mirrors Preadv for pwrite(2).
func (c *Context) Pwritev(ctx context.Context, fd FD, iov []IOVec, offset int64) (int, Status) {
	count := 0
	for _, v := range iov {
		if len(v) == 0 {
			continue
		}
		n, status := c.Pwrite(ctx, fd, v, offset)
		if status != StatusOK {
			if count > 0 {
				return count, StatusOK
			}
			return 0, status
		}
		count += n
		offset += int64(n)
		if n < len(v) {
			return count, StatusOK
		}
	}
	return count, StatusOK
}

// Close implements close(2).
func (c *Context) Close(ctx context.Context, fd FD) Status {
	return c.FdTab.Close(ctx, fd)
}

// Dup implements dup(2).
func (c *Context) Dup(fd FD) (FD, Status) {
	return c.FdTab.Dup(fd, -1, 0)
}

// Dup2 implements dup2(2): a no-op returning newfd when oldfd == newfd and
// oldfd is valid.
func (c *Context) Dup2(oldfd, newfd FD) (FD, Status) {
	if oldfd == newfd {
		io, status := c.FdTab.Lookup(oldfd)
		if status != StatusOK {
			return -1, status
		}
		io.Release()
		return newfd, StatusOK
	}
	return c.FdTab.Dup(oldfd, newfd, 0)
}

// Dup3Flag enumerates the flags dup3(2) accepts.
type Dup3Flag uint32

const Dup3CloseOnExec Dup3Flag = 1

// Dup3 implements dup3(2): unlike dup2, oldfd == newfd is EINVAL.
func (c *Context) Dup3(oldfd, newfd FD, flags Dup3Flag) (FD, Status) {
	if oldfd == newfd {
		return -1, ErrInvalidArgs
	}
	if flags&^Dup3CloseOnExec != 0 {
		return -1, ErrInvalidArgs
	}
	return c.FdTab.Dup(oldfd, newfd, 0)
}

// FcntlCmd enumerates the fcntl(2) commands PosixOps implements.
type FcntlCmd int

const (
	FDupFD FcntlCmd = iota
	FDupFDCloseOnExec
	FGetFD
	FSetFD
	FGetFL
	FSetFL
	FGetOwn
	FSetOwn
	FGetLK
	FSetLK
	FSetLKW
)

// Fcntl implements a subset of fcntl(2); arg carries the command-specific
// integer argument (starting_fd for F_DUPFD*, the flag word for
// F_SETFD/F_SETFL).
func (c *Context) Fcntl(ctx context.Context, fd FD, cmd FcntlCmd, arg int) (int, Status) {
	switch cmd {
	case FDupFD, FDupFDCloseOnExec:
		newfd, status := c.FdTab.Dup(fd, -1, FD(arg))
		return int(newfd), status

	case FGetFD:
		io, status := c.FdTab.Lookup(fd)
		if status != StatusOK {
			return 0, status
		}
		defer io.Release()
		flags := 0
		if io.HasFlag(FlagCloseOnExec) {
			flags = 1
		}
		return flags, StatusOK

	case FSetFD:
		io, status := c.FdTab.Lookup(fd)
		if status != StatusOK {
			return 0, status
		}
		defer io.Release()
		next := io.Flags() &^ FlagCloseOnExec
		if arg != 0 {
			next |= FlagCloseOnExec
		}
		io.SetFlags(next)
		return 0, StatusOK

	case FGetFL:
		io, status := c.FdTab.Lookup(fd)
		if status != StatusOK {
			return 0, status
		}
		defer io.Release()
		if io.HasFlag(FlagNonBlock) {
			return int(OpenNonBlock), StatusOK
		}
		return 0, StatusOK

	case FSetFL:
		io, status := c.FdTab.Lookup(fd)
		if status != StatusOK {
			return 0, status
		}
		defer io.Release()
		io.setNonBlock(OpenFlags(arg).Has(OpenNonBlock))
		return 0, StatusOK

	case FGetOwn, FSetOwn, FGetLK, FSetLK, FSetLKW:
		return 0, ErrNotSupported

	default:
		return 0, ErrInvalidArgs
	}
}

// SeekWhence mirrors the lseek(2) whence argument.
type SeekWhence int

const (
	SeekStart SeekWhence = iota
	SeekCurrent
	SeekEnd
)

// Lseek implements lseek(2).
func (c *Context) Lseek(ctx context.Context, fd FD, offset int64, whence SeekWhence) (int64, Status) {
	io, status := c.FdTab.Lookup(fd)
	if status != StatusOK {
		return -1, status
	}
	defer io.Release()
	return io.Transport.Seek(ctx, offset, int(whence))
}

// Ioctl implements ioctl(2) via Transport.PosixIoctl.
func (c *Context) Ioctl(ctx context.Context, fd FD, req uint, arg uintptr) (int, Status) {
	io, status := c.FdTab.Lookup(fd)
	if status != StatusOK {
		return 0, status
	}
	defer io.Release()
	return io.Transport.PosixIoctl(req, arg)
}
