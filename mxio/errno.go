package mxio

import "golang.org/x/sys/unix"

// errnoFor is the closed translation table from internal Status to POSIX
// errno.
//
// Internal code, including the PosixOps methods on Context, carries and
// returns Status; none of it calls errnoFor. ErrnoFor exposes the table to
// callers outside the package that need a POSIX errno for a Status.
func ErrnoFor(status Status) unix.Errno { return errnoFor(status) }

func errnoFor(status Status) unix.Errno {
	switch status {
	case StatusOK:
		return 0
	case ErrNotFound:
		return unix.ENOENT
	case ErrNoMemory:
		return unix.ENOMEM
	case ErrInvalidArgs:
		return unix.EINVAL
	case ErrBufferTooSmall:
		return unix.EINVAL
	case ErrTimedOut:
		return unix.ETIMEDOUT
	case ErrAlreadyExists:
		return unix.EEXIST
	case ErrRemoteClosed:
		return unix.ENOTCONN
	case ErrBadPath:
		return unix.ENAMETOOLONG
	case ErrIO:
		return unix.EIO
	case ErrNotDir:
		return unix.ENOTDIR
	case ErrNotSupported:
		return unix.ENOTSUP
	case ErrOutOfRange:
		return unix.EINVAL
	case ErrNoResources:
		return unix.ENOMEM
	case ErrBadHandle:
		return unix.EBADF
	case ErrAccessDenied:
		return unix.EACCES
	case ErrShouldWait:
		return unix.EAGAIN
	case ErrFileBig:
		return unix.EFBIG
	case ErrNoSpace:
		return unix.ENOSPC
	case ErrUnavailable:
		return unix.EAGAIN
	default:
		// Catch-all for any status without a closer errno match.
		return unix.EIO
	}
}

// statusFromErrno is used by transports that wrap real OS syscalls (localfs,
// pipe) to fold a host error back into our internal Status space, so the
// core never has to special-case "real" vs "simulated" transports.
// StatusFromErrno exposes statusFromErrno to transports outside the
// package (e.g. package transport's real-syscall-backed implementations).
func StatusFromErrno(err error) Status { return statusFromErrno(err) }

func statusFromErrno(err error) Status {
	if err == nil {
		return StatusOK
	}
	errno, ok := err.(unix.Errno)
	if !ok {
		return ErrIO
	}
	switch errno {
	case unix.ENOENT:
		return ErrNotFound
	case unix.ENOMEM:
		return ErrNoMemory
	case unix.EINVAL:
		return ErrInvalidArgs
	case unix.ETIMEDOUT:
		return ErrTimedOut
	case unix.EEXIST:
		return ErrAlreadyExists
	case unix.ENOTCONN:
		return ErrRemoteClosed
	case unix.ENAMETOOLONG:
		return ErrBadPath
	case unix.ENOTDIR:
		return ErrNotDir
	case unix.ENOTSUP, unix.EOPNOTSUPP:
		return ErrNotSupported
	case unix.EBADF:
		return ErrBadHandle
	case unix.EACCES, unix.EPERM:
		return ErrAccessDenied
	case unix.EAGAIN:
		return ErrShouldWait
	case unix.EFBIG:
		return ErrFileBig
	case unix.ENOSPC:
		return ErrNoSpace
	default:
		return ErrIO
	}
}
