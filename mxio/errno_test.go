package mxio_test

import (
	"testing"

	"github.com/donball360/magenta/mxio"
	"golang.org/x/sys/unix"
)

func TestErrnoForCoversTable(t *testing.T) {
	tests := []struct {
		status mxio.Status
		errno  unix.Errno
	}{
		{mxio.ErrNotFound, unix.ENOENT},
		{mxio.ErrNoMemory, unix.ENOMEM},
		{mxio.ErrInvalidArgs, unix.EINVAL},
		{mxio.ErrBufferTooSmall, unix.EINVAL},
		{mxio.ErrTimedOut, unix.ETIMEDOUT},
		{mxio.ErrAlreadyExists, unix.EEXIST},
		{mxio.ErrRemoteClosed, unix.ENOTCONN},
		{mxio.ErrBadPath, unix.ENAMETOOLONG},
		{mxio.ErrIO, unix.EIO},
		{mxio.ErrNotDir, unix.ENOTDIR},
		{mxio.ErrNotSupported, unix.ENOTSUP},
		{mxio.ErrOutOfRange, unix.EINVAL},
		{mxio.ErrNoResources, unix.ENOMEM},
		{mxio.ErrBadHandle, unix.EBADF},
		{mxio.ErrAccessDenied, unix.EACCES},
		{mxio.ErrShouldWait, unix.EAGAIN},
		{mxio.ErrFileBig, unix.EFBIG},
		{mxio.ErrNoSpace, unix.ENOSPC},
	}
	for _, tt := range tests {
		if got := mxio.ErrnoFor(tt.status); got != tt.errno {
			t.Errorf("ErrnoFor(%s) = %v; want %v", tt.status, got, tt.errno)
		}
	}
}

func TestStatusFromErrnoMapsKnownErrnos(t *testing.T) {
	tests := []struct {
		errno  unix.Errno
		status mxio.Status
	}{
		{unix.ENOENT, mxio.ErrNotFound},
		{unix.EBADF, mxio.ErrBadHandle},
		{unix.EAGAIN, mxio.ErrShouldWait},
		{unix.EACCES, mxio.ErrAccessDenied},
		{unix.EPERM, mxio.ErrAccessDenied},
	}
	for _, tt := range tests {
		if got := mxio.StatusFromErrno(tt.errno); got != tt.status {
			t.Errorf("StatusFromErrno(%v) = %s; want %s", tt.errno, got, tt.status)
		}
	}
}

func TestStatusFromErrnoNilIsOK(t *testing.T) {
	if got := mxio.StatusFromErrno(nil); got != mxio.StatusOK {
		t.Fatalf("StatusFromErrno(nil) = %s; want StatusOK", got)
	}
}
