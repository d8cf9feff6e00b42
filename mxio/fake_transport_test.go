package mxio_test

import (
	"context"

	"github.com/donball360/magenta/mxio"
)

// fakeTransport is a minimal Transport double used across package tests: it
// records whether Close was called, lets Read/Write/ReadAt/WriteAt/Seek/Open
// succeed trivially, and answers ErrNotSupported for the rest, mirroring
// lightweight hand-rolled test doubles over the vtable interface rather
// than a mock framework.
type fakeTransport struct {
	closed bool
}

func (f *fakeTransport) Close(ctx context.Context) mxio.Status {
	f.closed = true
	return mxio.StatusOK
}

func (f *fakeTransport) Read(ctx context.Context, buf []byte) (int, mxio.Status) {
	return 0, mxio.StatusOK
}
func (f *fakeTransport) Write(ctx context.Context, buf []byte) (int, mxio.Status) {
	return len(buf), mxio.StatusOK
}
func (f *fakeTransport) ReadAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return 0, mxio.StatusOK
}
func (f *fakeTransport) WriteAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return len(buf), mxio.StatusOK
}
func (f *fakeTransport) Seek(ctx context.Context, offset int64, whence int) (int64, mxio.Status) {
	return 0, mxio.StatusOK
}
func (f *fakeTransport) Misc(ctx context.Context, op mxio.MiscOp, arg int64, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
func (f *fakeTransport) Ioctl(ctx context.Context, op uint32, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
func (f *fakeTransport) Open(ctx context.Context, path string, flags mxio.OpenFlags, mode uint32) (mxio.Transport, mxio.Status) {
	return &fakeTransport{}, mxio.StatusOK
}
func (f *fakeTransport) Clone(out []mxio.HandleInfo) (int, mxio.Status)  { return 0, mxio.ErrNotSupported }
func (f *fakeTransport) Unwrap(out []mxio.HandleInfo) (int, mxio.Status) { return 0, mxio.ErrNotSupported }
func (f *fakeTransport) WaitBegin(events mxio.EventMask) (mxio.WaitDescriptor, mxio.Signals) {
	return mxio.NoWaitDescriptor, 0
}
func (f *fakeTransport) WaitEnd(pending mxio.Signals) mxio.EventMask { return 0 }
func (f *fakeTransport) GetVMO() (mxio.WaitDescriptor, int64, int64, mxio.Status) {
	return mxio.NoWaitDescriptor, 0, 0, mxio.ErrNotSupported
}
func (f *fakeTransport) PosixIoctl(req uint, arg uintptr) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
