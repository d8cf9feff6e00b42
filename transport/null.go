// Package transport provides the concrete Transport vtables mxio's IoObject
// wraps: an in-memory null device, connected pipe endpoints, a zap-backed
// logger sink, a generic waitable wrapper, and a real-OS-directory remote
// file, backed by the same raw syscall approach as the real-OS transports.
package transport

import (
	"context"

	"github.com/donball360/magenta/mxio"
)

// Null is the /dev/null-equivalent transport: reads return EOF (zero bytes,
// no error), writes discard and report success, nothing is waitable.
type Null struct{}

func (Null) Close(ctx context.Context) mxio.Status { return mxio.StatusOK }

func (Null) Read(ctx context.Context, buf []byte) (int, mxio.Status) { return 0, mxio.StatusOK }
func (Null) Write(ctx context.Context, buf []byte) (int, mxio.Status) {
	return len(buf), mxio.StatusOK
}

func (Null) ReadAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return 0, mxio.StatusOK
}
func (Null) WriteAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return len(buf), mxio.StatusOK
}

func (Null) Seek(ctx context.Context, offset int64, whence int) (int64, mxio.Status) {
	return 0, mxio.StatusOK
}

func (Null) Misc(ctx context.Context, op mxio.MiscOp, arg int64, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (Null) Ioctl(ctx context.Context, op uint32, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (Null) Open(ctx context.Context, path string, flags mxio.OpenFlags, mode uint32) (mxio.Transport, mxio.Status) {
	return nil, mxio.ErrNotSupported
}

func (Null) Clone(out []mxio.HandleInfo) (int, mxio.Status)  { return 0, mxio.ErrNotSupported }
func (Null) Unwrap(out []mxio.HandleInfo) (int, mxio.Status) { return 0, mxio.ErrNotSupported }

func (Null) WaitBegin(events mxio.EventMask) (mxio.WaitDescriptor, mxio.Signals) {
	return mxio.NoWaitDescriptor, 0
}
func (Null) WaitEnd(pending mxio.Signals) mxio.EventMask { return 0 }

func (Null) GetVMO() (mxio.WaitDescriptor, int64, int64, mxio.Status) {
	return mxio.NoWaitDescriptor, 0, 0, mxio.ErrNotSupported
}

func (Null) PosixIoctl(req uint, arg uintptr) (int, mxio.Status) { return 0, mxio.ErrNotSupported }
