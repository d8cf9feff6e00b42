package mxio

import "context"

// nullTransport is the core package's own minimal null device, used only as
// Bootstrap's fallback when no stdio source or cwd handle was inherited
//. The richer, user-facing null transport lives in package
// transport; this one exists so the core has no dependency on it.
type nullTransport struct{}

func (nullTransport) Close(ctx context.Context) Status { return StatusOK }

func (nullTransport) Read(ctx context.Context, buf []byte) (int, Status) { return 0, StatusOK }
func (nullTransport) Write(ctx context.Context, buf []byte) (int, Status) {
	return len(buf), StatusOK
}

func (nullTransport) ReadAt(ctx context.Context, buf []byte, offset int64) (int, Status) {
	return 0, StatusOK
}
func (nullTransport) WriteAt(ctx context.Context, buf []byte, offset int64) (int, Status) {
	return len(buf), StatusOK
}

func (nullTransport) Seek(ctx context.Context, offset int64, whence int) (int64, Status) {
	return 0, StatusOK
}

func (nullTransport) Misc(ctx context.Context, op MiscOp, arg int64, in, out []byte) (int, Status) {
	return 0, ErrNotSupported
}

func (nullTransport) Ioctl(ctx context.Context, op uint32, in, out []byte) (int, Status) {
	return 0, ErrNotSupported
}

func (nullTransport) Open(ctx context.Context, path string, flags OpenFlags, mode uint32) (Transport, Status) {
	return nil, ErrNotSupported
}

func (nullTransport) Clone(out []HandleInfo) (int, Status)  { return 0, ErrNotSupported }
func (nullTransport) Unwrap(out []HandleInfo) (int, Status) { return 0, ErrNotSupported }

func (nullTransport) WaitBegin(events EventMask) (WaitDescriptor, Signals) {
	return NoWaitDescriptor, 0
}
func (nullTransport) WaitEnd(pending Signals) EventMask { return 0 }

func (nullTransport) GetVMO() (WaitDescriptor, int64, int64, Status) {
	return NoWaitDescriptor, 0, 0, ErrNotSupported
}

func (nullTransport) PosixIoctl(req uint, arg uintptr) (int, Status) { return 0, ErrNotSupported }
