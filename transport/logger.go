package transport

import (
	"context"

	"go.uber.org/zap"

	"github.com/donball360/magenta/mxio"
)

// Logger is the LOGGER transport family: writes are forwarded to a zap
// logger at Info level, reads are unsupported, grounded on perkeep-perkeep's use of zap for
// structured logging.
type Logger struct {
	log *zap.Logger
	tag string
}

// NewLogger wraps a zap logger as a Transport; every Write is emitted as a
// single structured log line under tag.
func NewLogger(log *zap.Logger, tag string) *Logger {
	return &Logger{log: log, tag: tag}
}

func (l *Logger) Close(ctx context.Context) mxio.Status { return mxio.StatusOK }

func (l *Logger) Read(ctx context.Context, buf []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (l *Logger) Write(ctx context.Context, buf []byte) (int, mxio.Status) {
	l.log.Info(l.tag, zap.ByteString("line", buf))
	return len(buf), mxio.StatusOK
}

func (l *Logger) ReadAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
func (l *Logger) WriteAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	return l.Write(ctx, buf)
}

func (l *Logger) Seek(ctx context.Context, offset int64, whence int) (int64, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (l *Logger) Misc(ctx context.Context, op mxio.MiscOp, arg int64, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (l *Logger) Ioctl(ctx context.Context, op uint32, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (l *Logger) Open(ctx context.Context, path string, flags mxio.OpenFlags, mode uint32) (mxio.Transport, mxio.Status) {
	return nil, mxio.ErrNotSupported
}

func (l *Logger) Clone(out []mxio.HandleInfo) (int, mxio.Status)  { return 0, mxio.ErrNotSupported }
func (l *Logger) Unwrap(out []mxio.HandleInfo) (int, mxio.Status) { return 0, mxio.ErrNotSupported }

func (l *Logger) WaitBegin(events mxio.EventMask) (mxio.WaitDescriptor, mxio.Signals) {
	if events.Has(mxio.Writable) {
		return mxio.WaitDescriptor(0), 0
	}
	return mxio.NoWaitDescriptor, 0
}
func (l *Logger) WaitEnd(pending mxio.Signals) mxio.EventMask { return mxio.Writable }

func (l *Logger) GetVMO() (mxio.WaitDescriptor, int64, int64, mxio.Status) {
	return mxio.NoWaitDescriptor, 0, 0, mxio.ErrNotSupported
}

func (l *Logger) PosixIoctl(req uint, arg uintptr) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
