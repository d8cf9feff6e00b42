package transport_test

import (
	"context"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/donball360/magenta/mxio"
	"github.com/donball360/magenta/transport"
)

func TestWaitableWriteThenRead(t *testing.T) {
	fds, err := unix.Pipe2(0)
	if err != nil {
		t.Fatalf("Pipe2: %v", err)
	}
	r := transport.NewWaitable(fds[0], mxio.Readable, true)
	w := transport.NewWaitable(fds[1], mxio.Writable, true)
	defer r.Close(context.Background())
	defer w.Close(context.Background())

	if n, status := w.Write(context.Background(), []byte("hi")); status != mxio.StatusOK || n != 2 {
		t.Fatalf("Write = %d, %s", n, status)
	}
	buf := make([]byte, 8)
	n, status := r.Read(context.Background(), buf)
	if status != mxio.StatusOK || string(buf[:n]) != "hi" {
		t.Fatalf("Read = %q, %s; want hi", buf[:n], status)
	}
}

func TestWaitableCloseIsNoopWhenNotOwned(t *testing.T) {
	fds, err := unix.Pipe2(0)
	if err != nil {
		t.Fatalf("Pipe2: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	w := transport.NewWaitable(fds[0], mxio.Readable, false)
	if status := w.Close(context.Background()); status != mxio.StatusOK {
		t.Fatalf("Close: %s", status)
	}
	// fds[0] must still be open: a direct read should not fail with EBADF.
	buf := make([]byte, 1)
	if _, err := unix.Read(fds[0], buf); err == unix.EBADF {
		t.Fatalf("fd was closed despite owned=false")
	}
}

func TestWaitableWaitBeginMasksToAllowedEvents(t *testing.T) {
	fds, err := unix.Pipe2(0)
	if err != nil {
		t.Fatalf("Pipe2: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	w := transport.NewWaitable(fds[1], mxio.Writable, false)
	_, signals := w.WaitBegin(mxio.Readable | mxio.Writable)
	if signals&unix.POLLIN != 0 {
		t.Fatalf("WaitBegin requested POLLIN for a write-only Waitable: signals=%v", signals)
	}
	if signals&unix.POLLOUT == 0 {
		t.Fatalf("WaitBegin dropped POLLOUT for an allowed Writable event: signals=%v", signals)
	}
}

func TestWaitableReadAtIsUnsupported(t *testing.T) {
	fds, err := unix.Pipe2(0)
	if err != nil {
		t.Fatalf("Pipe2: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	w := transport.NewWaitable(fds[0], mxio.Readable, false)
	if _, status := w.ReadAt(context.Background(), make([]byte, 1), 0); status != mxio.ErrNotSupported {
		t.Fatalf("ReadAt = %s; want ErrNotSupported", status)
	}
}
