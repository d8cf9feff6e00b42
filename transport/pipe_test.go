package transport_test

import (
	"context"
	"testing"

	"github.com/donball360/magenta/mxio"
	"github.com/donball360/magenta/transport"
)

func TestNewPipePairWriteThenRead(t *testing.T) {
	r, w, status := transport.NewPipePair(false)
	if status != mxio.StatusOK {
		t.Fatalf("NewPipePair: %s", status)
	}
	defer r.Close(context.Background())
	defer w.Close(context.Background())

	if n, status := w.Write(context.Background(), []byte("payload")); status != mxio.StatusOK || n != len("payload") {
		t.Fatalf("Write = %d, %s", n, status)
	}

	buf := make([]byte, 32)
	n, status := r.Read(context.Background(), buf)
	if status != mxio.StatusOK {
		t.Fatalf("Read: %s", status)
	}
	if string(buf[:n]) != "payload" {
		t.Fatalf("Read = %q; want payload", buf[:n])
	}
}

func TestNonBlockingPipeReadOnEmptyReturnsShouldWait(t *testing.T) {
	r, w, status := transport.NewPipePair(true)
	if status != mxio.StatusOK {
		t.Fatalf("NewPipePair: %s", status)
	}
	defer r.Close(context.Background())
	defer w.Close(context.Background())

	buf := make([]byte, 1)
	_, status = r.Read(context.Background(), buf)
	if status != mxio.ErrShouldWait {
		t.Fatalf("Read on empty nonblocking pipe = %s; want ErrShouldWait", status)
	}
}

func TestPipeCloseIsIdempotent(t *testing.T) {
	r, w, _ := transport.NewPipePair(false)
	defer w.Close(context.Background())

	if status := r.Close(context.Background()); status != mxio.StatusOK {
		t.Fatalf("first Close: %s", status)
	}
	if status := r.Close(context.Background()); status != mxio.StatusOK {
		t.Fatalf("second Close: %s", status)
	}
}

func TestPipeReadAtIsUnsupported(t *testing.T) {
	r, w, _ := transport.NewPipePair(false)
	defer r.Close(context.Background())
	defer w.Close(context.Background())

	if _, status := r.ReadAt(context.Background(), make([]byte, 1), 0); status != mxio.ErrNotSupported {
		t.Fatalf("ReadAt = %s; want ErrNotSupported", status)
	}
}
