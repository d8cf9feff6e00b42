package mxio_test

import (
	"context"
	"testing"

	"github.com/donball360/magenta/mxio"
)

func TestBindLowestFree(t *testing.T) {
	tab := mxio.NewFdTable(16)
	io := mxio.NewIoObject(&fakeTransport{}, mxio.TransportNull, 0)

	fd, status := tab.Bind(io, -1, 0)
	if status != mxio.StatusOK {
		t.Fatalf("Bind: %s", status)
	}
	if fd != 0 {
		t.Fatalf("Bind landed at fd %d; want 0", fd)
	}
}

func TestBindOverwriteClosesOccupant(t *testing.T) {
	tab := mxio.NewFdTable(16)
	first := &fakeTransport{}
	second := &fakeTransport{}

	fd, status := tab.Bind(mxio.NewIoObject(first, mxio.TransportNull, 0), 3, 0)
	if status != mxio.StatusOK || fd != 3 {
		t.Fatalf("first Bind: fd=%d status=%s", fd, status)
	}
	if _, status := tab.Bind(mxio.NewIoObject(second, mxio.TransportNull, 0), 3, 0); status != mxio.StatusOK {
		t.Fatalf("second Bind: %s", status)
	}
	if !first.closed {
		t.Fatal("occupant's transport was not closed when overwritten")
	}
}

func TestUnbindRequiresSoleReference(t *testing.T) {
	tab := mxio.NewFdTable(16)
	io := mxio.NewIoObject(&fakeTransport{}, mxio.TransportNull, 0)
	fd, _ := tab.Bind(io, -1, 0)

	// A second fdtab slot pointing at the same object raises dupcount to 2.
	io.Acquire()
	if _, status := tab.Bind(io, -1, 0); status != mxio.StatusOK {
		t.Fatalf("second Bind: %s", status)
	}

	if _, status := tab.Unbind(fd); status != mxio.ErrUnavailable {
		t.Fatalf("Unbind with dupcount>1 = %s; want ErrUnavailable", status)
	}
}

func TestUnbindSucceedsWithSoleReference(t *testing.T) {
	tab := mxio.NewFdTable(16)
	io := mxio.NewIoObject(&fakeTransport{}, mxio.TransportNull, 0)
	fd, _ := tab.Bind(io, -1, 0)

	got, status := tab.Unbind(fd)
	if status != mxio.StatusOK {
		t.Fatalf("Unbind: %s", status)
	}
	if got != io {
		t.Fatal("Unbind returned a different IoObject than was bound")
	}
	if _, status := tab.Lookup(fd); status == mxio.StatusOK {
		t.Fatal("fd still resolves after Unbind")
	}
}

func TestCloseDecrementsDupCountAndClosesAtZero(t *testing.T) {
	tab := mxio.NewFdTable(16)
	transport := &fakeTransport{}
	io := mxio.NewIoObject(transport, mxio.TransportNull, 0)
	fd, _ := tab.Bind(io, -1, 0)

	if status := tab.Close(context.Background(), fd); status != mxio.StatusOK {
		t.Fatalf("Close: %s", status)
	}
	if !transport.closed {
		t.Fatal("transport was not closed")
	}
	if _, status := tab.Lookup(fd); status == mxio.StatusOK {
		t.Fatal("fd still resolves after Close")
	}
}

func TestDupSharesDupCount(t *testing.T) {
	tab := mxio.NewFdTable(16)
	transport := &fakeTransport{}
	io := mxio.NewIoObject(transport, mxio.TransportNull, 0)
	fd, _ := tab.Bind(io, -1, 0)

	dupFD, status := tab.Dup(fd, -1, 0)
	if status != mxio.StatusOK {
		t.Fatalf("Dup: %s", status)
	}
	if dupFD == fd {
		t.Fatal("Dup returned the same fd")
	}

	// Closing one alias must not close the underlying transport while the
	// other alias is still live.
	tab.Close(context.Background(), fd)
	if transport.closed {
		t.Fatal("transport closed while a dup'd fd is still live")
	}
	tab.Close(context.Background(), dupFD)
	if !transport.closed {
		t.Fatal("transport was not closed after the last alias closed")
	}
}

func TestLookupOutOfRange(t *testing.T) {
	tab := mxio.NewFdTable(4)
	if _, status := tab.Lookup(99); status != mxio.ErrBadHandle {
		t.Fatalf("Lookup(99) = %s; want ErrBadHandle", status)
	}
	if _, status := tab.Lookup(-1); status != mxio.ErrBadHandle {
		t.Fatalf("Lookup(-1) = %s; want ErrBadHandle", status)
	}
}
