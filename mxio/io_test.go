package mxio_test

import (
	"testing"

	"github.com/donball360/magenta/mxio"
)

func TestIoObjectRefCount(t *testing.T) {
	io := mxio.NewIoObject(&fakeTransport{}, mxio.TransportNull, 0)
	if io.RefCount() != 1 {
		t.Fatalf("RefCount() after construction = %d; want 1", io.RefCount())
	}
	io.Acquire()
	if io.RefCount() != 2 {
		t.Fatalf("RefCount() after Acquire = %d; want 2", io.RefCount())
	}
	io.Release()
	if io.RefCount() != 1 {
		t.Fatalf("RefCount() after Release = %d; want 1", io.RefCount())
	}
}

func TestIoObjectOverReleasePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Release past zero did not panic")
		}
	}()
	io := mxio.NewIoObject(&fakeTransport{}, mxio.TransportNull, 0)
	io.Release()
	io.Release()
}

func TestIoObjectFlags(t *testing.T) {
	io := mxio.NewIoObject(&fakeTransport{}, mxio.TransportNull, mxio.FlagCloseOnExec)
	if !io.HasFlag(mxio.FlagCloseOnExec) {
		t.Fatal("constructor flags not observed")
	}
	if io.HasFlag(mxio.FlagNonBlock) {
		t.Fatal("FlagNonBlock set unexpectedly")
	}
	io.SetFlags(io.Flags() | mxio.FlagNonBlock)
	if !io.HasFlag(mxio.FlagNonBlock) {
		t.Fatal("SetFlags did not add FlagNonBlock")
	}
}
