package mxio_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/donball360/magenta/mxio"
)

// packVdirent builds one packed vdirent record in the wire format
// DirStream parses, NUL-padded to a multiple of 8 bytes (the LOCALFS
// transport's readDir Misc handler packs records without that padding).
func packVdirent(name string, typ uint8) []byte {
	size := 5 + len(name)
	for size%8 != 0 {
		size++
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(size))
	buf[4] = typ
	copy(buf[5:], name)
	return buf
}

// dirTransport is a fakeTransport whose Misc(MiscReadDir) answers with a
// fixed, pre-packed sequence of vdirent records, one batch per call — the
// final call returns a zero-length batch to signal end-of-directory.
type dirTransport struct {
	fakeTransport
	batches [][]byte
	calls   int
	resets  []mxio.MiscOp
	args    []int64
}

func (d *dirTransport) Misc(ctx context.Context, op mxio.MiscOp, arg int64, in, out []byte) (int, mxio.Status) {
	if op != mxio.MiscReadDir {
		return 0, mxio.ErrNotSupported
	}
	d.args = append(d.args, arg)
	if d.calls >= len(d.batches) {
		return 0, mxio.StatusOK
	}
	batch := d.batches[d.calls]
	d.calls++
	n := copy(out, batch)
	return n, mxio.StatusOK
}

// newDirStream adopts a fake directory transport the way fdopendir(3) would:
// bind it into a fresh fd table, then wrap it with FdOpenDir, since DirStream
// itself exposes no exported constructor outside the mxio package.
func newDirStream(t *testing.T, batches [][]byte) (*mxio.DirStream, *dirTransport) {
	t.Helper()
	tr := &dirTransport{batches: batches}
	c := mxio.NewContext(16)
	io := mxio.NewIoObject(tr, mxio.TransportRemote, 0)
	fd, status := c.FdTab.Bind(io, -1, 0)
	if status != mxio.StatusOK {
		t.Fatalf("Bind: %s", status)
	}
	d, status := c.FdOpenDir(fd)
	if status != mxio.StatusOK {
		t.Fatalf("FdOpenDir: %s", status)
	}
	return d, tr
}

func TestDirStreamReadsEntriesAcrossBatches(t *testing.T) {
	batch1 := append(packVdirent(".", 4), packVdirent("..", 4)...)
	batch2 := packVdirent("file.txt", 8)
	d, _ := newDirStream(t, [][]byte{batch1, batch2})

	var got []string
	for {
		entry, status := d.Read(context.Background())
		if status != mxio.StatusOK {
			t.Fatalf("Read: %s", status)
		}
		if entry == nil {
			break
		}
		got = append(got, entry.Name)
	}
	want := []string{".", "..", "file.txt"}
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v; want %v", got, want)
		}
	}
}

func TestDirStreamFirstReadCarriesReset(t *testing.T) {
	d, tr := newDirStream(t, [][]byte{packVdirent("a", 8)})
	d.Read(context.Background())
	if len(tr.args) == 0 || tr.args[0] != int64(mxio.ReadDirReset) {
		t.Fatalf("first Misc arg = %v; want ReadDirReset", tr.args)
	}
}

func TestDirStreamRewindDirResetsOnNextRead(t *testing.T) {
	d, tr := newDirStream(t, [][]byte{packVdirent("a", 8), packVdirent("b", 8)})
	d.Read(context.Background())
	d.RewindDir()
	d.Read(context.Background())
	if len(tr.args) != 2 || tr.args[1] != int64(mxio.ReadDirReset) {
		t.Fatalf("args after rewind = %v; want second call to carry ReadDirReset", tr.args)
	}
}

func TestDirStreamEndOfDirectoryIsNilEntryStatusOK(t *testing.T) {
	d, _ := newDirStream(t, nil)
	entry, status := d.Read(context.Background())
	if status != mxio.StatusOK || entry != nil {
		t.Fatalf("Read on empty directory = %v, %s; want nil, StatusOK", entry, status)
	}
}
