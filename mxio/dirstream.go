package mxio

import (
	"context"
	"encoding/binary"
	"sync"
)

// DirEntry is one entry returned by DirStream.Read, the Go analogue of
// struct dirent. d_ino/d_off/d_reclen are not populated
// since the transport layer has no stable inode/offset concept to expose
// — only Name and Type are meaningful.
type DirEntry struct {
	Name string
	Type uint8
}

// vdirentHeaderSize is the fixed prefix of a packed vdirent record: a
// little-endian uint32 record size, then a one-byte type tag, then the
// NUL-terminated name.
const vdirentHeaderSize = 5

// dirBatchSize is how many bytes of packed entries DirStream asks the
// transport for per Misc(MiscReadDir) call.
const dirBatchSize = 2048

// DirStream is the opendir(3) handle: a directory IoObject plus a small
// read-ahead buffer of packed entries, guarded by its own lock so readdir
// and rewinddir never race each other on the same DIR*.
type DirStream struct {
	mu     sync.Mutex
	io     *IoObject
	fd     FD // -1 if opened by path only, via opendir (not fdopendir)
	cursor []byte // remaining packed entries from the last batch fetch; nil means "need a fresh batch"
	reset  bool   // true until the first Misc call, so it carries ReadDirReset
}

// OpenDir implements opendir(3): it opens path as a directory and wraps it
// in a DirStream with no owning fd.
func (c *Context) OpenDir(ctx context.Context, path string) (*DirStream, Status) {
	io, status := c.Router.openPath(ctx, AtFDCWD, path, OpenDirectory, 0)
	if status != StatusOK {
		return nil, status
	}
	return &DirStream{io: io, fd: -1, reset: true}, StatusOK
}

// FdOpenDir implements fdopendir(3): it adopts an already-open directory fd,
// acquiring its own reference so DirStream.Close can release independently
// of whoever still holds fd in the table.
func (c *Context) FdOpenDir(fd FD) (*DirStream, Status) {
	io, status := c.FdTab.Lookup(fd)
	if status != StatusOK {
		return nil, status
	}
	return &DirStream{io: io, fd: fd, reset: true}, StatusOK
}

// Dirfd implements dirfd(3); returns -1 if the stream was opened by path
// rather than adopted from an existing fd.
func (d *DirStream) Dirfd() FD {
	return d.fd
}

// RewindDir implements rewinddir(3): the next Read refetches from the
// beginning of the directory.
func (d *DirStream) RewindDir() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = nil
	d.reset = true
}

// Read implements readdir(3): it returns the next entry, transparently
// refilling its batch buffer via Transport.Misc(MiscReadDir) when empty.
// A zero-length final batch signals end-of-directory, reported as a nil
// entry with StatusOK.
func (d *DirStream) Read(ctx context.Context) (*DirEntry, Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.cursor) == 0 {
		cmd := ReadDirNone
		if d.reset {
			cmd = ReadDirReset
			d.reset = false
		}
		var buf [dirBatchSize]byte
		n, status := d.io.Transport.Misc(ctx, MiscReadDir, int64(cmd), nil, buf[:])
		if status != StatusOK {
			return nil, status
		}
		if n == 0 {
			return nil, StatusOK
		}
		d.cursor = append([]byte(nil), buf[:n]...)
	}

	if len(d.cursor) < vdirentHeaderSize {
		return nil, ErrIO
	}
	size := int(binary.LittleEndian.Uint32(d.cursor[0:4]))
	typ := d.cursor[4]
	if size < vdirentHeaderSize || size > len(d.cursor) {
		return nil, ErrIO
	}
	nameEnd := size
	for nameEnd > vdirentHeaderSize && d.cursor[nameEnd-1] == 0 {
		nameEnd--
	}
	name := string(d.cursor[vdirentHeaderSize:nameEnd])
	d.cursor = d.cursor[size:]
	return &DirEntry{Name: name, Type: typ}, StatusOK
}

// Close implements closedir(3).
func (d *DirStream) Close(ctx context.Context) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := d.io.Transport.Close(ctx)
	d.io.Release()
	return status
}
