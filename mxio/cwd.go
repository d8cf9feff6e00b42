package mxio

import (
	"context"
	"strings"
	"sync"
)

// PathMax bounds the normalized cwd path string.
const PathMax = 4096

// unknownCwd is the sentinel cwd string substituted when normalization
// would overflow PathMax.
const unknownCwd = "(unknown)"

// CwdTracker holds the process's current-working-directory IoObject and its
// normalized path string. It is guarded by its own
// mutex, which must be acquired outside of (before) the FdTable's mutex
// whenever both are needed.
type CwdTracker struct {
	mu   sync.Mutex
	io   *IoObject
	path string
}

// NewCwdTracker creates a tracker rooted at "/".
func NewCwdTracker() *CwdTracker {
	return &CwdTracker{path: "/"}
}

// Path returns the current normalized cwd string.
func (c *CwdTracker) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// IO returns the current cwd IoObject with an extra reference acquired; the
// caller must Release it.
func (c *CwdTracker) IO() *IoObject {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.io != nil {
		c.io.Acquire()
	}
	return c.io
}

// setIO installs io as the cwd handle without touching the path string;
// used once during Startup before any concurrent access is possible.
func (c *CwdTracker) setIO(io *IoObject) {
	c.mu.Lock()
	c.io = io
	c.mu.Unlock()
}

// Update normalizes path into the tracker's current path string, exactly as
// the original update_cwd_path: an absolute path resets cwd to "/" first,
// then every segment is applied in order — "" and "." are skipped, ".."
// pops the trailing segment (staying at "/" if already there), anything
// else is appended.
func (c *CwdTracker) Update(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update(path)
}

func (c *CwdTracker) update(path string) {
	if strings.HasPrefix(path, "/") {
		c.path = "/"
		path = path[1:]
	}

	for len(path) > 0 {
		var seg string
		if idx := strings.IndexByte(path, '/'); idx < 0 {
			seg, path = path, ""
		} else {
			seg, path = path[:idx], path[idx+1:]
		}

		switch seg {
		case "":
			continue
		case ".":
			continue
		case "..":
			if c.path == "/" {
				continue
			}
			if idx := strings.LastIndexByte(c.path, '/'); idx == 0 {
				c.path = "/"
			} else if idx > 0 {
				c.path = c.path[:idx]
			}
			continue
		default:
			if len(c.path)+len(seg)+2 >= PathMax {
				c.path = unknownCwd
				return
			}
			if c.path == "/" {
				c.path = "/" + seg
			} else {
				c.path = c.path + "/" + seg
			}
		}
	}
}

// Chdir opens path (O_DIRECTORY) against router and, on success, atomically
// swaps in the new cwd IoObject and updates the path string, closing the
// previous cwd handle.
func (c *CwdTracker) Chdir(ctx context.Context, router *PathRouter, path string) Status {
	newIO, status := router.openPath(ctx, AtFDCWD, path, OpenDirectory, 0)
	if status != StatusOK {
		return status
	}

	c.mu.Lock()
	c.update(path)
	old := c.io
	c.io = newIO
	c.mu.Unlock()

	if old != nil {
		old.Transport.Close(ctx)
		old.Release()
	}
	return StatusOK
}

// Getcwd copies the current path string into buf, mirroring getcwd(3): it
// returns ErrOutOfRange when buf is too small (ErrnoFor maps that to
// EINVAL; there is no ERANGE status), and always
// succeeds when buf is nil (the caller is expected to allocate using the
// returned string in that case).
func (c *CwdTracker) Getcwd(buf []byte) (string, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if buf == nil {
		return c.path, StatusOK
	}
	if len(c.path)+1 > len(buf) {
		return "", ErrOutOfRange
	}
	n := copy(buf, c.path)
	return string(buf[:n]), StatusOK
}
