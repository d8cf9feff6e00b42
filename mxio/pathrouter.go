package mxio

import (
	"context"
	"strings"
)

// PathRouter resolves (dirfd, path) pairs to a base directory IoObject and
// a residual path, dispatching absolute, cwd-relative and "…at"-style
// lookups.
type PathRouter struct {
	fdtab *FdTable
	cwd   *CwdTracker
	root  *RootState
}

// NewPathRouter wires a router to the fd table, cwd tracker and root state
// it resolves against.
func NewPathRouter(fdtab *FdTable, cwd *CwdTracker, root *RootState) *PathRouter {
	return &PathRouter{fdtab: fdtab, cwd: cwd, root: root}
}

// Resolve returns the base directory IoObject (acquired) and the residual
// path to open relative to it, exactly as mxio_iodir in the original:
//   - leading "/" routes to root, with the leading slash stripped and an
//     empty residual rewritten to "."
//   - dirfd == AtFDCWD routes to cwd
//   - otherwise dirfd must name an open fd in the table
func (r *PathRouter) Resolve(dirfd FD, path string) (base *IoObject, residual string, status Status) {
	if path == "" {
		return nil, "", ErrInvalidArgs
	}

	if strings.HasPrefix(path, "/") {
		base = r.root.IO()
		if base == nil {
			return nil, "", ErrBadHandle
		}
		residual = path[1:]
		if residual == "" {
			residual = "."
		}
		return base, residual, StatusOK
	}

	if dirfd == AtFDCWD {
		base = r.cwd.IO()
		if base == nil {
			return nil, "", ErrBadHandle
		}
		return base, path, StatusOK
	}

	base, status = r.fdtab.Lookup(dirfd)
	if status != StatusOK {
		return nil, "", ErrBadHandle
	}
	return base, path, StatusOK
}

// openPath resolves (dirfd, path) and opens the residual against the base
// directory, releasing the base regardless of outcome. Used by PosixOps'
// open/openat/mkdirat/stat-family calls and by CwdTracker.Chdir.
func (r *PathRouter) openPath(ctx context.Context, dirfd FD, path string, flags OpenFlags, mode uint32) (*IoObject, Status) {
	if path == "" {
		return nil, ErrInvalidArgs
	}
	base, residual, status := r.Resolve(dirfd, path)
	if status != StatusOK {
		return nil, status
	}
	defer base.Release()

	newTransport, status := base.Transport.Open(ctx, residual, flags, mode)
	if status != StatusOK {
		return nil, status
	}
	tag := TransportRemote
	ioFlags := Flags(0)
	if flags.Has(OpenNonBlock) {
		ioFlags |= FlagNonBlock
	}
	return NewIoObject(newTransport, tag, ioFlags), StatusOK
}

// ResolveContaining splits path at its final "/" (after stripping trailing
// slashes) and resolves the directory portion, returning the leaf name
//. A path with
// no "/" resolves its directory portion to "." relative to the same base
// dirfd/path would have used. A zero-length leaf is EINVAL.
func (r *PathRouter) ResolveContaining(ctx context.Context, dirfd FD, path string) (dir *IoObject, leaf string, status Status) {
	if path == "" || strings.TrimRight(path, "/") == "" {
		return nil, "", ErrInvalidArgs
	}

	base, residual, status := r.Resolve(dirfd, path)
	if status != StatusOK {
		return nil, "", status
	}
	defer base.Release()

	trimmed := strings.TrimRight(residual, "/")
	if trimmed == "" {
		return nil, "", ErrInvalidArgs
	}

	var dirPath, name string
	if idx := strings.LastIndexByte(trimmed, '/'); idx < 0 {
		dirPath = "."
		name = trimmed
	} else {
		dirPath = trimmed[:idx]
		name = trimmed[idx+1:]
		if dirPath == "" {
			dirPath = "."
		}
	}
	if name == "" {
		return nil, "", ErrInvalidArgs
	}

	dirTransport, status := base.Transport.Open(ctx, dirPath, OpenDirectory, 0)
	if status != StatusOK {
		return nil, "", status
	}
	return NewIoObject(dirTransport, TransportRemote, 0), name, StatusOK
}

// isAbsolute reports whether a two-path operand is absolute.
func isAbsolute(path string) bool { return strings.HasPrefix(path, "/") }

// ResolveTwoPath implements the same-rooted rule for rename/link: both
// paths absolute routes to root, both relative routes to cwd, mixed is
// unsupported.
func (r *PathRouter) ResolveTwoPath(oldPath, newPath string) (base *IoObject, status Status) {
	oldAbs, newAbs := isAbsolute(oldPath), isAbsolute(newPath)
	switch {
	case oldAbs && newAbs:
		base = r.root.IO()
		if base == nil {
			return nil, ErrBadHandle
		}
		return base, StatusOK
	case !oldAbs && !newAbs:
		base = r.cwd.IO()
		if base == nil {
			return nil, ErrBadHandle
		}
		return base, StatusOK
	default:
		return nil, ErrNotSupported
	}
}
