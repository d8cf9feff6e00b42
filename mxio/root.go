package mxio

import "sync/atomic"

// RootState holds the single IoObject used to resolve absolute paths. It is
// installed exactly once during Startup and is immutable thereafter (spec
// §3, §4.3): callers only ever read it, so a simple atomic pointer is
// sufficient, no mutex needed.
type RootState struct {
	io atomic.Pointer[IoObject]
}

// Install sets the root handle. Only Startup should call this, and only
// once; a second call is a no-op, mirroring mxio_install_root's guard.
func (r *RootState) Install(io *IoObject) {
	r.io.CompareAndSwap(nil, io)
}

// IO returns the root IoObject with an extra reference acquired; the caller
// must Release it. Returns nil if root has not been installed.
func (r *RootState) IO() *IoObject {
	io := r.io.Load()
	if io == nil {
		return nil
	}
	io.Acquire()
	return io
}
