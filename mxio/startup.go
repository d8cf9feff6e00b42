package mxio

import (
	"context"
	"os"
)

// HandleType is the type tag packed into the high byte of a bootstrap
// info-word.
type HandleType uint8

const (
	HandleTypeRoot HandleType = iota + 1
	HandleTypeCwd
	HandleTypeRemote
	HandleTypePipe
	HandleTypeLogger
)

// InfoFlag is the flag byte packed into a bootstrap info-word.
type InfoFlag uint8

const InfoFlagUseForStdio InfoFlag = 1 << 0

// StartupHandle is one (handle, info-word) pair from the inherited process
// bundle; info = (type<<24)|(flags<<16)|arg.
type StartupHandle struct {
	Transport Transport
	Type      HandleType
	Flags     InfoFlag
	Arg       int
}

// info packs this handle's fields the way a real info-word would, used only
// to detect the REMOTE-twin adjacency rule ("if the NEXT pair has an
// identical info-word").
func (h StartupHandle) info() uint32 {
	return uint32(h.Type)<<24 | uint32(h.Flags)<<16 | uint32(h.Arg)
}

// Bootstrap consumes the inherited handle bundle, installing root/cwd,
// binding fdtab slots and resolving the stdio fallback in one pass. It
// registers no exit hook: the table is drained only when Shutdown is
// called.
//
// getenv defaults to os.LookupEnv when nil; tests pass a stub to avoid
// depending on the real process environment.
func (c *Context) Bootstrap(ctx context.Context, handles []StartupHandle, getenv func(string) (string, bool)) {
	if getenv == nil {
		getenv = os.LookupEnv
	}

	stdioFD := -1
	rootIO, cwdIO := (*IoObject)(nil), (*IoObject)(nil)

	for i := 0; i < len(handles); i++ {
		h := handles[i]

		switch h.Type {
		case HandleTypeRoot:
			rootIO = NewIoObject(h.Transport, TransportRemote, 0)
			c.Root.Install(rootIO)

		case HandleTypeCwd:
			cwdIO = NewIoObject(h.Transport, TransportRemote, 0)

		case HandleTypeRemote:
			io := NewIoObject(h.Transport, TransportRemote, 0)
			if i+1 < len(handles) && handles[i+1].info() == h.info() {
				// Twin handle (the signaling/event handle): consumed, not
				// separately installed.
				i++
			}
			c.bindStartupFD(io, FD(h.Arg))

		case HandleTypePipe:
			io := NewIoObject(h.Transport, TransportPipe, 0)
			c.bindStartupFD(io, FD(h.Arg))

		case HandleTypeLogger:
			io := NewIoObject(h.Transport, TransportLogger, 0)
			c.bindStartupFD(io, FD(h.Arg))
		}

		if h.Flags&InfoFlagUseForStdio != 0 && h.Arg < c.FdTab.MaxFD() {
			stdioFD = h.Arg
		}
	}

	if pwd, ok := getenv("PWD"); ok {
		c.Cwd.Update(pwd)
	}

	c.installStdio(ctx, stdioFD)

	if rootInstalled := c.Root.IO(); rootInstalled != nil {
		rootInstalled.Release()
		if cwdIO == nil {
			opened, status := c.Router.openPath(ctx, AtFDCWD, c.Cwd.Path(), OpenDirectory, 0)
			if status == StatusOK {
				cwdIO = opened
			}
		}
	}
	if cwdIO == nil {
		cwdIO = NewIoObject(nullTransport{}, TransportNull, 0)
	}
	c.Cwd.setIO(cwdIO)
}

// bindStartupFD binds io at exactly arg; Bind already performs the
// dupcount=1 accounting for a fresh object.
func (c *Context) bindStartupFD(io *IoObject, fd FD) {
	if _, status := c.FdTab.Bind(io, fd, 0); status != StatusOK {
		io.Transport.Close(context.Background())
		io.Release()
	}
}

// installStdio fills any of fds 0, 1, 2 left unbound by the handle walk:
// aliasing the recorded stdio source when present, otherwise a null
// transport.
func (c *Context) installStdio(ctx context.Context, stdioFD int) {
	var source *IoObject
	if stdioFD >= 0 {
		if io, status := c.FdTab.Lookup(FD(stdioFD)); status == StatusOK {
			source = io
		}
	}
	defer func() {
		if source != nil {
			source.Release()
		}
	}()

	for fd := FD(0); fd <= 2; fd++ {
		if already, status := c.FdTab.Lookup(fd); status == StatusOK {
			already.Release()
			continue
		}
		var io *IoObject
		if source != nil {
			source.Acquire()
			io = source
		} else {
			io = NewIoObject(nullTransport{}, TransportNull, 0)
		}
		c.bindStartupFD(io, fd)
	}
}

// Shutdown runs the atexit-style hook: drain the fd table, closing every
// IoObject whose dupcount reaches zero.
func (c *Context) Shutdown(ctx context.Context) {
	c.FdTab.CloseAll(ctx)
}
