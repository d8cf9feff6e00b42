package mxio

import "sync"

// Context bundles the process-wide singleton state a POSIX personality
// needs: the fd table, cwd, root and umask. Exposing it as an explicit
// value (rather than true globals) keeps the core testable; Default()
// below still offers a process-global instance for callers that want
// classic POSIX-process behavior.
type Context struct {
	FdTab *FdTable
	Cwd   *CwdTracker
	Root  *RootState
	Router *PathRouter
	Wait  *WaitMux

	umu    sync.Mutex
	umask  uint32
}

// NewContext creates a freshly initialized Context: an empty fd table sized
// maxFD (0 meaning DefaultMaxFD), cwd at "/", no root installed yet.
func NewContext(maxFD int) *Context {
	c := &Context{
		FdTab: NewFdTable(maxFD),
		Cwd:   NewCwdTracker(),
		Root:  &RootState{},
		umask: 0022,
	}
	c.Router = NewPathRouter(c.FdTab, c.Cwd, c.Root)
	c.Wait = NewWaitMux(c.FdTab)
	return c
}

// Umask returns the current umask and sets it to mask&0777, matching
// umask(2)'s "returns the previous mask" contract.
func (c *Context) Umask(mask uint32) uint32 {
	c.umu.Lock()
	defer c.umu.Unlock()
	old := c.umask
	c.umask = mask & 0777
	return old
}

var defaultContext = NewContext(0)

// Default returns the package-level process-global Context.
func Default() *Context { return defaultContext }
