package mxio

import (
	"context"
	"sync/atomic"
)

// EventMask is the POSIX-facing readiness mask used by read/write retry and
// by WaitMux; it is independent from the OS-level poll bits a transport
// happens to translate to/from in WaitBegin/WaitEnd.
type EventMask uint32

const (
	Readable EventMask = 1 << iota
	Writable
	ErrorReady
	Hangup
	// InvalidFD marks a descriptor that WaitMux couldn't even look up, the
	// POLLNVAL analogue, distinct from Hangup which means a valid
	// descriptor whose peer went away.
	InvalidFD
)

// Has reports whether all bits in mask are set.
func (e EventMask) Has(mask EventMask) bool { return e&mask == mask }

// Signals is the kernel-level wait mask a Transport's WaitBegin/WaitEnd pair
// translates EventMask to and from. On this host the
// "kernel" is the real OS poller, so Signals doubles as a set of raw poll(2)
// event bits (see waitmux.go).
type Signals uint32

// WaitDescriptor is the OS-level handle a Transport hands back from
// WaitBegin for WaitMux to multiplex over. A value of -1 means "this
// transport cannot be waited on", the direct analogue of mxio returning
// MX_HANDLE_INVALID from wait_begin.
type WaitDescriptor int32

const NoWaitDescriptor WaitDescriptor = -1

// MiscOp enumerates the directory/attribute operations multiplexed through
// Transport.Misc, mirroring the MXRIO_* opcodes carried over misc() in the
// original vtable.
type MiscOp int

const (
	MiscStat MiscOp = iota
	MiscSetAttr
	MiscReadDir
	MiscUnlink
	MiscRename
	MiscLink
	MiscTruncate
	MiscSync
)

// ReadDirCmd selects whether Transport.Misc(MiscReadDir, ...) should restart
// enumeration from the beginning of the directory.
type ReadDirCmd int64

const (
	ReadDirNone  ReadDirCmd = 0
	ReadDirReset ReadDirCmd = 1
)

// AttrValid flags which fields of VnAttr a MiscSetAttr call should apply.
type AttrValid uint32

const AttrModifyTime AttrValid = 1 << 0

// VnAttr is the transport-level attribute record translated to and from a
// POSIX stat struct.
type VnAttr struct {
	Valid      AttrValid
	Mode       uint32
	Inode      uint64
	Size       uint64
	NLink      uint32
	CreateTime int64 // nanoseconds since epoch
	ModifyTime int64 // nanoseconds since epoch
}

// File mode bits relevant to the mode field of VnAttr/stat, matching POSIX.
const (
	ModeDir  uint32 = 0040000
	ModeReg  uint32 = 0100000
	ModeFIFO uint32 = 0010000
)

// OpenFlags mirror the O_* flags passed to Transport.Open.
type OpenFlags uint32

const (
	OpenReadOnly OpenFlags = 0
	OpenWriteOnly OpenFlags = 1 << iota
	OpenReadWrite
	OpenCreate
	OpenExclusive
	OpenTruncate
	OpenAppend
	OpenDirectory
	OpenNonBlock
)

func (f OpenFlags) Has(mask OpenFlags) bool { return f&mask == mask }

// HandleInfo is a placeholder for a kernel handle produced by Clone/Unwrap;
// real transports in this module never need more than one, but the vtable
// contract allows several.
type HandleInfo struct {
	Handle uintptr
	Type   uint32
}

// Transport is the per-family operation vtable every IoObject wraps.
// Concrete transports (package transport) implement this interface; the
// core never depends on a specific transport.
type Transport interface {
	Close(ctx context.Context) Status

	Read(ctx context.Context, buf []byte) (int, Status)
	Write(ctx context.Context, buf []byte) (int, Status)

	ReadAt(ctx context.Context, buf []byte, offset int64) (int, Status)
	WriteAt(ctx context.Context, buf []byte, offset int64) (int, Status)

	Seek(ctx context.Context, offset int64, whence int) (int64, Status)

	Misc(ctx context.Context, op MiscOp, arg int64, in []byte, out []byte) (int, Status)

	Ioctl(ctx context.Context, op uint32, in []byte, out []byte) (int, Status)

	// Open is only meaningful on directory-like transports.
	Open(ctx context.Context, path string, flags OpenFlags, mode uint32) (Transport, Status)

	Clone(out []HandleInfo) (int, Status)
	Unwrap(out []HandleInfo) (int, Status)

	WaitBegin(events EventMask) (WaitDescriptor, Signals)
	WaitEnd(pending Signals) EventMask

	GetVMO() (fd WaitDescriptor, offset int64, length int64, status Status)

	PosixIoctl(req uint, arg uintptr) (int, Status)
}

// TransportTag classifies the concrete family backing an IoObject.
type TransportTag int

const (
	TransportRemote TransportTag = iota
	TransportPipe
	TransportLogger
	TransportNull
	TransportWaitable
	TransportSocket
)

// Flags carries the NONBLOCK/CLOEXEC bits plus room for transport-private
// bits.
type Flags uint32

const (
	FlagNonBlock Flags = 1 << iota
	FlagCloseOnExec
)

func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// IoObject is the polymorphic handle wrapper: a Transport plus the dual
// refcount/dupcount bookkeeping and the flag word. refcount is
// atomic so transport operations can run lock-free;
// dupcount is only ever touched while the owning FdTable's mutex is held.
type IoObject struct {
	Transport Transport
	Tag       TransportTag

	refcount int32
	dupcount int32 // guarded by the owning FdTable's mutex

	flags atomic.Uint32
}

// NewIoObject wraps a freshly constructed transport with refcount=1,
// dupcount=0: a fresh transport constructor always starts at refcount=1.
func NewIoObject(t Transport, tag TransportTag, flags Flags) *IoObject {
	io := &IoObject{Transport: t, Tag: tag, refcount: 1}
	io.flags.Store(uint32(flags))
	return io
}

// Acquire adds a transient reference to io, used by callers holding a
// reference outside of an fdtab slot (in-flight operations, WaitMux, path
// routing). Pair every Acquire with a Release.
func (io *IoObject) Acquire() { atomic.AddInt32(&io.refcount, 1) }

// Release drops a transient reference. When the count reaches zero the
// object is considered destroyed; Close must already have been called
// exactly once (by the FdTable) before that happens, unless the object
// was never installed in the table.
func (io *IoObject) Release() {
	if atomic.AddInt32(&io.refcount, -1) < 0 {
		panic("mxio: IoObject released more times than acquired")
	}
}

// RefCount returns the current live reference count.
func (io *IoObject) RefCount() int32 { return atomic.LoadInt32(&io.refcount) }

// DupCount returns the number of fdtab slots referencing io. Must only be
// read/written while the owning FdTable's mutex is held.
func (io *IoObject) DupCount() int32 { return io.dupcount }

func (io *IoObject) Flags() Flags          { return Flags(io.flags.Load()) }
func (io *IoObject) SetFlags(flags Flags)  { io.flags.Store(uint32(flags)) }
func (io *IoObject) HasFlag(f Flags) bool  { return io.Flags().Has(f) }

func (io *IoObject) setNonBlock(nb bool) {
	for {
		old := io.flags.Load()
		var next uint32
		if nb {
			next = old | uint32(FlagNonBlock)
		} else {
			next = old &^ uint32(FlagNonBlock)
		}
		if io.flags.CompareAndSwap(old, next) {
			return
		}
	}
}
