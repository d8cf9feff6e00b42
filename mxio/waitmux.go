package mxio

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// MaxPollNFDS bounds the number of descriptors a single Poll call may
// multiplex over.
const MaxPollNFDS = 1024

// Infinite is the wait_fd/poll timeout meaning "block forever".
const Infinite time.Duration = -1

// WaitMux drives read/write retry, poll and select by composing each
// participating IoObject's WaitBegin/WaitEnd pair over the kernel's
// multi-wait primitive. On this host "the kernel's multi-wait
// primitive" is real unix.Poll over real OS file descriptors.
type WaitMux struct {
	fdtab *FdTable
}

// NewWaitMux wires a WaitMux to the fd table it waits on behalf of.
func NewWaitMux(fdtab *FdTable) *WaitMux {
	return &WaitMux{fdtab: fdtab}
}

// WaitFD blocks until fd reports one of the requested events or timeout
// elapses, translating through the owning transport's WaitBegin/WaitEnd
//. timeout < 0 blocks forever.
//
// Signals is defined as a direct bit-for-bit alias of the poll(2) POLL*
// constants, since this host's "kernel" multi-wait primitive is real
// unix.Poll; the translation to/from POSIX EventMask bits still happens
// inside each transport's WaitBegin/WaitEnd pair.
func (w *WaitMux) WaitFD(ctx context.Context, fd FD, events EventMask, timeout time.Duration) (EventMask, Status) {
	io, status := w.fdtab.Lookup(fd)
	if status != StatusOK {
		return 0, status
	}
	defer io.Release()

	wd, signals := io.Transport.WaitBegin(events)
	if wd == NoWaitDescriptor {
		return 0, ErrInvalidArgs
	}

	pfd := []unix.PollFd{{Fd: int32(wd), Events: int16(signals)}}
	millis := -1
	if timeout >= 0 {
		millis = int(timeout.Milliseconds())
	}

	_, err := unix.Poll(pfd, millis)
	var pending Signals
	if err == nil || err == unix.EINTR {
		pending = Signals(pfd[0].Revents)
	}

	out := io.Transport.WaitEnd(pending)
	if err != nil && err != unix.EINTR {
		return out, statusFromErrno(err.(unix.Errno))
	}
	return out, StatusOK
}

// pollEntry tracks the bookkeeping Poll needs per input fd.
type pollEntry struct {
	io    *IoObject
	valid bool
}

// PollFD mirrors struct pollfd.
type PollFD struct {
	FD      FD
	Events  EventMask
	REvents EventMask
}

// Poll multiplexes over up to MaxPollNFDS descriptors, mirroring the
// original poll(2) shim: invalid fds report InvalidFD (the POLLNVAL
// analogue, distinct from Hangup) and are skipped, a transport returning
// "not waitable" aborts the whole call with ErrInvalidArgs, and the wait
// itself is one real unix.Poll over every valid descriptor.
func (w *WaitMux) Poll(ctx context.Context, fds []PollFD, timeout time.Duration) (int, Status) {
	if len(fds) > MaxPollNFDS {
		return 0, ErrInvalidArgs
	}

	entries := make([]pollEntry, len(fds))
	var pfds []unix.PollFd
	invalidCount := 0

	defer func() {
		for _, e := range entries {
			if e.valid {
				e.io.Release()
			}
		}
	}()

	for i := range fds {
		fds[i].REvents = 0
		if fds[i].FD < 0 {
			continue
		}
		io, status := w.fdtab.Lookup(fds[i].FD)
		if status != StatusOK {
			fds[i].REvents = InvalidFD
			invalidCount++
			continue
		}
		entries[i] = pollEntry{io: io, valid: true}

		wd, signals := io.Transport.WaitBegin(fds[i].Events)
		if wd == NoWaitDescriptor {
			return 0, ErrInvalidArgs
		}
		pfds = append(pfds, unix.PollFd{Fd: int32(wd), Events: int16(signals)})
	}

	if len(pfds) == 0 {
		return invalidCount, StatusOK
	}

	millis := -1
	if timeout >= 0 {
		millis = int(timeout.Milliseconds())
	}
	_, err := unix.Poll(pfds, millis)
	if err != nil && err != unix.EINTR {
		return 0, statusFromErrno(err.(unix.Errno))
	}

	ready := invalidCount
	j := 0
	for i := range fds {
		if !entries[i].valid {
			continue
		}
		pending := Signals(pfds[j].Revents)
		j++
		out := entries[i].io.Transport.WaitEnd(pending)
		out &= fds[i].Events | ErrorReady | Hangup
		fds[i].REvents = out
		if out != 0 {
			ready++
		}
	}
	return ready, StatusOK
}

// SelectFDSet is a process-local bitset over descriptors 0..n-1, the Go
// analogue of POSIX fd_set.
type SelectFDSet struct {
	bits []uint64
}

func NewSelectFDSet(n int) *SelectFDSet {
	return &SelectFDSet{bits: make([]uint64, (n+63)/64)}
}

func (s *SelectFDSet) Set(fd int)      { s.grow(fd); s.bits[fd/64] |= 1 << uint(fd%64) }
func (s *SelectFDSet) Clear(fd int)    { if fd/64 < len(s.bits) { s.bits[fd/64] &^= 1 << uint(fd%64) } }
func (s *SelectFDSet) IsSet(fd int) bool {
	return fd/64 < len(s.bits) && s.bits[fd/64]&(1<<uint(fd%64)) != 0
}
func (s *SelectFDSet) grow(fd int) {
	if need := fd/64 + 1; need > len(s.bits) {
		grown := make([]uint64, need)
		copy(grown, s.bits)
		s.bits = grown
	}
}

// Select implements the select(2) shim: a per-fd event mask is synthesized
// from the three requested sets, fds with a zero mask are skipped, and on
// completion each set is pruned to only the fds that were actually ready
//.
func (w *WaitMux) Select(ctx context.Context, n int, rfds, wfds, efds *SelectFDSet, timeout time.Duration) (int, Status) {
	if n < 1 || n > unix.FD_SETSIZE {
		return 0, ErrInvalidArgs
	}

	type slot struct {
		io     *IoObject
		events EventMask
	}
	slots := make([]slot, n)
	var pfds []unix.PollFd
	fdOf := make([]int, 0, n)

	defer func() {
		for _, s := range slots {
			if s.io != nil {
				s.io.Release()
			}
		}
	}()

	for fd := 0; fd < n; fd++ {
		var events EventMask
		if rfds != nil && rfds.IsSet(fd) {
			events |= Readable
		}
		if wfds != nil && wfds.IsSet(fd) {
			events |= Writable
		}
		if efds != nil && efds.IsSet(fd) {
			events |= ErrorReady
		}
		if events == 0 {
			continue
		}

		io, status := w.fdtab.Lookup(FD(fd))
		if status != StatusOK {
			return 0, ErrBadHandle
		}
		slots[fd] = slot{io: io, events: events}

		wd, signals := io.Transport.WaitBegin(events)
		if wd == NoWaitDescriptor {
			return 0, ErrInvalidArgs
		}
		pfds = append(pfds, unix.PollFd{Fd: int32(wd), Events: int16(signals)})
		fdOf = append(fdOf, fd)
	}

	if len(pfds) == 0 {
		return 0, StatusOK
	}

	millis := -1
	if timeout >= 0 {
		millis = int(timeout.Milliseconds())
	}
	_, err := unix.Poll(pfds, millis)
	if err != nil && err != unix.EINTR {
		return 0, statusFromErrno(err.(unix.Errno))
	}

	ready := 0
	for j, fd := range fdOf {
		pending := Signals(pfds[j].Revents)
		out := slots[fd].io.Transport.WaitEnd(pending)

		if rfds != nil && rfds.IsSet(fd) {
			if out.Has(Readable) {
				ready++
			} else {
				rfds.Clear(fd)
			}
		}
		if wfds != nil && wfds.IsSet(fd) {
			if out.Has(Writable) {
				ready++
			} else {
				wfds.Clear(fd)
			}
		}
		if efds != nil && efds.IsSet(fd) {
			if out.Has(ErrorReady) {
				ready++
			} else {
				efds.Clear(fd)
			}
		}
	}
	return ready, StatusOK
}
