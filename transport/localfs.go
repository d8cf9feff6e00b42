package transport

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/donball360/magenta/mxio"
)

// LocalFile is the REMOTE transport family backed by a real OS file or
// directory descriptor: a bare int fd driven with raw golang.org/x/sys/unix
// syscalls, no buffering layered on top.
type LocalFile struct {
	mu  sync.Mutex
	fd  int
	dir bool

	direntMu  sync.Mutex
	direntBuf []byte // packed vdirent records fetched but not yet handed to the caller
}

// NewLocalRoot opens dir as the real-filesystem root or cwd transport used
// to seed RootState/CwdTracker before Bootstrap runs.
func NewLocalRoot(dir string) (*LocalFile, mxio.Status) {
	fd, err := unix.Open(dir, unix.O_DIRECTORY|unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, statusFromErrno(err)
	}
	return &LocalFile{fd: fd, dir: true}, mxio.StatusOK
}

func toOpenFlags(flags mxio.OpenFlags) int {
	oflags := unix.O_CLOEXEC
	switch {
	case flags.Has(mxio.OpenDirectory):
		oflags |= unix.O_DIRECTORY | unix.O_RDONLY
	case flags.Has(mxio.OpenReadWrite):
		oflags |= unix.O_RDWR
	case flags.Has(mxio.OpenWriteOnly):
		oflags |= unix.O_WRONLY
	default:
		oflags |= unix.O_RDONLY
	}
	if flags.Has(mxio.OpenCreate) {
		oflags |= unix.O_CREAT
	}
	if flags.Has(mxio.OpenExclusive) {
		oflags |= unix.O_EXCL
	}
	if flags.Has(mxio.OpenTruncate) {
		oflags |= unix.O_TRUNC
	}
	if flags.Has(mxio.OpenAppend) {
		oflags |= unix.O_APPEND
	}
	if flags.Has(mxio.OpenNonBlock) {
		oflags |= unix.O_NONBLOCK
	}
	return oflags
}

func (f *LocalFile) Close(ctx context.Context) mxio.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fd < 0 {
		return mxio.StatusOK
	}
	err := unix.Close(f.fd)
	f.fd = -1
	return statusFromErrno(err)
}

func (f *LocalFile) Read(ctx context.Context, buf []byte) (int, mxio.Status) {
	n, err := unix.Read(f.fd, buf)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (f *LocalFile) Write(ctx context.Context, buf []byte) (int, mxio.Status) {
	n, err := unix.Write(f.fd, buf)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (f *LocalFile) ReadAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	n, err := unix.Pread(f.fd, buf, offset)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (f *LocalFile) WriteAt(ctx context.Context, buf []byte, offset int64) (int, mxio.Status) {
	n, err := unix.Pwrite(f.fd, buf, offset)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return n, mxio.StatusOK
}

func (f *LocalFile) Seek(ctx context.Context, offset int64, whence int) (int64, mxio.Status) {
	var sysWhence int
	switch mxio.SeekWhence(whence) {
	case mxio.SeekStart:
		sysWhence = unix.SEEK_SET
	case mxio.SeekCurrent:
		sysWhence = unix.SEEK_CUR
	case mxio.SeekEnd:
		sysWhence = unix.SEEK_END
	default:
		return 0, mxio.ErrInvalidArgs
	}
	off, err := unix.Seek(f.fd, offset, sysWhence)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	return off, mxio.StatusOK
}

func (f *LocalFile) Misc(ctx context.Context, op mxio.MiscOp, arg int64, in, out []byte) (int, mxio.Status) {
	switch op {
	case mxio.MiscStat:
		return f.stat(out)
	case mxio.MiscSetAttr:
		return f.setAttr(in)
	case mxio.MiscReadDir:
		return f.readDir(mxio.ReadDirCmd(arg), out)
	case mxio.MiscUnlink:
		return f.unlink(string(in))
	case mxio.MiscRename:
		return f.twoPath(in, true)
	case mxio.MiscLink:
		return f.twoPath(in, false)
	case mxio.MiscTruncate:
		if len(in) < 8 {
			return 0, mxio.ErrInvalidArgs
		}
		length := int64(binary.LittleEndian.Uint64(in))
		if err := unix.Ftruncate(f.fd, length); err != nil {
			return 0, statusFromErrno(err)
		}
		return 0, mxio.StatusOK
	case mxio.MiscSync:
		if err := unix.Fsync(f.fd); err != nil {
			return 0, statusFromErrno(err)
		}
		return 0, mxio.StatusOK
	default:
		return 0, mxio.ErrNotSupported
	}
}

func (f *LocalFile) stat(out []byte) (int, mxio.Status) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return 0, statusFromErrno(err)
	}
	v := mxio.VnAttr{
		Mode:       st.Mode,
		Inode:      st.Ino,
		Size:       uint64(st.Size),
		NLink:      uint32(st.Nlink),
		CreateTime: st.Ctim.Sec*1e9 + st.Ctim.Nsec,
		ModifyTime: st.Mtim.Sec*1e9 + st.Mtim.Nsec,
	}
	buf := mxio.EncodeVnAttr(v)
	if len(out) < len(buf) {
		return 0, mxio.ErrBufferTooSmall
	}
	n := copy(out, buf)
	return n, mxio.StatusOK
}

func (f *LocalFile) setAttr(in []byte) (int, mxio.Status) {
	v, ok := mxio.DecodeVnAttr(in)
	if !ok {
		return 0, mxio.ErrInvalidArgs
	}
	if v.Valid&mxio.AttrModifyTime == 0 {
		return 0, mxio.StatusOK
	}
	ts := [2]unix.Timespec{{Nsec: unix.UTIME_OMIT}, unix.NsecToTimespec(v.ModifyTime)}
	if err := unix.UtimesNanoAt(f.fd, "", ts[:], unix.AT_EMPTY_PATH); err != nil {
		return 0, statusFromErrno(err)
	}
	return 0, mxio.StatusOK
}

func (f *LocalFile) unlink(name string) (int, mxio.Status) {
	if err := unix.Unlinkat(f.fd, name, 0); err != nil {
		if err == unix.EISDIR {
			if err2 := unix.Unlinkat(f.fd, name, unix.AT_REMOVEDIR); err2 != nil {
				return 0, statusFromErrno(err2)
			}
			return 0, mxio.StatusOK
		}
		return 0, statusFromErrno(err)
	}
	return 0, mxio.StatusOK
}

// twoPath unpacks the two NUL-terminated (oldPath, newPath) strings
// PosixOps packs for rename/link and applies the pair relative to this
// directory's fd, mirroring two_path_op's single-fd same-rooted
// rename/link. Leading slashes are stripped so an absolute pair stays
// inside this directory instead of naming host-absolute paths.
func (f *LocalFile) twoPath(in []byte, rename bool) (int, mxio.Status) {
	sep := bytes.IndexByte(in, 0)
	if sep < 0 || len(in) == 0 || in[len(in)-1] != 0 {
		return 0, mxio.ErrInvalidArgs
	}
	oldPath := string(bytes.TrimLeft(in[:sep], "/"))
	newPath := string(bytes.TrimLeft(in[sep+1:len(in)-1], "/"))

	if rename {
		if err := unix.Renameat(f.fd, oldPath, f.fd, newPath); err != nil {
			return 0, statusFromErrno(err)
		}
		return 0, mxio.StatusOK
	}
	if err := unix.Linkat(f.fd, oldPath, f.fd, newPath, 0); err != nil {
		return 0, statusFromErrno(err)
	}
	return 0, mxio.StatusOK
}

// readDir hands out packed vdirent records from direntBuf, refilling it
// with the entire directory's contents (via repeated unix.Getdents calls)
// whenever it runs dry. Getdents' position inside the directory is opaque:
// lseek on a directory fd only accepts 0 or a value it previously
// returned as a d_off, never an arbitrary byte count, so once a batch is
// fetched it is buffered in full rather than rewound with a byte-delta
// seek.
func (f *LocalFile) readDir(cmd mxio.ReadDirCmd, out []byte) (int, mxio.Status) {
	f.direntMu.Lock()
	defer f.direntMu.Unlock()

	if cmd == mxio.ReadDirReset {
		if _, err := unix.Seek(f.fd, 0, unix.SEEK_SET); err != nil {
			return 0, statusFromErrno(err)
		}
		f.direntBuf = nil
	}

	if len(f.direntBuf) == 0 {
		if status := f.fillDirentBuf(); status != mxio.StatusOK {
			return 0, status
		}
	}

	n := 0
	for n < len(f.direntBuf) {
		size := int(binary.LittleEndian.Uint32(f.direntBuf[n : n+4]))
		if n+size > len(out) {
			break
		}
		n += size
	}
	copy(out, f.direntBuf[:n])
	f.direntBuf = f.direntBuf[n:]
	return n, mxio.StatusOK
}

// fillDirentBuf drains unix.Getdents to end-of-directory in one pass,
// repacking every entry into the vdirent wire format DirStream expects.
func (f *LocalFile) fillDirentBuf() mxio.Status {
	var packed []byte
	raw := make([]byte, 4096)
	for {
		n, err := unix.Getdents(f.fd, raw)
		if err != nil {
			return statusFromErrno(err)
		}
		if n == 0 {
			break
		}
		buf := raw[:n]
		pos := 0
		for pos < len(buf) {
			if pos+19 > len(buf) {
				break
			}
			reclen := int(binary.LittleEndian.Uint16(buf[pos+16 : pos+18]))
			if reclen == 0 || pos+reclen > len(buf) {
				break
			}
			typ := buf[pos+18]
			nameBytes := buf[pos+19 : pos+reclen]
			end := 0
			for end < len(nameBytes) && nameBytes[end] != 0 {
				end++
			}
			name := string(nameBytes[:end])
			pos += reclen

			if name == "." || name == ".." {
				continue
			}

			rec := make([]byte, 5+len(name)+1)
			binary.LittleEndian.PutUint32(rec[0:4], uint32(len(rec)))
			rec[4] = typ
			copy(rec[5:], name)
			packed = append(packed, rec...)
		}
	}
	f.direntBuf = packed
	return mxio.StatusOK
}

func (f *LocalFile) Ioctl(ctx context.Context, op uint32, in, out []byte) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}

func (f *LocalFile) Open(ctx context.Context, path string, flags mxio.OpenFlags, mode uint32) (mxio.Transport, mxio.Status) {
	if flags.Has(mxio.OpenCreate) && mode&uint32(unix.S_IFMT) == mxio.ModeDir {
		return f.mkdirAndOpen(path, flags, mode)
	}
	oflags := toOpenFlags(flags)
	hostfd, err := unix.Openat(f.fd, path, oflags, mode)
	if err != nil {
		return nil, statusFromErrno(err)
	}
	return &LocalFile{fd: hostfd, dir: flags.Has(mxio.OpenDirectory)}, mxio.StatusOK
}

// mkdirAndOpen creates a directory via Mkdirat and reopens it: open(2) can
// never create a directory itself, unlike the regular-file O_CREAT path, so
// a mode carrying the S_IFDIR bit is routed here instead of into Openat.
func (f *LocalFile) mkdirAndOpen(path string, flags mxio.OpenFlags, mode uint32) (mxio.Transport, mxio.Status) {
	err := unix.Mkdirat(f.fd, path, mode&0777)
	if err != nil {
		if err == unix.EEXIST && !flags.Has(mxio.OpenExclusive) {
			// fall through to the reopen below
		} else {
			return nil, statusFromErrno(err)
		}
	}
	hostfd, err := unix.Openat(f.fd, path, unix.O_DIRECTORY|unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, statusFromErrno(err)
	}
	return &LocalFile{fd: hostfd, dir: true}, mxio.StatusOK
}

func (f *LocalFile) Clone(out []mxio.HandleInfo) (int, mxio.Status) {
	dupfd, err := unix.Dup(f.fd)
	if err != nil {
		return 0, statusFromErrno(err)
	}
	if len(out) > 0 {
		out[0] = mxio.HandleInfo{Handle: uintptr(dupfd)}
	}
	return 1, mxio.StatusOK
}

func (f *LocalFile) Unwrap(out []mxio.HandleInfo) (int, mxio.Status) {
	return f.Clone(out)
}

func (f *LocalFile) WaitBegin(events mxio.EventMask) (mxio.WaitDescriptor, mxio.Signals) {
	return fdWaitBegin(f.fd, events)
}
func (f *LocalFile) WaitEnd(pending mxio.Signals) mxio.EventMask { return fdWaitEnd(pending) }

func (f *LocalFile) GetVMO() (mxio.WaitDescriptor, int64, int64, mxio.Status) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return mxio.NoWaitDescriptor, 0, 0, statusFromErrno(err)
	}
	return mxio.WaitDescriptor(f.fd), 0, st.Size, mxio.StatusOK
}

func (f *LocalFile) PosixIoctl(req uint, arg uintptr) (int, mxio.Status) {
	return 0, mxio.ErrNotSupported
}
