// syscall_linux.go - RV64 Linux syscall ABI shim (spec §4.9, supplemented
// from original_source/src/syscall.c). The original's syscall_table maps
// almost every entry to sys_unimplemented (a stub that calls fatal); this
// backs the common ones for real host I/O via golang.org/x/sys/unix so
// guest binaries doing actual work can run, while keeping the same
// "GET(reg, name)"-style argument extraction and unknown-number-is-fatal
// shape as the original.
package main

import (
	"encoding/binary"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// RISC-V Linux syscall numbers, copied from the riscv-pk table the
// original cites.
const (
	sysExit            = 93
	sysExitGroup       = 94
	sysGetpid          = 172
	sysRead            = 63
	sysWrite           = 64
	sysOpenat          = 56
	sysClose           = 57
	sysLseek           = 62
	sysBrk             = 214
	sysFstat           = 80
	sysUname           = 160
	sysGettimeofday    = 169
	sysClockGettime    = 113
	sysWritev          = 66
	sysFcntl           = 25
	sysGetuid          = 174
	sysGeteuid         = 175
	sysGetgid          = 176
	sysGetegid         = 177
	sysSetTidAddress   = 96
	sysSetRobustList   = 99
	sysRtSigaction     = 134
	sysRtSigprocmask   = 135
	sysMadvise         = 233
)

// AT_FDCWD, used by openat when the guest passes a relative path against
// the current working directory.
const atFDCWD = -100

// doSyscall dispatches on a7 exactly as do_syscall does, routing to a
// per-number handler and fataling on anything neither table covers.
func (mc *Machine) doSyscall(n uint64) uint64 {
	switch n {
	case sysExit, sysExitGroup:
		return mc.sysExit()
	case sysRead:
		return mc.sysRead()
	case sysWrite:
		return mc.sysWrite()
	case sysOpenat:
		return mc.sysOpenat()
	case sysClose:
		return mc.sysClose()
	case sysLseek:
		return mc.sysLseek()
	case sysFstat:
		return mc.sysFstat()
	case sysBrk:
		return mc.sysBrk()
	case sysGettimeofday:
		return mc.sysGettimeofday()
	case sysClockGettime:
		return mc.sysClockGettime()
	case sysUname:
		return mc.sysUname()
	case sysGetpid:
		return uint64(unix.Getpid())
	case sysGetuid, sysGeteuid:
		return uint64(unix.Getuid())
	case sysGetgid, sysGetegid:
		return uint64(unix.Getgid())
	case sysSetTidAddress:
		return uint64(unix.Getpid())
	case sysSetRobustList, sysRtSigaction, sysRtSigprocmask, sysMadvise, sysFcntl:
		return 0
	default:
		fatalf("syscall: unimplemented syscall number %d", n)
		return 0
	}
}

func (mc *Machine) arg(i int) uint64 {
	return mc.State.GetGP(RegA0 + int8(i))
}

// guestString reads a NUL-terminated string out of guest memory.
func (mc *Machine) guestString(addr GuestAddr) string {
	var buf []byte
	for i := uint64(0); ; i++ {
		b := mc.MMU.Read(addr+GuestAddr(i), 1)[0]
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// onExit, when set, runs before the process terminates via the guest's
// exit/exit_group syscall, so host terminal state (host_tty.go) is
// restored even though sysExit never returns to main's defer chain.
var onExit func()

func (mc *Machine) sysExit() uint64 {
	if onExit != nil {
		onExit()
	}
	os.Exit(int(int32(mc.arg(0))))
	return 0
}

func (mc *Machine) sysRead() uint64 {
	fd, addr, count := int(mc.arg(0)), GuestAddr(mc.arg(1)), mc.arg(2)
	buf := make([]byte, count)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return uint64(negErrno(err))
	}
	mc.MMU.Write(addr, buf[:n])
	return uint64(n)
}

func (mc *Machine) sysWrite() uint64 {
	fd, addr, count := int(mc.arg(0)), GuestAddr(mc.arg(1)), mc.arg(2)
	buf := mc.MMU.Read(addr, int(count))
	n, err := unix.Write(fd, buf)
	if err != nil {
		return uint64(negErrno(err))
	}
	return uint64(n)
}

func (mc *Machine) sysOpenat() uint64 {
	dirfd := int(int32(mc.arg(0)))
	path := mc.guestString(GuestAddr(mc.arg(1)))
	flags := int(mc.arg(2))
	mode := uint32(mc.arg(3))
	if dirfd == atFDCWD {
		dirfd = unix.AT_FDCWD
	}
	fd, err := unix.Openat(dirfd, path, flags, mode)
	if err != nil {
		return uint64(negErrno(err))
	}
	return uint64(fd)
}

func (mc *Machine) sysClose() uint64 {
	fd := int(int32(mc.arg(0)))
	if fd <= 2 {
		return 0 // stdio stays open for the life of the guest process
	}
	if err := unix.Close(fd); err != nil {
		return uint64(negErrno(err))
	}
	return 0
}

func (mc *Machine) sysLseek() uint64 {
	fd, offset, whence := int(mc.arg(0)), int64(mc.arg(1)), int(mc.arg(2))
	off, err := unix.Seek(fd, offset, whence)
	if err != nil {
		return uint64(negErrno(err))
	}
	return uint64(off)
}

// rv64StatSize is sizeof(struct stat) under asm-generic/stat.h, the
// layout every newer Linux port (including riscv64) shares: 12 fields of
// 8 bytes plus eight interleaved 4-byte fields, 128 bytes total.
const rv64StatSize = 128

// marshalRV64Stat packs a host unix.Stat_t into the guest's struct stat
// layout, field offsets taken from asm-generic/stat.h.
func marshalRV64Stat(st *unix.Stat_t) []byte {
	b := make([]byte, rv64StatSize)
	le := binary.LittleEndian
	le.PutUint64(b[0:], st.Dev)
	le.PutUint64(b[8:], st.Ino)
	le.PutUint32(b[16:], st.Mode)
	le.PutUint32(b[20:], uint32(st.Nlink))
	le.PutUint32(b[24:], st.Uid)
	le.PutUint32(b[28:], st.Gid)
	le.PutUint64(b[32:], st.Rdev)
	le.PutUint64(b[48:], uint64(st.Size))
	le.PutUint32(b[56:], uint32(st.Blksize))
	le.PutUint64(b[64:], uint64(st.Blocks))
	le.PutUint64(b[72:], uint64(st.Atim.Sec))
	le.PutUint64(b[80:], uint64(st.Atim.Nsec))
	le.PutUint64(b[88:], uint64(st.Mtim.Sec))
	le.PutUint64(b[96:], uint64(st.Mtim.Nsec))
	le.PutUint64(b[104:], uint64(st.Ctim.Sec))
	le.PutUint64(b[112:], uint64(st.Ctim.Nsec))
	return b
}

func (mc *Machine) sysFstat() uint64 {
	fd, addr := int(int32(mc.arg(0))), GuestAddr(mc.arg(1))
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return uint64(negErrno(err))
	}
	mc.MMU.Write(addr, marshalRV64Stat(&st))
	return 0
}

// sysBrk grows or queries the guest program break. This core has no
// persistent break pointer (mmu.go's Alloc is a stack/heap-neutral bump
// allocator), so brk(0), or any request at or below the current
// allocation frontier, reports that frontier unchanged, and a request
// above it is satisfied by extending the frontier to it, matching the common
// musl/glibc pattern of treating brk as monotonically increasing.
func (mc *Machine) sysBrk() uint64 {
	req := GuestAddr(mc.arg(0))
	cur := mc.MMU.alloc
	if req == 0 || req <= cur {
		return uint64(cur)
	}
	mc.MMU.Alloc(int64(req - cur))
	return uint64(mc.MMU.alloc)
}

func (mc *Machine) sysGettimeofday() uint64 {
	addr := GuestAddr(mc.arg(0))
	if addr == 0 {
		return 0
	}
	now := time.Now()
	writeWordsAt(mc.MMU, addr, uint64(now.Unix()), uint64(now.Nanosecond()/1000))
	return 0
}

func (mc *Machine) sysClockGettime() uint64 {
	addr := GuestAddr(mc.arg(1))
	if addr == 0 {
		return 0
	}
	now := time.Now()
	writeWordsAt(mc.MMU, addr, uint64(now.Unix()), uint64(now.Nanosecond()))
	return 0
}

func (mc *Machine) sysUname() uint64 {
	addr := GuestAddr(mc.arg(0))
	field := func(off uint64, s string) {
		b := make([]byte, 65)
		copy(b, s)
		mc.MMU.Write(addr+GuestAddr(off), b)
	}
	field(0, "Linux")
	field(65, "rvemu")
	field(130, "6.0.0")
	field(195, "#1")
	field(260, "riscv64")
	field(325, "")
	return 0
}

func negErrno(err error) int64 {
	if errno, ok := err.(unix.Errno); ok {
		return -int64(errno)
	}
	return -1
}
