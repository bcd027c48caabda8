// mmu.go - guest memory management (spec §4.1, component C1).
//
// Guest memory is backed directly by host virtual memory at a fixed bias
// (addr.go); there is no page table or fault handling, matching
// original_source/src/mmu.c's mmu_load_elf/mmu_alloc. Every guest segment
// and allocation must land at an exact, precomputed host address, so
// mapping goes through the raw mmap(2)/munmap(2) syscalls (MAP_FIXED)
// rather than golang.org/x/sys/unix's portable Mmap wrapper, which never
// accepts an address hint. golang.org/x/sys/unix still supplies the
// syscall numbers and flag constants, the same package the teacher uses
// for its own low-level host calls.
package main

import (
	"debug/elf"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

func roundDown(v, align uint64) uint64 { return v &^ (align - 1) }
func roundUp(v, align uint64) uint64   { return roundDown(v+align-1, align) }

// MMU owns the guest address space: the segments mapped from the ELF
// image and the bump-allocated heap/stack region above them.
type MMU struct {
	pageSize uint64

	Entry GuestAddr

	base      GuestAddr // first free address above the loaded image
	alloc     GuestAddr // current allocation cursor
	hostAlloc HostAddr  // extent of host memory actually mapped for alloc
}

// NewMMU returns an MMU with no guest image loaded yet: nothing is mapped,
// so the host mapping ends where guest address 0 begins.
func NewMMU() *MMU {
	return &MMU{pageSize: uint64(os.Getpagesize()), hostAlloc: GuestAddr(0).ToHost()}
}

// LoadELF maps every PT_LOAD segment of g at its fixed guest address and
// sets the allocation cursor above the highest mapped byte, mirroring
// mmu_load_elf/mmu_load_segment.
func (m *MMU) LoadELF(g *GuestELF, fd int) {
	m.Entry = g.Entry

	for _, seg := range g.Segments {
		m.loadSegment(seg, fd)
	}

	m.base = m.alloc
}

func (m *MMU) loadSegment(seg GuestSegment, fd int) {
	vaddr := seg.VAddr.ToHost()
	alignedVaddr := HostAddr(roundDown(uint64(vaddr), m.pageSize))
	filesz := seg.Filesz + uint64(vaddr-alignedVaddr)
	memsz := seg.Memsz + uint64(vaddr-alignedVaddr)

	prot := segProt(seg.Flags)

	mmapFixed(alignedVaddr, filesz, prot, unix.MAP_PRIVATE|unix.MAP_FIXED,
		fd, int64(roundDown(seg.Offset, m.pageSize)))

	remainingBSS := roundUp(memsz, m.pageSize) - roundUp(filesz, m.pageSize)
	if remainingBSS > 0 {
		mmapFixed(alignedVaddr+HostAddr(roundUp(filesz, m.pageSize)), remainingBSS,
			prot, unix.MAP_ANON|unix.MAP_PRIVATE|unix.MAP_FIXED, -1, 0)
	}

	top := alignedVaddr + HostAddr(roundUp(memsz, m.pageSize))
	if top > m.hostAlloc {
		m.hostAlloc = top
	}
	m.alloc = m.hostAlloc.ToGuest()
}

// segProt converts ELF program-header flags to mmap protection bits, per
// flags_to_mmap_prot in original_source/src/mmu.c.
func segProt(flags elf.ProgFlag) int {
	prot := 0
	if flags&elf.PF_R != 0 {
		prot |= unix.PROT_READ
	}
	if flags&elf.PF_W != 0 {
		prot |= unix.PROT_WRITE
	}
	if flags&elf.PF_X != 0 {
		prot |= unix.PROT_EXEC
	}
	return prot
}

// Alloc grows (size > 0) or shrinks (size < 0) the guest heap/stack region
// by size bytes and returns the address the growth/shrink started from,
// mirroring mmu_alloc's bump-and-mmap-on-demand behaviour.
func (m *MMU) Alloc(size int64) GuestAddr {
	base := m.alloc
	assertf(base >= m.base, "mmu: alloc cannot go below base")

	m.alloc = GuestAddr(int64(m.alloc) + size)
	assertf(m.alloc >= m.base, "mmu: alloc cannot go below base")

	hostTop := m.hostAlloc.ToGuest()
	switch {
	case size > 0 && m.alloc > hostTop:
		grow := roundUp(uint64(size), m.pageSize)
		mmapFixed(m.hostAlloc, grow, unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_ANON|unix.MAP_PRIVATE|unix.MAP_FIXED, -1, 0)
		m.hostAlloc += HostAddr(grow)
	case size < 0:
		allocPage := GuestAddr(roundUp(uint64(m.alloc), m.pageSize))
		if allocPage < hostTop {
			length := m.hostAlloc - allocPage.ToHost()
			munmapFixed(allocPage.ToHost(), uint64(length))
			m.hostAlloc -= length
		}
	}

	return base
}

// Write copies data into guest memory starting at addr. It does not
// invalidate code-cache entries: a compiled block covering the written
// bytes keeps running its old translation (self-modifying guest code is
// not detected).
func (m *MMU) Write(addr GuestAddr, data []byte) {
	copy(hostBytes(addr.ToHost(), uint64(len(data))), data)
}

// Read copies n bytes of guest memory starting at addr into a new slice.
func (m *MMU) Read(addr GuestAddr, n int) []byte {
	out := make([]byte, n)
	copy(out, hostBytes(addr.ToHost(), uint64(n)))
	return out
}

// hostBytes views n bytes of already-mapped host memory at addr as a Go
// slice. The caller is responsible for addr..addr+n having been
// mmap'd; nothing in this layer validates that, matching the original
// MMU's complete absence of bounds checking.
func hostBytes(addr HostAddr, n uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n)
}

// mmapFixed maps length bytes at the exact host address addr, aborting the
// process on failure: every call site has already computed an address
// that must succeed for the guest's address space to be internally
// consistent.
func mmapFixed(addr HostAddr, length uint64, prot, flags, fd int, offset int64) {
	ret, _, errno := unix.Syscall6(unix.SYS_MMAP, uintptr(addr), uintptr(length),
		uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		fatalf("mmu: mmap(%#x, %d) failed: %v", addr, length, errno)
	}
	if HostAddr(ret) != addr {
		fatalf("mmu: mmap returned %#x, wanted fixed address %#x", ret, addr)
	}
}

func munmapFixed(addr HostAddr, length uint64) {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptr(addr), uintptr(length), 0)
	if errno != 0 {
		fatalf("mmu: munmap(%#x, %d) failed: %v", addr, length, errno)
	}
}
