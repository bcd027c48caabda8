// elf_guest.go - guest RISC-V ELF64 loading (spec §4.1, component C1).
//
// Grounded on original_source/src/mmu.c (mmu_load_elf/load_phdr). We reuse
// stdlib debug/elf for the header/program-header struct layouts instead of
// hand-rolling them; see DESIGN.md for why no pack library covers this.
package main

import (
	"debug/elf"
	"encoding/binary"
	"io"
	"os"
)

// GuestELF describes a loaded RV64 static executable: its entry point and
// the PT_LOAD segments the MMU must map.
type GuestELF struct {
	Entry    GuestAddr
	Segments []GuestSegment
}

// GuestSegment is one PT_LOAD program header, trimmed to the fields the
// MMU needs to mmap it.
type GuestSegment struct {
	VAddr  GuestAddr
	Offset uint64
	Filesz uint64
	Memsz  uint64
	Flags  elf.ProgFlag
}

// LoadGuestELF reads and validates the ELF64 header and program headers of
// a RISC-V static executable, without mapping any memory itself
// (MMU.LoadELF does that). Any malformed input is a fatal error: a binary translator
// has no use for a partially-loaded guest.
func LoadGuestELF(path string) *GuestELF {
	f, err := os.Open(path)
	if err != nil {
		fatalf("elf: %v", err)
	}
	defer f.Close()

	var ident [16]byte
	if _, err := io.ReadFull(f, ident[:]); err != nil {
		fatalf("elf: file too small for ELF ident: %v", err)
	}
	if ident[0] != '\x7f' || ident[1] != 'E' || ident[2] != 'L' || ident[3] != 'F' {
		fatalf("elf: bad magic number")
	}
	if elf.Class(ident[elf.EI_CLASS]) != elf.ELFCLASS64 {
		fatalf("elf: only ELFCLASS64 is supported")
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		fatalf("elf: %v", err)
	}
	var hdr elf.Header64
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		fatalf("elf: reading ehdr: %v", err)
	}
	if elf.Machine(hdr.Machine) != elf.EM_RISCV {
		fatalf("elf: only EM_RISCV guest binaries are supported, got %v", elf.Machine(hdr.Machine))
	}

	g := &GuestELF{Entry: GuestAddr(hdr.Entry)}

	for i := uint16(0); i < hdr.Phnum; i++ {
		off := int64(hdr.Phoff) + int64(i)*int64(hdr.Phentsize)
		if _, err := f.Seek(off, io.SeekStart); err != nil {
			fatalf("elf: seeking phdr %d: %v", i, err)
		}
		var ph elf.Prog64
		if err := binary.Read(f, binary.LittleEndian, &ph); err != nil {
			fatalf("elf: reading phdr %d: %v", i, err)
		}
		if elf.ProgType(ph.Type) != elf.PT_LOAD {
			continue
		}
		g.Segments = append(g.Segments, GuestSegment{
			VAddr:  GuestAddr(ph.Vaddr),
			Offset: ph.Off,
			Filesz: ph.Filesz,
			Memsz:  ph.Memsz,
			Flags:  elf.ProgFlag(ph.Flags),
		})
	}

	return g
}
