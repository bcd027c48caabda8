// compile.go - invoke the host C compiler and link its output into the
// code cache (spec §4.8, component C8). Grounded line-for-line on
// original_source/src/compile.c's machine_compile: pipe C source to
// `clang -O3 -c -xc -o /dev/stdout -`, then act as a miniature linker
// that places any .rodata.* section ahead of .text in the cache arena
// and patches R_X86_64_PC32 relocations against it.
package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os/exec"
	"strings"
	"unsafe"
)

const rX8664PC32 = 2

// Compile emits C source for region r, compiles it with clang, links the
// result into mc.Cache, and returns the host code for r's entry pc.
func (mc *Machine) Compile(r *region) []byte {
	src := EmitRegion(r)
	obj := runClang(src)
	return linkObject(mc.Cache, r.nodes[0].pc, obj)
}

// runClang pipes source through clang exactly as machine_compile's popen
// call does, reading the compiled ELF64 relocatable object back from
// stdout.
func runClang(source string) []byte {
	cmd := exec.Command("clang", "-O3", "-c", "-xc", "-o", "/dev/stdout", "-")
	cmd.Stdin = strings.NewReader(source)
	out, err := cmd.Output()
	if err != nil {
		fatalf("compile: clang failed: %v", err)
	}
	return out
}

// linkObject mirrors machine_compile's section walk: locate .text,
// .rela.text, .symtab, and any .rodata.* section, place rodata ahead of
// text in the cache arena when present, and patch PC-relative
// relocations in place.
func linkObject(cache *Cache, pc GuestAddr, obj []byte) []byte {
	f, err := elf.NewFile(bytes.NewReader(obj))
	if err != nil {
		fatalf("compile: malformed clang output: %v", err)
	}

	var text, rela, symtab, rodata *elf.Section
	for _, s := range f.Sections {
		switch {
		case s.Name == ".text":
			text = s
		case s.Name == ".rela.text":
			rela = s
		case s.Name == ".symtab":
			symtab = s
		case len(s.Name) >= len(".rodata.") && s.Name[:len(".rodata.")] == ".rodata.":
			rodata = s
		}
	}
	assertf(text != nil && symtab != nil, "compile: clang output missing .text or .symtab")

	textBytes, err := text.Data()
	if err != nil {
		fatalf("compile: reading .text: %v", err)
	}

	if rela == nil || rodata == nil {
		return cache.Add(pc, textBytes, text.Addralign)
	}

	rodataBytes, err := rodata.Data()
	if err != nil {
		fatalf("compile: reading rodata: %v", err)
	}
	cache.Add(pc, rodataBytes, rodata.Addralign)
	textHost := cache.Add(pc, textBytes, text.Addralign)

	symtabBytes, err := symtab.Data()
	if err != nil {
		fatalf("compile: reading .symtab: %v", err)
	}
	relaBytes, err := rela.Data()
	if err != nil {
		fatalf("compile: reading .rela.text: %v", err)
	}

	patchRelocations(textHost, relaBytes, symtabBytes)
	return textHost
}

// elf64Rela mirrors Elf64_Rela: Offset, Info (symbol index in the high
// 32 bits, relocation type in the low 32), and a signed Addend.
type elf64Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

// elf64Sym mirrors Elf64_Sym's on-disk layout.
type elf64Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

const relaEntSize = 24
const symEntSize = 24

// patchRelocations applies every entry in a .rela.text section to text,
// which already sits at its final host address in the cache arena.
// Per relocation: *loc = (uint32_t)(sym.Value + addend - r_offset), a
// direct port of compile.c's PC32 patch (loc is PC-relative to itself,
// so no extra base-address term is needed beyond r_offset).
func patchRelocations(text []byte, relaBytes, symtabBytes []byte) {
	assertf(len(relaBytes)%relaEntSize == 0, "compile: malformed .rela.text")
	n := len(relaBytes) / relaEntSize

	for i := 0; i < n; i++ {
		off := i * relaEntSize
		offset := binary.LittleEndian.Uint64(relaBytes[off:])
		info := binary.LittleEndian.Uint64(relaBytes[off+8:])
		addend := int64(binary.LittleEndian.Uint64(relaBytes[off+16:]))

		relType := uint32(info)
		symIdx := info >> 32
		assertf(relType == rX8664PC32, "compile: unsupported relocation type %d", relType)

		symOff := int(symIdx) * symEntSize
		assertf(symOff+symEntSize <= len(symtabBytes), "compile: relocation symbol index out of range")
		symValue := binary.LittleEndian.Uint64(symtabBytes[symOff+8:])

		patch := int32(int64(symValue) + addend - int64(offset))
		loc := (*uint32)(unsafe.Pointer(&text[offset]))
		*loc = uint32(patch)
	}
}
