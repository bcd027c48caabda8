package main

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestNegErrno_MapsErrnoToNegativeValue(t *testing.T) {
	if got := negErrno(unix.ENOENT); got != -int64(unix.ENOENT) {
		t.Fatalf("negErrno(ENOENT) = %d, want %d", got, -int64(unix.ENOENT))
	}
}

func TestNegErrno_NonErrnoFallsBackToMinusOne(t *testing.T) {
	if got := negErrno(errNotAnErrno{}); got != -1 {
		t.Fatalf("negErrno(non-errno) = %d, want -1", got)
	}
}

type errNotAnErrno struct{}

func (errNotAnErrno) Error() string { return "not an errno" }

func TestMarshalRV64Stat_FieldOffsets(t *testing.T) {
	st := unix.Stat_t{
		Dev:  1,
		Ino:  2,
		Mode: 3,
		Uid:  4,
		Gid:  5,
		Size: 6,
	}
	b := marshalRV64Stat(&st)

	if len(b) != rv64StatSize {
		t.Fatalf("len = %d, want %d", len(b), rv64StatSize)
	}
	checkU64 := func(off int, want uint64, name string) {
		got := uint64(b[off]) | uint64(b[off+1])<<8 | uint64(b[off+2])<<16 | uint64(b[off+3])<<24 |
			uint64(b[off+4])<<32 | uint64(b[off+5])<<40 | uint64(b[off+6])<<48 | uint64(b[off+7])<<56
		if got != want {
			t.Fatalf("%s at offset %d = %d, want %d", name, off, got, want)
		}
	}
	checkU32 := func(off int, want uint32, name string) {
		got := uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
		if got != want {
			t.Fatalf("%s at offset %d = %d, want %d", name, off, got, want)
		}
	}
	checkU64(0, 1, "Dev")
	checkU64(8, 2, "Ino")
	checkU32(16, 3, "Mode")
	checkU32(24, 4, "Uid")
	checkU32(28, 5, "Gid")
	checkU64(48, 6, "Size")
}
