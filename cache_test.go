package main

import "testing"

func TestCache_HotPromotionThreshold(t *testing.T) {
	c := NewCache()
	pc := GuestAddr(0x1000)

	for i := 0; i < cacheHotCount-1; i++ {
		if c.Hot(pc) {
			t.Fatalf("pc went hot after %d calls, want %d", i+1, cacheHotCount)
		}
	}
	if !c.Hot(pc) {
		t.Fatalf("pc did not go hot after %d calls", cacheHotCount)
	}
}

func TestCache_LookupMissBeforeHot(t *testing.T) {
	c := NewCache()
	pc := GuestAddr(0x2000)

	c.Hot(pc)
	if got := c.Lookup(pc); got != nil {
		t.Fatalf("Lookup = %v, want nil (not hot yet, nothing compiled)", got)
	}
}

func TestCache_AddThenLookupAfterHot(t *testing.T) {
	c := NewCache()
	pc := GuestAddr(0x3000)

	for i := 0; i < cacheHotCount; i++ {
		c.Hot(pc)
	}
	code := []byte{0xC3} // ret
	c.Add(pc, code, 1)

	got := c.Lookup(pc)
	if got == nil {
		t.Fatal("Lookup = nil, want compiled code after Add")
	}
	if got[0] != 0xC3 {
		t.Fatalf("Lookup()[0] = %#x, want 0xc3", got[0])
	}
}

func TestCache_DistinctPCsDoNotCollideOnLookup(t *testing.T) {
	c := NewCache()
	pcA := GuestAddr(0x4000)
	pcB := GuestAddr(0x4000 + cacheEntrySize) // same hash bucket as pcA

	for i := 0; i < cacheHotCount; i++ {
		c.Hot(pcA)
		c.Hot(pcB)
	}
	c.Add(pcA, []byte{0xAA}, 1)
	c.Add(pcB, []byte{0xBB}, 1)

	gotA := c.Lookup(pcA)
	gotB := c.Lookup(pcB)
	if gotA == nil || gotA[0] != 0xAA {
		t.Fatalf("Lookup(pcA)[0] = %v, want 0xaa", gotA)
	}
	if gotB == nil || gotB[0] != 0xBB {
		t.Fatalf("Lookup(pcB)[0] = %v, want 0xbb", gotB)
	}
}
