package main

import "testing"

func TestDiscover_StraightLineBlock(t *testing.T) {
	mc := NewMachine()
	mc.MMU.Alloc(4096) // keep guest page 0 unused: discovery rejects pc 0
	base := mc.MMU.Alloc(4096)
	writeWords32(mc.MMU, base,
		0x00100513, // addi a0, x0, 1
		0x00200593, // addi a1, x0, 2
		0x00008067, // jalr x0, ra, 0 (terminator: Cont)
	)

	r := mc.discoverRegion(base)
	if len(r.nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want 3", len(r.nodes))
	}
	for i, want := range []GuestAddr{base, base + 4, base + 8} {
		if r.nodes[i].pc != want {
			t.Fatalf("nodes[%d].pc = %#x, want %#x", i, r.nodes[i].pc, want)
		}
	}
	if !r.nodes[2].inst.Cont {
		t.Fatal("final node must be a Cont terminator (jalr)")
	}
}

func TestDiscover_BranchOnlyFollowsFallthrough(t *testing.T) {
	mc := NewMachine()
	mc.MMU.Alloc(4096) // keep guest page 0 unused: discovery rejects pc 0
	base := mc.MMU.Alloc(4096)

	beq := uint32(0)
	beq |= 0x63
	beq |= (12 >> 1 & 0xF) << 8
	beq |= 10 << 15 // rs1 = a0
	beq |= 10 << 20 // rs2 = a0

	writeWords32(mc.MMU, base,
		beq,        // beq a0, a0, +12 -> taken exits the region; not-taken falls through to +4
		0x00100513, // addi a0, x0, 1 (fall-through successor, stays in region)
		0x00008067, // jalr x0, ra, 0 (fall-through of the addi; terminates the region)
		0x06300593, // addi a1, x0, 99 (branch target: a separate region, discovered on demand)
	)

	r := mc.discoverRegion(base)
	if len(r.nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want 3 (branch + fall-through chain only; taken edge exits the region)", len(r.nodes))
	}
	seen := map[GuestAddr]bool{}
	for _, n := range r.nodes {
		seen[n.pc] = true
	}
	for _, want := range []GuestAddr{base, base + 4, base + 8} {
		if !seen[want] {
			t.Fatalf("region missing node at %#x", want)
		}
	}
	if seen[base+12] {
		t.Fatal("region must not internalize the taken branch target; it exits via exit_direct_branch")
	}
}

func TestDiscover_StopsAtIndirectBranch(t *testing.T) {
	mc := NewMachine()
	mc.MMU.Alloc(4096) // keep guest page 0 unused: discovery rejects pc 0
	base := mc.MMU.Alloc(4096)
	writeWords32(mc.MMU, base,
		0x00008067, // jalr x0, ra, 0
		0x06300593, // addi a1, x0, 99 (unreachable statically)
	)

	r := mc.discoverRegion(base)
	if len(r.nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1 (jalr does not fall through)", len(r.nodes))
	}
}

func writeWords32(mmu *MMU, addr GuestAddr, words ...uint32) {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		buf[i*4+0] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	mmu.Write(addr, buf)
}
