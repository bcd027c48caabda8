package main

import "testing"

// interpTestRig gives each test its own mapped guest page plus a machine
// wired up to it, mirroring cpu_ie64_test.go's ie64TestRig: build a small
// instruction stream, point pc at it, run, then inspect registers.
type interpTestRig struct {
	mc   *Machine
	base GuestAddr
}

func newInterpTestRig() *interpTestRig {
	mc := NewMachine()
	base := mc.MMU.Alloc(4096)
	mc.State.PC = base
	return &interpTestRig{mc: mc, base: base}
}

func (r *interpTestRig) loadWords(words ...uint32) {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		buf[i*4+0] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	r.mc.MMU.Write(r.base, buf)
}

func TestInterp_AddiThenJalr(t *testing.T) {
	r := newInterpTestRig()
	// addi a0, zero, 5
	// jalr  zero, ra, 0   (ra holds 0, so this jumps to guest addr 0 -
	// irrelevant here since the block always stops at the first Cont
	// instruction; we only care that Exit/ReenterPC come out right)
	r.loadWords(
		0x00500513, // addi a0, x0, 5
		0x00008067, // jalr x0, ra, 0
	)
	r.mc.InterpretBlock()

	if got := r.mc.State.GetGP(RegA0); got != 5 {
		t.Fatalf("a0 = %d, want 5", got)
	}
	if r.mc.State.Exit != ExitIndirectBranch {
		t.Fatalf("Exit = %v, want ExitIndirectBranch", r.mc.State.Exit)
	}
	if r.mc.State.ReenterPC != 0 {
		t.Fatalf("ReenterPC = %#x, want 0 (ra was never set)", r.mc.State.ReenterPC)
	}
}

func TestInterp_TakenBranchExitsWithDirectBranch(t *testing.T) {
	r := newInterpTestRig()
	// A taken branch always leaves the block (spec §4.3: exit_reason =
	// direct_branch, reenter_pc = target) rather than continuing to
	// execute at the new pc within the same InterpretBlock call. So:
	// addi a0,1 ; beq a0,a0,+8 (taken, jumps past the next word) ;
	// addi a1,99 (never reached by this call) ; ecall.
	//
	// beq's own pc is word index 1 (offset 4), so +8 lands on word index 3
	// (offset 12), the ecall - skipping the addi a1 at offset 8.
	beq := uint32(0)
	beq |= 0x63                // opcode
	beq |= 0 << 7              // imm[11] = 0
	beq |= (8 >> 1 & 0xF) << 8 // imm[4:1] = 0b0100
	beq |= 0 << 12             // funct3 = 0 (BEQ)
	beq |= 10 << 15            // rs1 = a0
	beq |= 10 << 20            // rs2 = a0
	beq |= 0 << 25             // imm[10:5] = 0
	beq |= 0 << 31             // imm[12] = 0
	r.loadWords(
		0x00100513, // addi a0, x0, 1
		beq,
		0x06300593, // addi a1, x0, 99 (must not execute)
		0x00000073, // ecall
	)
	r.mc.InterpretBlock()

	if r.mc.State.Exit != ExitDirectBranch {
		t.Fatalf("Exit = %v, want ExitDirectBranch", r.mc.State.Exit)
	}
	if want := r.base + 12; r.mc.State.ReenterPC != want {
		t.Fatalf("ReenterPC = %#x, want %#x", r.mc.State.ReenterPC, want)
	}

	r.mc.State.PC = r.mc.State.ReenterPC
	r.mc.State.Exit = ExitNone
	r.mc.InterpretBlock()

	if got := r.mc.State.GetGP(RegA1); got != 0 {
		t.Fatalf("a1 = %d, want 0 (instruction after taken branch must not run)", got)
	}
	if r.mc.State.Exit != ExitECall {
		t.Fatalf("Exit = %v, want ExitECall", r.mc.State.Exit)
	}
	if want := r.base + 16; r.mc.State.ReenterPC != want {
		t.Fatalf("ReenterPC = %#x, want %#x", r.mc.State.ReenterPC, want)
	}
}

func TestInterp_DivByZero(t *testing.T) {
	r := newInterpTestRig()
	r.mc.State.SetGP(RegA0, 42)
	r.mc.State.SetGP(RegA1, 0)
	// div a2, a0, a1 ; ecall
	r.loadWords(
		0x02b54633, // div a2, a0, a1
		0x00000073, // ecall
	)
	r.mc.InterpretBlock()

	if got := r.mc.State.GetGP(RegA2); got != uint64(int64(-1)) {
		t.Fatalf("a2 = %d, want -1 (division by zero)", int64(got))
	}
}

func TestInterp_RemByZero(t *testing.T) {
	r := newInterpTestRig()
	r.mc.State.SetGP(RegA0, 42)
	r.mc.State.SetGP(RegA1, 0)
	// rem a2, a0, a1 ; ecall
	r.loadWords(
		0x02b56633, // rem a2, a0, a1
		0x00000073, // ecall
	)
	r.mc.InterpretBlock()

	if got := r.mc.State.GetGP(RegA2); got != 42 {
		t.Fatalf("a2 = %d, want 42 (remainder by zero returns dividend)", got)
	}
}

func TestInterp_DivOverflow(t *testing.T) {
	r := newInterpTestRig()
	r.mc.State.SetGP(RegA0, uint64(int64(-9223372036854775808))) // math.MinInt64
	r.mc.State.SetGP(RegA1, uint64(int64(-1)))
	// div a2, a0, a1 ; ecall
	r.loadWords(
		0x02b54633,
		0x00000073,
	)
	r.mc.InterpretBlock()

	if got := int64(r.mc.State.GetGP(RegA2)); got != -9223372036854775808 {
		t.Fatalf("a2 = %d, want MinInt64 (MinInt64 / -1 overflow)", got)
	}
}
