package main

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// scenarioRig is the Ginkgo-spec equivalent of interpTestRig: a freshly
// allocated guest page plus a machine pointed at it, used for scenarios
// that span more than a single assertion.
type scenarioRig struct {
	mc   *Machine
	base GuestAddr
}

func newScenarioRig() *scenarioRig {
	mc := NewMachine()
	base := mc.MMU.Alloc(4096)
	mc.State.PC = base
	return &scenarioRig{mc: mc, base: base}
}

func (r *scenarioRig) load(words ...uint32) {
	writeWords32(r.mc.MMU, r.base, words...)
}

var _ = Describe("a minimal guest program that exits with a status code", func() {
	// Equivalent to a C "int main(void) { return 42; }" compiled for
	// RV64: load the return value into a0, the exit syscall number into
	// a7, then ecall. This deliberately stops at InterpretBlock rather
	// than calling Step/Run, since the real exit path calls os.Exit and
	// would tear down the test binary itself; what's under test is that
	// the core correctly surfaces the pending syscall, not that os.Exit
	// gets called.
	It("surfaces sys_exit with a7/a0 set per the Linux syscall ABI", func() {
		r := newScenarioRig()
		r.load(
			0x02A00513, // addi a0, x0, 42
			0x05D00893, // addi a7, x0, 93 (SYS_exit)
			0x00000073, // ecall
		)

		r.mc.InterpretBlock()

		Expect(r.mc.State.Exit).To(Equal(ExitECall))
		Expect(r.mc.State.GetGP(RegA7)).To(BeEquivalentTo(93))
		Expect(r.mc.State.GetGP(RegA0)).To(BeEquivalentTo(42))
		Expect(r.mc.State.ReenterPC).To(Equal(r.base + 12))
	})
})

var _ = Describe("RISC-V M-extension exceptional results", func() {
	DescribeTable("division and remainder edge cases",
		func(a0, a1 uint64, opWord uint32, wantA2 uint64) {
			r := newScenarioRig()
			r.mc.State.SetGP(RegA0, a0)
			r.mc.State.SetGP(RegA1, a1)
			r.load(opWord, 0x00000073) // <op> a2, a0, a1 ; ecall
			r.mc.InterpretBlock()

			Expect(r.mc.State.GetGP(RegA2)).To(Equal(wantA2))
		},
		Entry("div by zero yields all-ones quotient",
			uint64(42), uint64(0), uint32(0x02b54633), ^uint64(0)),
		Entry("divu by zero yields all-ones quotient",
			uint64(42), uint64(0), uint32(0x02b55633), ^uint64(0)),
		Entry("rem by zero yields the dividend",
			uint64(42), uint64(0), uint32(0x02b56633), uint64(42)),
		Entry("remu by zero yields the dividend",
			uint64(42), uint64(0), uint32(0x02b57633), uint64(42)),
		Entry("div overflow (MinInt64 / -1) yields MinInt64",
			uint64(1<<63), ^uint64(0), uint32(0x02b54633), uint64(1<<63)),
	)
})

var _ = Describe("a counting loop expressed as repeated InterpretBlock calls", func() {
	// addi a0, x0, 3          ; counter = 3
	// addi a1, x0, 1          ; step = 1
	// loop: sub  a0, a0, a1   ; counter -= 1
	//       bne  a0, x0, loop ; repeat while counter != 0
	//       ecall
	It("runs the loop body exactly as many times as the counter demands", func() {
		r := newScenarioRig()

		bne := uint32(0)
		bne |= 0x63               // opcode
		bne |= 1 << 12            // funct3 = 1 (BNE)
		bne |= uint32(RegA0) << 15
		bne |= uint32(RegZero) << 20
		// target is the sub instruction, 4 bytes behind this one:
		// imm = -4, a 13-bit signed field with imm[4:1]=0b1110, imm[11]=1,
		// imm[10:5]=0x3F, imm[12]=1 (sign-extended).
		bne |= 0xE << 8  // imm[4:1]
		bne |= 1 << 7    // imm[11]
		bne |= 0x3F << 25 // imm[10:5]
		bne |= 1 << 31    // imm[12]

		r.load(
			0x00300513, // addi a0, x0, 3
			0x00100593, // addi a1, x0, 1
			0x40b50533, // sub a0, a0, a1
			bne,
			0x00000073, // ecall
		)

		// Per the taken-branch exit protocol (spec §4.3/§8 Concrete Scenario
		// 4), InterpretBlock never runs across the taken bne: it stops and
		// reports exit_direct_branch with reenter_pc pointing at the loop
		// head, and the caller must drive the inner loop itself by feeding
		// reenter_pc back in as the next pc.
		var exits []ExitReason
		for i := 0; i < 10; i++ {
			r.mc.State.Exit = ExitNone
			r.mc.InterpretBlock()
			exits = append(exits, r.mc.State.Exit)
			if r.mc.State.Exit != ExitDirectBranch {
				break
			}
			r.mc.State.PC = r.mc.State.ReenterPC
		}

		Expect(exits).To(Equal([]ExitReason{ExitDirectBranch, ExitDirectBranch, ExitECall}))
		Expect(r.mc.State.GetGP(RegA0)).To(BeEquivalentTo(0))
		Expect(r.mc.State.Exit).To(Equal(ExitECall))
	})
})
