package main

import (
	"fmt"
	"strings"
	"testing"
)

func TestEmitRegion_AddiThenJalr(t *testing.T) {
	mc := NewMachine()
	mc.MMU.Alloc(4096) // keep guest page 0 unused: discovery rejects pc 0
	base := mc.MMU.Alloc(4096)
	writeWords32(mc.MMU, base,
		0x00550513, // addi a0, a0, 5
		0x00008067, // jalr x0, ra, 0
	)

	r := mc.discoverRegion(base)
	src := EmitRegion(r)

	for _, want := range []string{
		"void start(state_t *restrict state) {",
		"uint64_t x10 = state->gp_regs[10];", // a0 live-in (read by addi)
		"uint64_t x1 = state->gp_regs[1];",   // ra live-in (read by jalr)
		"end:;",
		"state->gp_regs[10] = x10;",
		"}\n",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("emitted source missing %q\n---\n%s", want, src)
		}
	}

	labelAddi := fmt.Sprintf("inst_%x:", uint64(base))
	labelJalr := fmt.Sprintf("inst_%x:", uint64(base+4))
	if !strings.Contains(src, labelAddi) {
		t.Fatalf("missing label for addi node: %s", labelAddi)
	}
	if !strings.Contains(src, labelJalr) {
		t.Fatalf("missing label for jalr node: %s", labelJalr)
	}
	if !strings.Contains(src, "exit_indirect_branch") {
		t.Fatal("jalr must set exit_indirect_branch before goto end")
	}
}
