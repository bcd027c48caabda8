// emit.go - C source emission for compiled blocks (spec §4.7, component
// C7). Grounded on original_source/src/codegen.c: a register-liveness
// tracer wraps a prologue/epilogue around the block body so a compiled
// block only loads/stores the registers it actually touches, and each
// reachable instruction becomes a label of the form "inst_<pc>: { ... }"
// chained to its successor(s) by goto. The state_t struct text emitted
// here must stay field-for-field identical to state.go's State struct;
// see the comment on State for why.
package main

import (
	"fmt"
	"strings"
)

type tracer struct {
	gp [NumGPRegs]bool
	fp [NumFPRegs]bool
}

func (t *tracer) useGP(regs ...int8) {
	for _, r := range regs {
		if r > RegZero {
			t.gp[r] = true
		}
	}
}

func (t *tracer) useFP(regs ...int8) {
	for _, r := range regs {
		if r >= 0 {
			t.fp[r] = true
		}
	}
}

// codegenPrologue is the fixed boilerplate every compiled block starts
// with: the guest-to-host macro, the exit-reason enum, the fp_reg_t
// union, and the state_t layout mirrored from state.go's State struct.
const codegenPrologue = `#include <stdint.h>
#include <stdbool.h>
#define OFFSET 0x0000088800000000ULL
#define GUEST_TO_HOST(addr) ((addr) + OFFSET)
enum exit_reason_t {
    exit_none,
    exit_direct_branch,
    exit_indirect_branch,
    exit_ecall,
};
typedef union {
    uint64_t v;
    uint32_t w;
    double d;
    float f;
} fp_reg_t;
typedef struct {
    enum exit_reason_t exit_reason;
    uint64_t reenter_pc;
    uint64_t gp_regs[32];
    fp_reg_t fp_regs[32];
    uint64_t pc;
    uint32_t fcsr;
} state_t;
static inline int64_t rvemu_mulh(int64_t a, int64_t b) {
    __int128 r = (__int128)a * (__int128)b;
    return (int64_t)(r >> 64);
}
static inline int64_t rvemu_mulhsu(int64_t a, uint64_t b) {
    __int128 r = (__int128)a * (__int128)(unsigned __int128)b;
    return (int64_t)(r >> 64);
}
static inline uint64_t rvemu_mulhu(uint64_t a, uint64_t b) {
    unsigned __int128 r = (unsigned __int128)a * (unsigned __int128)b;
    return (uint64_t)(r >> 64);
}
static inline uint32_t rvemu_fsgnj32(uint32_t a, uint32_t b, bool neg, bool xor) {
    uint32_t sign = xor ? ((a ^ b) & 0x80000000u) : (neg ? (~b & 0x80000000u) : (b & 0x80000000u));
    return (a & 0x7fffffffu) | sign;
}
static inline uint64_t rvemu_fsgnj64(uint64_t a, uint64_t b, bool neg, bool xor) {
    uint64_t sign = xor ? ((a ^ b) & 0x8000000000000000ull) : (neg ? (~b & 0x8000000000000000ull) : (b & 0x8000000000000000ull));
    return (a & 0x7fffffffffffffffull) | sign;
}
static inline uint64_t rvemu_fclass32(float f) {
    uint32_t bits;
    __builtin_memcpy(&bits, &f, 4);
    bool sign = bits >> 31;
    uint32_t exp = (bits >> 23) & 0xff;
    uint32_t frac = bits & 0x7fffff;
    if (exp == 0xff) {
        if (frac == 0) return sign ? 1u << 0 : 1u << 7;
        return (frac & 0x400000) ? 1u << 9 : 1u << 8;
    }
    if (exp == 0) {
        if (frac == 0) return sign ? 1u << 3 : 1u << 4;
        return sign ? 1u << 2 : 1u << 5;
    }
    return sign ? 1u << 1 : 1u << 6;
}
static inline uint64_t rvemu_fclass64(double d) {
    uint64_t bits;
    __builtin_memcpy(&bits, &d, 8);
    bool sign = bits >> 63;
    uint64_t exp = (bits >> 52) & 0x7ff;
    uint64_t frac = bits & 0xfffffffffffffull;
    if (exp == 0x7ff) {
        if (frac == 0) return sign ? 1u << 0 : 1u << 7;
        return (frac & 0x8000000000000ull) ? 1u << 9 : 1u << 8;
    }
    if (exp == 0) {
        if (frac == 0) return sign ? 1u << 3 : 1u << 4;
        return sign ? 1u << 2 : 1u << 5;
    }
    return sign ? 1u << 1 : 1u << 6;
}
void start(state_t *restrict state) {
`

const codegenEpilogue = "}\n"

// EmitRegion turns a discovered region into standalone C source ready to
// be piped to clang (compile.go), following machine_genblock's structure
// exactly: per-node labeled blocks in discovery order, a liveness-scoped
// prologue/epilogue, and an "end:" label the exit paths jump to.
func EmitRegion(r *region) string {
	var t tracer
	var body strings.Builder

	for _, n := range r.nodes {
		emitNode(&body, &t, n)
	}

	var out strings.Builder
	out.WriteString(codegenPrologue)
	emitPrologueLoads(&out, &t)
	out.WriteString(body.String())
	out.WriteString("end:;\n")
	emitEpilogueStores(&out, &t)
	out.WriteString(codegenEpilogue)
	return out.String()
}

func emitPrologueLoads(out *strings.Builder, t *tracer) {
	for i := 1; i < NumGPRegs; i++ {
		if t.gp[i] {
			fmt.Fprintf(out, "    uint64_t x%d = state->gp_regs[%d];\n", i, i)
		}
	}
	for i := 0; i < NumFPRegs; i++ {
		if t.fp[i] {
			fmt.Fprintf(out, "    fp_reg_t f%d = state->fp_regs[%d];\n", i, i)
		}
	}
}

func emitEpilogueStores(out *strings.Builder, t *tracer) {
	for i := 1; i < NumGPRegs; i++ {
		if t.gp[i] {
			fmt.Fprintf(out, "    state->gp_regs[%d] = x%d;\n", i, i)
		}
	}
	for i := 0; i < NumFPRegs; i++ {
		if t.fp[i] {
			fmt.Fprintf(out, "    state->fp_regs[%d] = f%d;\n", i, i)
		}
	}
}

func gpRead(r int8) string {
	if r == RegZero {
		return "0ULL"
	}
	return fmt.Sprintf("x%d", r)
}

func gpAssign(out *strings.Builder, rd int8, expr string) {
	if rd == RegZero {
		return
	}
	fmt.Fprintf(out, "    x%d = %s;\n", rd, expr)
}

func emitNode(out *strings.Builder, t *tracer, n node) {
	pc, inst := n.pc, n.inst
	fmt.Fprintf(out, "inst_%x: {\n", uint64(pc))

	switch inst.Kind {
	case KindLUI:
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%dLL", inst.Imm))
	case KindAUIPC:
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%dULL + %dLL", uint64(pc), inst.Imm))

	case KindJAL:
		t.useGP(inst.Rd)
		target := GuestAddr(int64(pc) + int64(inst.Imm))
		gpAssign(out, inst.Rd, fmt.Sprintf("%dULL", uint64(pc+instLen(&inst))))
		fmt.Fprintf(out, "    state->exit_reason = exit_direct_branch;\n")
		fmt.Fprintf(out, "    state->reenter_pc = %dULL;\n", uint64(target))
		out.WriteString("    goto end;\n")

	case KindJALR:
		t.useGP(inst.Rs1, inst.Rd)
		fmt.Fprintf(out, "    state->exit_reason = exit_indirect_branch;\n")
		fmt.Fprintf(out, "    state->reenter_pc = (%s + (int64_t)%dLL) & ~(uint64_t)1;\n", gpRead(inst.Rs1), inst.Imm)
		gpAssign(out, inst.Rd, fmt.Sprintf("%dULL", uint64(pc+instLen(&inst))))
		out.WriteString("    goto end;\n")

	case KindBEQ, KindBNE, KindBLT, KindBGE, KindBLTU, KindBGEU:
		t.useGP(inst.Rs1, inst.Rs2)
		target := GuestAddr(int64(pc) + int64(inst.Imm))
		fall := pc + instLen(&inst)
		ctype, op := branchCOp(inst.Kind)
		fmt.Fprintf(out, "    if ((%s)%s %s (%s)%s) { state->exit_reason = exit_direct_branch; state->reenter_pc = %dULL; goto end; }\n",
			ctype, gpRead(inst.Rs1), op, ctype, gpRead(inst.Rs2), uint64(target))
		fmt.Fprintf(out, "    goto inst_%x;\n", uint64(fall))

	case KindECALL, KindEBREAK:
		out.WriteString("    state->exit_reason = exit_ecall;\n")
		fmt.Fprintf(out, "    state->reenter_pc = %dULL;\n", uint64(pc+instLen(&inst)))
		out.WriteString("    goto end;\n")

	case KindFENCE, KindFENCEI:
		fmt.Fprintf(out, "    goto inst_%x;\n", uint64(pc+instLen(&inst)))

	case KindLB, KindLH, KindLW, KindLD, KindLBU, KindLHU, KindLWU:
		emitLoad(out, t, inst)
		emitFallthrough(out, pc, inst)
	case KindSB, KindSH, KindSW, KindSD:
		emitStore(out, t, inst)
		emitFallthrough(out, pc, inst)
	case KindFLW, KindFLD:
		emitFPLoad(out, t, inst)
		emitFallthrough(out, pc, inst)
	case KindFSW, KindFSD:
		emitFPStore(out, t, inst)
		emitFallthrough(out, pc, inst)

	default:
		if emitALU(out, t, inst) || emitFP(out, t, inst) {
			emitFallthrough(out, pc, inst)
			break
		}
		fatalf("emit: unhandled instruction %s at pc %#x", inst, pc)
	}

	out.WriteString("}\n")
}

func emitFallthrough(out *strings.Builder, pc GuestAddr, inst Inst) {
	fmt.Fprintf(out, "    goto inst_%x;\n", uint64(pc+instLen(&inst)))
}

func branchCOp(k Kind) (ctype, op string) {
	switch k {
	case KindBEQ:
		return "uint64_t", "=="
	case KindBNE:
		return "uint64_t", "!="
	case KindBLT:
		return "int64_t", "<"
	case KindBGE:
		return "int64_t", ">="
	case KindBLTU:
		return "uint64_t", "<"
	case KindBGEU:
		return "uint64_t", ">="
	}
	panic("unreachable")
}

var loadCType = map[Kind]string{
	KindLB: "int8_t", KindLH: "int16_t", KindLW: "int32_t", KindLD: "int64_t",
	KindLBU: "uint8_t", KindLHU: "uint16_t", KindLWU: "uint32_t",
}

func emitLoad(out *strings.Builder, t *tracer, inst Inst) {
	t.useGP(inst.Rs1, inst.Rd)
	ctyp := loadCType[inst.Kind]
	addr := fmt.Sprintf("%s + (int64_t)%dLL", gpRead(inst.Rs1), inst.Imm)
	fmt.Fprintf(out, "    %s rd = *(%s *)GUEST_TO_HOST(%s);\n", ctyp, ctyp, addr)
	gpAssign(out, inst.Rd, "(int64_t)rd")
}

var storeCType = map[Kind]string{
	KindSB: "uint8_t", KindSH: "uint16_t", KindSW: "uint32_t", KindSD: "uint64_t",
}

func emitStore(out *strings.Builder, t *tracer, inst Inst) {
	t.useGP(inst.Rs1, inst.Rs2)
	ctyp := storeCType[inst.Kind]
	addr := fmt.Sprintf("%s + (int64_t)%dLL", gpRead(inst.Rs1), inst.Imm)
	fmt.Fprintf(out, "    *(%s *)GUEST_TO_HOST(%s) = (%s)%s;\n", ctyp, addr, ctyp, gpRead(inst.Rs2))
}

func emitFPLoad(out *strings.Builder, t *tracer, inst Inst) {
	t.useGP(inst.Rs1)
	t.useFP(inst.Rd)
	addr := fmt.Sprintf("%s + (int64_t)%dLL", gpRead(inst.Rs1), inst.Imm)
	if inst.Kind == KindFLW {
		fmt.Fprintf(out, "    f%d.v = 0xFFFFFFFF00000000ULL | *(uint32_t *)GUEST_TO_HOST(%s);\n", inst.Rd, addr)
	} else {
		fmt.Fprintf(out, "    f%d.v = *(uint64_t *)GUEST_TO_HOST(%s);\n", inst.Rd, addr)
	}
}

func emitFPStore(out *strings.Builder, t *tracer, inst Inst) {
	t.useGP(inst.Rs1)
	t.useFP(inst.Rs2)
	addr := fmt.Sprintf("%s + (int64_t)%dLL", gpRead(inst.Rs1), inst.Imm)
	if inst.Kind == KindFSW {
		fmt.Fprintf(out, "    *(uint32_t *)GUEST_TO_HOST(%s) = f%d.w;\n", addr, inst.Rs2)
	} else {
		fmt.Fprintf(out, "    *(uint64_t *)GUEST_TO_HOST(%s) = f%d.v;\n", addr, inst.Rs2)
	}
}

// emitALU handles every integer-only Kind (immediate and register ALU,
// word variants, M extension, CSR) by building a C expression and
// assigning it to rd, mirroring codegen.c's FUNC_ALUI/FUNC_ALU shape.
// Reports false for anything it doesn't recognize so emitNode can try
// emitFP next.
func emitALU(out *strings.Builder, t *tracer, inst Inst) bool {
	switch inst.Kind {
	case KindADDI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s + (int64_t)%dLL", gpRead(inst.Rs1), inst.Imm))
	case KindSLTI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)%s < (int64_t)%dLL", gpRead(inst.Rs1), inst.Imm))
	case KindSLTIU:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s < (uint64_t)(int64_t)%dLL", gpRead(inst.Rs1), inst.Imm))
	case KindXORI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s ^ (uint64_t)(int64_t)%dLL", gpRead(inst.Rs1), inst.Imm))
	case KindORI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s | (uint64_t)(int64_t)%dLL", gpRead(inst.Rs1), inst.Imm))
	case KindANDI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s & (uint64_t)(int64_t)%dLL", gpRead(inst.Rs1), inst.Imm))
	case KindSLLI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s << %d", gpRead(inst.Rs1), inst.Imm&0x3F))
	case KindSRLI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s >> %d", gpRead(inst.Rs1), inst.Imm&0x3F))
	case KindSRAI:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(uint64_t)((int64_t)%s >> %d)", gpRead(inst.Rs1), inst.Imm&0x3F))

	case KindADD:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s + %s", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSUB:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s - %s", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSLL:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s << (%s & 0x3f)", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSLT:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)%s < (int64_t)%s", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSLTU:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s < %s", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindXOR:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s ^ %s", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSRL:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s >> (%s & 0x3f)", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSRA:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(uint64_t)((int64_t)%s >> (%s & 0x3f))", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindOR:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s | %s", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindAND:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s & %s", gpRead(inst.Rs1), gpRead(inst.Rs2)))

	case KindADDIW:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)(%s + (int64_t)%dLL)", gpRead(inst.Rs1), inst.Imm))
	case KindSLLIW:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)((uint32_t)%s << %d)", gpRead(inst.Rs1), inst.Imm&0x1F))
	case KindSRLIW:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)((uint32_t)%s >> %d)", gpRead(inst.Rs1), inst.Imm&0x1F))
	case KindSRAIW:
		t.useGP(inst.Rs1, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)((int32_t)%s >> %d)", gpRead(inst.Rs1), inst.Imm&0x1F))
	case KindADDW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)(%s + %s)", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSUBW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)(%s - %s)", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSLLW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)((uint32_t)%s << (%s & 0x1f))", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSRLW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)((uint32_t)%s >> (%s & 0x1f))", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindSRAW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)((int32_t)%s >> (%s & 0x1f))", gpRead(inst.Rs1), gpRead(inst.Rs2)))

	case KindMUL:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s * %s", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindMULW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)(%s * %s)", gpRead(inst.Rs1), gpRead(inst.Rs2)))
	case KindDIV:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf(
			"%s == 0 ? -1LL : (%s == INT64_MIN && (int64_t)%s == -1 ? INT64_MIN : (int64_t)%s / (int64_t)%s)",
			b, a, b, a, b))
	case KindDIVU:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s == 0 ? UINT64_MAX : %s / %s", b, a, b))
	case KindREM:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf(
			"%s == 0 ? (int64_t)%s : (%s == INT64_MIN && (int64_t)%s == -1 ? 0 : (int64_t)%s %% (int64_t)%s)",
			b, a, a, b, a, b))
	case KindREMU:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf("%s == 0 ? %s : %s %% %s", b, a, a, b))
	case KindDIVW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf(
			"(int32_t)%s == 0 ? -1LL : ((uint32_t)%s == 0x80000000u && (int32_t)%s == -1 ? INT32_MIN : (int64_t)((int32_t)%s / (int32_t)%s))",
			b, a, b, a, b))
	case KindDIVUW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf(
			"(int64_t)(int32_t)((uint32_t)%s == 0 ? UINT32_MAX : (uint32_t)%s / (uint32_t)%s)", b, a, b))
	case KindREMW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf(
			"(int32_t)%s == 0 ? (int64_t)(int32_t)%s : ((uint32_t)%s == 0x80000000u && (int32_t)%s == -1 ? 0 : (int64_t)((int32_t)%s %% (int32_t)%s))",
			b, a, a, b, a, b))
	case KindREMUW:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		a, b := gpRead(inst.Rs1), gpRead(inst.Rs2)
		gpAssign(out, inst.Rd, fmt.Sprintf(
			"(int64_t)(int32_t)((uint32_t)%s == 0 ? (uint32_t)%s : (uint32_t)%s %% (uint32_t)%s)", b, a, a, b))
	case KindMULH, KindMULHSU, KindMULHU:
		t.useGP(inst.Rs1, inst.Rs2, inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("rvemu_%s(%s, %s)", strings.ToLower(kindName(inst.Kind)), gpRead(inst.Rs1), gpRead(inst.Rs2)))

	case KindCSRRW, KindCSRRS, KindCSRRC, KindCSRRWI, KindCSRRSI, KindCSRRCI:
		emitCSRC(out, t, inst)

	default:
		return false
	}
	return true
}

// emitCSRC lowers Zicsr instructions to calls against state->fcsr, the
// only CSR this core backs (state.go readCSR/writeCSR); any other CSR
// index reads as zero and ignores writes.
func emitCSRC(out *strings.Builder, t *tracer, inst Inst) {
	t.useGP(inst.Rs1, inst.Rd)
	if inst.CSR != fcsrCSR {
		gpAssign(out, inst.Rd, "0ULL")
		return
	}
	var src string
	if inst.Kind == KindCSRRWI || inst.Kind == KindCSRRSI || inst.Kind == KindCSRRCI {
		src = fmt.Sprintf("%dULL", inst.Imm)
	} else {
		src = gpRead(inst.Rs1)
	}
	if inst.Rd != RegZero {
		fmt.Fprintf(out, "    uint64_t csr_old = state->fcsr;\n")
		gpAssign(out, inst.Rd, "csr_old")
	}
	switch inst.Kind {
	case KindCSRRW, KindCSRRWI:
		fmt.Fprintf(out, "    state->fcsr = (uint32_t)(%s) & 0xff;\n", src)
	case KindCSRRS, KindCSRRSI:
		fmt.Fprintf(out, "    state->fcsr |= (uint32_t)(%s) & 0xff;\n", src)
	case KindCSRRC, KindCSRRCI:
		fmt.Fprintf(out, "    state->fcsr &= ~((uint32_t)(%s) & 0xff);\n", src)
	}
}

func kindName(k Kind) string {
	switch k {
	case KindMULH:
		return "MULH"
	case KindMULHSU:
		return "MULHSU"
	case KindMULHU:
		return "MULHU"
	}
	return "?"
}

// emitFP handles every F/D-extension Kind by emitting operations against
// the fp_reg_t union's .f/.d/.w/.v fields, mirroring FUNC_FSTORE's
// FREG_GET pattern for register access. Reports false for anything it
// doesn't recognize.
func emitFP(out *strings.Builder, t *tracer, inst Inst) bool {
	bin := func(field string, op string) {
		t.useFP(inst.Rs1, inst.Rs2, inst.Rd)
		fmt.Fprintf(out, "    f%d.%s = f%d.%s %s f%d.%s;\n", inst.Rd, field, inst.Rs1, field, op, inst.Rs2, field)
	}
	switch inst.Kind {
	case KindFADDS:
		bin("f", "+")
	case KindFSUBS:
		bin("f", "-")
	case KindFMULS:
		bin("f", "*")
	case KindFDIVS:
		bin("f", "/")
	case KindFADDD:
		bin("d", "+")
	case KindFSUBD:
		bin("d", "-")
	case KindFMULD:
		bin("d", "*")
	case KindFDIVD:
		bin("d", "/")
	case KindFSQRTS:
		t.useFP(inst.Rs1, inst.Rd)
		fmt.Fprintf(out, "    f%d.f = __builtin_sqrtf(f%d.f);\n", inst.Rd, inst.Rs1)
	case KindFSQRTD:
		t.useFP(inst.Rs1, inst.Rd)
		fmt.Fprintf(out, "    f%d.d = __builtin_sqrt(f%d.d);\n", inst.Rd, inst.Rs1)
	case KindFMVXW:
		t.useFP(inst.Rs1)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("(int64_t)(int32_t)f%d.w", inst.Rs1))
	case KindFMVXD:
		t.useFP(inst.Rs1)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("f%d.v", inst.Rs1))
	case KindFMVWX:
		t.useGP(inst.Rs1)
		t.useFP(inst.Rd)
		fmt.Fprintf(out, "    f%d.v = 0xFFFFFFFF00000000ULL | (uint32_t)%s;\n", inst.Rd, gpRead(inst.Rs1))
	case KindFMVDX:
		t.useGP(inst.Rs1)
		t.useFP(inst.Rd)
		fmt.Fprintf(out, "    f%d.v = %s;\n", inst.Rd, gpRead(inst.Rs1))

	case KindFMADDS, KindFMSUBS, KindFNMSUBS, KindFNMADDS:
		emitFMA(out, t, inst, "f", fmaSign(inst.Kind))
	case KindFMADDD, KindFMSUBD, KindFNMSUBD, KindFNMADDD:
		emitFMA(out, t, inst, "d", fmaSign(inst.Kind))

	case KindFSGNJS, KindFSGNJNS, KindFSGNJXS:
		t.useFP(inst.Rs1, inst.Rs2, inst.Rd)
		fmt.Fprintf(out, "    f%d.w = rvemu_fsgnj32(f%d.w, f%d.w, %s, %s);\n",
			inst.Rd, inst.Rs1, inst.Rs2, sgnjNeg(inst.Kind), sgnjXor(inst.Kind))
	case KindFSGNJD, KindFSGNJND, KindFSGNJXD:
		t.useFP(inst.Rs1, inst.Rs2, inst.Rd)
		fmt.Fprintf(out, "    f%d.v = rvemu_fsgnj64(f%d.v, f%d.v, %s, %s);\n",
			inst.Rd, inst.Rs1, inst.Rs2, sgnjNeg(inst.Kind), sgnjXor(inst.Kind))

	case KindFMINS:
		bin2("f", "__builtin_fminf", out, t, inst)
	case KindFMAXS:
		bin2("f", "__builtin_fmaxf", out, t, inst)
	case KindFMIND:
		bin2("d", "__builtin_fmin", out, t, inst)
	case KindFMAXD:
		bin2("d", "__builtin_fmax", out, t, inst)

	case KindFCVTSD:
		t.useFP(inst.Rs1, inst.Rd)
		fmt.Fprintf(out, "    f%d.f = (float)f%d.d;\n", inst.Rd, inst.Rs1)
	case KindFCVTDS:
		t.useFP(inst.Rs1, inst.Rd)
		fmt.Fprintf(out, "    f%d.d = (double)f%d.f;\n", inst.Rd, inst.Rs1)

	case KindFEQS:
		t.useFP(inst.Rs1, inst.Rs2)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("f%d.f == f%d.f", inst.Rs1, inst.Rs2))
	case KindFLTS:
		t.useFP(inst.Rs1, inst.Rs2)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("f%d.f < f%d.f", inst.Rs1, inst.Rs2))
	case KindFLES:
		t.useFP(inst.Rs1, inst.Rs2)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("f%d.f <= f%d.f", inst.Rs1, inst.Rs2))
	case KindFEQD:
		t.useFP(inst.Rs1, inst.Rs2)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("f%d.d == f%d.d", inst.Rs1, inst.Rs2))
	case KindFLTD:
		t.useFP(inst.Rs1, inst.Rs2)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("f%d.d < f%d.d", inst.Rs1, inst.Rs2))
	case KindFLED:
		t.useFP(inst.Rs1, inst.Rs2)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("f%d.d <= f%d.d", inst.Rs1, inst.Rs2))

	case KindFCLASSS:
		t.useFP(inst.Rs1)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("rvemu_fclass32(f%d.f)", inst.Rs1))
	case KindFCLASSD:
		t.useFP(inst.Rs1)
		t.useGP(inst.Rd)
		gpAssign(out, inst.Rd, fmt.Sprintf("rvemu_fclass64(f%d.d)", inst.Rs1))

	case KindFCVTWS:
		cvtToInt(out, t, inst, "f", "int32_t", true)
	case KindFCVTWUS:
		cvtToInt(out, t, inst, "f", "uint32_t", true)
	case KindFCVTLS:
		cvtToInt(out, t, inst, "f", "int64_t", false)
	case KindFCVTLUS:
		cvtToInt(out, t, inst, "f", "uint64_t", false)
	case KindFCVTWD:
		cvtToInt(out, t, inst, "d", "int32_t", true)
	case KindFCVTWUD:
		cvtToInt(out, t, inst, "d", "uint32_t", true)
	case KindFCVTLD:
		cvtToInt(out, t, inst, "d", "int64_t", false)
	case KindFCVTLUD:
		cvtToInt(out, t, inst, "d", "uint64_t", false)

	case KindFCVTSW:
		cvtFromInt(out, t, inst, "f", "float", "(int32_t)")
	case KindFCVTSWU:
		cvtFromInt(out, t, inst, "f", "float", "(uint32_t)")
	case KindFCVTSL:
		cvtFromInt(out, t, inst, "f", "float", "(int64_t)")
	case KindFCVTSLU:
		cvtFromInt(out, t, inst, "f", "float", "(uint64_t)")
	case KindFCVTDW:
		cvtFromInt(out, t, inst, "d", "double", "(int32_t)")
	case KindFCVTDWU:
		cvtFromInt(out, t, inst, "d", "double", "(uint32_t)")
	case KindFCVTDL:
		cvtFromInt(out, t, inst, "d", "double", "(int64_t)")
	case KindFCVTDLU:
		cvtFromInt(out, t, inst, "d", "double", "(uint64_t)")

	default:
		return false
	}
	return true
}

// bin2 assigns fd = fn(fs1, fs2) for a two-argument float builtin.
func bin2(field, fn string, out *strings.Builder, t *tracer, inst Inst) {
	t.useFP(inst.Rs1, inst.Rs2, inst.Rd)
	fmt.Fprintf(out, "    f%d.%s = %s(f%d.%s, f%d.%s);\n", inst.Rd, field, fn, inst.Rs1, field, inst.Rs2, field)
}

// fmaSign reports the negate-product/negate-addend flags FUNC_FMADD's
// four variants apply, matching interp_fp.go's execFP FMA cases.
func fmaSign(k Kind) (negProd, negAdd bool) {
	switch k {
	case KindFMADDS, KindFMADDD:
		return false, false
	case KindFMSUBS, KindFMSUBD:
		return false, true
	case KindFNMSUBS, KindFNMSUBD:
		return true, false
	case KindFNMADDS, KindFNMADDD:
		return true, true
	}
	panic("unreachable")
}

func emitFMA(out *strings.Builder, t *tracer, inst Inst, field string, negProd, negAdd bool) {
	t.useFP(inst.Rs1, inst.Rs2, inst.Rs3, inst.Rd)
	prod := fmt.Sprintf("f%d.%s * f%d.%s", inst.Rs1, field, inst.Rs2, field)
	if negProd {
		prod = "-(" + prod + ")"
	}
	addend := fmt.Sprintf("f%d.%s", inst.Rs3, field)
	if negAdd {
		addend = "-(" + addend + ")"
	}
	fmt.Fprintf(out, "    f%d.%s = %s + %s;\n", inst.Rd, field, prod, addend)
}

func sgnjNeg(k Kind) string {
	if k == KindFSGNJNS || k == KindFSGNJND {
		return "true"
	}
	return "false"
}

func sgnjXor(k Kind) string {
	if k == KindFSGNJXS || k == KindFSGNJXD {
		return "true"
	}
	return "false"
}

// cvtToInt assigns rd = (int64_t)(ctyp)fN.field, matching FUNC_FCVT's
// truncating conversion. narrow sign-extends the 32-bit intermediate
// result to 64 bits, as both the W and WU variants do (matching
// interp_fp.go's execFP).
func cvtToInt(out *strings.Builder, t *tracer, inst Inst, field, ctyp string, narrow bool) {
	t.useFP(inst.Rs1)
	t.useGP(inst.Rd)
	expr := fmt.Sprintf("(%s)f%d.%s", ctyp, inst.Rs1, field)
	if narrow {
		expr = fmt.Sprintf("(int64_t)(int32_t)%s", expr)
	} else {
		expr = fmt.Sprintf("(int64_t)(uint64_t)%s", expr)
	}
	gpAssign(out, inst.Rd, expr)
}

// cvtFromInt assigns fd.field = (ftyp)(itycast)xN, matching FUNC_FCVT's
// signed/unsigned integer-to-float conversion.
func cvtFromInt(out *strings.Builder, t *tracer, inst Inst, field, ftyp, itycast string) {
	t.useGP(inst.Rs1)
	t.useFP(inst.Rd)
	fmt.Fprintf(out, "    f%d.%s = (%s)%s%s;\n", inst.Rd, field, ftyp, itycast, gpRead(inst.Rs1))
}
