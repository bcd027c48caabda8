// interp.go - one-block interpreter (spec §4.3, component C4).
//
// execOne mirrors original_source/src/interp.c's per-instruction dispatch
// (decode, run, zero x0, advance pc unless Cont) but as a Go switch over
// Kind rather than a generated function-pointer table, matching
// cpu_ie64.go's flat opcode switch. DIV/DIVU/REM/REMU edge cases follow
// other_examples/333514ff_tinyrange-cc__internal-hv-riscv-rv64-execute.go.go;
// MULH/MULHSU/MULHU, FSGNJ and FCLASS live in interp_fp.go.
package main

import "math"

// InterpretBlock runs instructions starting at st.PC until one sets
// st.Exit, i.e. until it leaves the block via a branch, jump, or ecall.
func (mc *Machine) InterpretBlock() {
	st := mc.State
	for {
		word := mc.fetch32(st.PC)
		inst := Decode(word)
		mc.execOne(&inst)
		if inst.Cont {
			return
		}
		if st.Exit != ExitNone {
			return
		}
	}
}

func (mc *Machine) fetch32(pc GuestAddr) uint32 {
	b := mc.MMU.Read(pc, 4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func instLen(inst *Inst) GuestAddr {
	if inst.RVC {
		return 2
	}
	return 4
}

// execOne executes a single decoded instruction against mc.State and
// mc.MMU, advancing st.PC for every instruction except jumps, taken
// branches and ecall/ebreak, which leave st.PC unchanged and set
// st.Exit/st.ReenterPC instead.
func (mc *Machine) execOne(inst *Inst) {
	st := mc.State
	pc := st.PC

	switch inst.Kind {
	case KindLUI:
		st.SetGP(inst.Rd, uint64(int64(inst.Imm)))
	case KindAUIPC:
		st.SetGP(inst.Rd, uint64(int64(pc)+int64(inst.Imm)))
	case KindJAL:
		st.SetGP(inst.Rd, uint64(pc+instLen(inst)))
		st.Exit = ExitDirectBranch
		st.ReenterPC = GuestAddr(int64(pc) + int64(inst.Imm))
		return
	case KindJALR:
		target := (uint64(int64(st.GetGP(inst.Rs1)) + int64(inst.Imm))) &^ 1
		st.SetGP(inst.Rd, uint64(pc+instLen(inst)))
		st.Exit = ExitIndirectBranch
		st.ReenterPC = GuestAddr(target)
		return

	case KindBEQ, KindBNE, KindBLT, KindBGE, KindBLTU, KindBGEU:
		if branchTaken(inst.Kind, st.GetGP(inst.Rs1), st.GetGP(inst.Rs2)) {
			st.Exit = ExitDirectBranch
			st.ReenterPC = GuestAddr(int64(pc) + int64(inst.Imm))
			return
		}

	case KindLB:
		st.SetGP(inst.Rd, uint64(int64(int8(mc.load8(inst, st)))))
	case KindLH:
		st.SetGP(inst.Rd, uint64(int64(int16(mc.load16(inst, st)))))
	case KindLW:
		st.SetGP(inst.Rd, uint64(int64(int32(mc.load32(inst, st)))))
	case KindLD:
		st.SetGP(inst.Rd, mc.load64(inst, st))
	case KindLBU:
		st.SetGP(inst.Rd, uint64(mc.load8(inst, st)))
	case KindLHU:
		st.SetGP(inst.Rd, uint64(mc.load16(inst, st)))
	case KindLWU:
		st.SetGP(inst.Rd, uint64(mc.load32(inst, st)))

	case KindSB:
		mc.store8(inst, st, uint8(st.GetGP(inst.Rs2)))
	case KindSH:
		mc.store16(inst, st, uint16(st.GetGP(inst.Rs2)))
	case KindSW:
		mc.store32(inst, st, uint32(st.GetGP(inst.Rs2)))
	case KindSD:
		mc.store64(inst, st, st.GetGP(inst.Rs2))

	case KindADDI:
		st.SetGP(inst.Rd, uint64(int64(st.GetGP(inst.Rs1))+int64(inst.Imm)))
	case KindSLTI:
		st.SetGP(inst.Rd, b2u64(int64(st.GetGP(inst.Rs1)) < int64(inst.Imm)))
	case KindSLTIU:
		st.SetGP(inst.Rd, b2u64(st.GetGP(inst.Rs1) < uint64(int64(inst.Imm))))
	case KindXORI:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)^uint64(int64(inst.Imm)))
	case KindORI:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)|uint64(int64(inst.Imm)))
	case KindANDI:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)&uint64(int64(inst.Imm)))
	case KindSLLI:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)<<uint(inst.Imm&0x3F))
	case KindSRLI:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)>>uint(inst.Imm&0x3F))
	case KindSRAI:
		st.SetGP(inst.Rd, uint64(int64(st.GetGP(inst.Rs1))>>uint(inst.Imm&0x3F)))

	case KindADD:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)+st.GetGP(inst.Rs2))
	case KindSUB:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)-st.GetGP(inst.Rs2))
	case KindSLL:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)<<(st.GetGP(inst.Rs2)&0x3F))
	case KindSLT:
		st.SetGP(inst.Rd, b2u64(int64(st.GetGP(inst.Rs1)) < int64(st.GetGP(inst.Rs2))))
	case KindSLTU:
		st.SetGP(inst.Rd, b2u64(st.GetGP(inst.Rs1) < st.GetGP(inst.Rs2)))
	case KindXOR:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)^st.GetGP(inst.Rs2))
	case KindSRL:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)>>(st.GetGP(inst.Rs2)&0x3F))
	case KindSRA:
		st.SetGP(inst.Rd, uint64(int64(st.GetGP(inst.Rs1))>>(st.GetGP(inst.Rs2)&0x3F)))
	case KindOR:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)|st.GetGP(inst.Rs2))
	case KindAND:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)&st.GetGP(inst.Rs2))

	case KindADDIW:
		st.SetGP(inst.Rd, uint64(int64(int32(int64(st.GetGP(inst.Rs1))+int64(inst.Imm)))))
	case KindSLLIW:
		st.SetGP(inst.Rd, uint64(int64(int32(uint32(st.GetGP(inst.Rs1))<<uint(inst.Imm&0x1F)))))
	case KindSRLIW:
		st.SetGP(inst.Rd, uint64(int64(int32(uint32(st.GetGP(inst.Rs1))>>uint(inst.Imm&0x1F)))))
	case KindSRAIW:
		st.SetGP(inst.Rd, uint64(int64(int32(st.GetGP(inst.Rs1))>>uint(inst.Imm&0x1F))))
	case KindADDW:
		st.SetGP(inst.Rd, uint64(int64(int32(st.GetGP(inst.Rs1)+st.GetGP(inst.Rs2)))))
	case KindSUBW:
		st.SetGP(inst.Rd, uint64(int64(int32(st.GetGP(inst.Rs1)-st.GetGP(inst.Rs2)))))
	case KindSLLW:
		st.SetGP(inst.Rd, uint64(int64(int32(uint32(st.GetGP(inst.Rs1))<<(st.GetGP(inst.Rs2)&0x1F)))))
	case KindSRLW:
		st.SetGP(inst.Rd, uint64(int64(int32(uint32(st.GetGP(inst.Rs1))>>(st.GetGP(inst.Rs2)&0x1F)))))
	case KindSRAW:
		st.SetGP(inst.Rd, uint64(int64(int32(st.GetGP(inst.Rs1))>>(st.GetGP(inst.Rs2)&0x1F))))

	case KindFENCE, KindFENCEI:
		// no-op: this core has no cache/pipeline state to order.

	case KindECALL:
		st.Exit = ExitECall
		st.ReenterPC = pc + instLen(inst)
		return
	case KindEBREAK:
		st.Exit = ExitECall
		st.ReenterPC = pc + instLen(inst)
		return

	case KindCSRRW, KindCSRRS, KindCSRRC, KindCSRRWI, KindCSRRSI, KindCSRRCI:
		execCSR(st, inst)

	case KindMUL:
		st.SetGP(inst.Rd, st.GetGP(inst.Rs1)*st.GetGP(inst.Rs2))
	case KindMULH:
		st.SetGP(inst.Rd, uint64(mulh(int64(st.GetGP(inst.Rs1)), int64(st.GetGP(inst.Rs2)))))
	case KindMULHSU:
		st.SetGP(inst.Rd, uint64(mulhsu(int64(st.GetGP(inst.Rs1)), st.GetGP(inst.Rs2))))
	case KindMULHU:
		st.SetGP(inst.Rd, mulhu(st.GetGP(inst.Rs1), st.GetGP(inst.Rs2)))
	case KindDIV:
		st.SetGP(inst.Rd, uint64(div64(int64(st.GetGP(inst.Rs1)), int64(st.GetGP(inst.Rs2)))))
	case KindDIVU:
		st.SetGP(inst.Rd, divu64(st.GetGP(inst.Rs1), st.GetGP(inst.Rs2)))
	case KindREM:
		st.SetGP(inst.Rd, uint64(rem64(int64(st.GetGP(inst.Rs1)), int64(st.GetGP(inst.Rs2)))))
	case KindREMU:
		st.SetGP(inst.Rd, remu64(st.GetGP(inst.Rs1), st.GetGP(inst.Rs2)))
	case KindMULW:
		st.SetGP(inst.Rd, uint64(int64(int32(st.GetGP(inst.Rs1)*st.GetGP(inst.Rs2)))))
	case KindDIVW:
		st.SetGP(inst.Rd, uint64(int64(div32(int32(st.GetGP(inst.Rs1)), int32(st.GetGP(inst.Rs2))))))
	case KindDIVUW:
		st.SetGP(inst.Rd, uint64(int64(int32(divu32(uint32(st.GetGP(inst.Rs1)), uint32(st.GetGP(inst.Rs2)))))))
	case KindREMW:
		st.SetGP(inst.Rd, uint64(int64(rem32(int32(st.GetGP(inst.Rs1)), int32(st.GetGP(inst.Rs2))))))
	case KindREMUW:
		st.SetGP(inst.Rd, uint64(int64(int32(remu32(uint32(st.GetGP(inst.Rs1)), uint32(st.GetGP(inst.Rs2)))))))

	default:
		mc.execFP(inst)
		if st.Exit != ExitNone {
			return
		}
	}

	st.PC = pc + instLen(inst)
}

func branchTaken(k Kind, a, b uint64) bool {
	switch k {
	case KindBEQ:
		return a == b
	case KindBNE:
		return a != b
	case KindBLT:
		return int64(a) < int64(b)
	case KindBGE:
		return int64(a) >= int64(b)
	case KindBLTU:
		return a < b
	case KindBGEU:
		return a >= b
	}
	return false
}

func (mc *Machine) load8(inst *Inst, st *State) uint8 {
	return mc.MMU.Read(effAddr(inst, st), 1)[0]
}
func (mc *Machine) load16(inst *Inst, st *State) uint16 {
	b := mc.MMU.Read(effAddr(inst, st), 2)
	return uint16(b[0]) | uint16(b[1])<<8
}
func (mc *Machine) load32(inst *Inst, st *State) uint32 {
	b := mc.MMU.Read(effAddr(inst, st), 4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func (mc *Machine) load64(inst *Inst, st *State) uint64 {
	b := mc.MMU.Read(effAddr(inst, st), 8)
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (mc *Machine) store8(inst *Inst, st *State, v uint8) {
	mc.MMU.Write(effAddr(inst, st), []byte{v})
}
func (mc *Machine) store16(inst *Inst, st *State, v uint16) {
	mc.MMU.Write(effAddr(inst, st), []byte{byte(v), byte(v >> 8)})
}
func (mc *Machine) store32(inst *Inst, st *State, v uint32) {
	mc.MMU.Write(effAddr(inst, st), []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}
func (mc *Machine) store64(inst *Inst, st *State, v uint64) {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	mc.MMU.Write(effAddr(inst, st), buf)
}

func effAddr(inst *Inst, st *State) GuestAddr {
	return GuestAddr(int64(st.GetGP(inst.Rs1)) + int64(inst.Imm))
}

func b2u64(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// div64/divu64/rem64/remu64 and their 32-bit *32 counterparts implement
// the RISC-V DIV/DIVU/REM/REMU exceptional-result convention: division by
// zero yields an all-ones quotient and the dividend as remainder; signed
// overflow (MinInt / -1) yields MinInt with a zero remainder.
func div64(a, b int64) int64 {
	if b == 0 {
		return -1
	}
	if a == math.MinInt64 && b == -1 {
		return math.MinInt64
	}
	return a / b
}

func divu64(a, b uint64) uint64 {
	if b == 0 {
		return math.MaxUint64
	}
	return a / b
}

func rem64(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if a == math.MinInt64 && b == -1 {
		return 0
	}
	return a % b
}

func remu64(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func div32(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == math.MinInt32 && b == -1 {
		return math.MinInt32
	}
	return a / b
}

func divu32(a, b uint32) uint32 {
	if b == 0 {
		return math.MaxUint32
	}
	return a / b
}

func rem32(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == math.MinInt32 && b == -1 {
		return 0
	}
	return a % b
}

func remu32(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

// execCSR implements Zicsr against the single fcsr register; every other
// CSR index reads as zero and ignores writes, matching this core's total absence
// of privileged state (spec §9: fcsr rounding-mode bits are decoded but
// not honoured by any FP operation).
func execCSR(st *State, inst *Inst) {
	old := st.readCSR(inst.CSR)
	var val uint64
	switch inst.Kind {
	case KindCSRRW:
		val = st.GetGP(inst.Rs1)
	case KindCSRRS:
		val = old | st.GetGP(inst.Rs1)
	case KindCSRRC:
		val = old &^ st.GetGP(inst.Rs1)
	case KindCSRRWI:
		val = uint64(inst.Imm)
	case KindCSRRSI:
		val = old | uint64(inst.Imm)
	case KindCSRRCI:
		val = old &^ uint64(inst.Imm)
	}
	st.writeCSR(inst.CSR, val)
	st.SetGP(inst.Rd, old)
}
