// decode_rvc.go - 16-bit compressed (RVC) instruction expansion.
//
// Every compressed form expands to the Kind it denotes in the base ISA;
// Inst.RVC records that the original encoding was 16 bits so callers
// advance the guest pc by 2 instead of 4. Bit layouts and illegal-encoding
// cases follow other_examples/d2f191f4_LMMilewski-riscv-emu__rvc.go.go.
// RV32-only forms (C.JAL, C.FLWSP, C.FSWSP) do not exist in this decoder:
// this is an RV64GC-only core.
package main

// cReg expands a 3-bit compressed register field (x8-x15) to a full index.
func cReg(bits uint16) int8 {
	return int8(bits&0x7) + 8
}

func decodeRVC(word uint16) Inst {
	quadrant := word & 0x3
	funct3 := (word >> 13) & 0x7

	switch quadrant {
	case 0x0:
		return decodeRVC0(word, funct3)
	case 0x1:
		return decodeRVC1(word, funct3)
	case 0x2:
		return decodeRVC2(word, funct3)
	}
	fatalf("decode: illegal compressed quadrant (word=%#x)", word)
	panic("unreachable")
}

func decodeRVC0(word uint16, funct3 uint16) Inst {
	rdp := cReg(word >> 2)
	rs1p := cReg(word >> 7)

	switch funct3 {
	case 0x0: // C.ADDI4SPN
		imm := (word>>7)&0x30 | (word>>1)&0x3C0 | (word>>4)&0x4 | (word>>2)&0x8
		if imm == 0 {
			fatalf("decode: illegal C.ADDI4SPN with zero immediate (word=%#x)", word)
		}
		return Inst{Kind: KindADDI, Rd: rdp, Rs1: RegSP, Imm: int32(imm), RVC: true}
	case 0x1: // C.FLD
		imm := (word>>7)&0x38 | (word<<1)&0xC0
		return Inst{Kind: KindFLD, Rd: rdp, Rs1: rs1p, Imm: int32(imm), RVC: true}
	case 0x2: // C.LW
		imm := (word>>7)&0x38 | (word<<1)&0x40 | (word>>4)&0x4
		return Inst{Kind: KindLW, Rd: rdp, Rs1: rs1p, Imm: int32(imm), RVC: true}
	case 0x3: // C.LD
		imm := (word>>7)&0x38 | (word<<1)&0xC0
		return Inst{Kind: KindLD, Rd: rdp, Rs1: rs1p, Imm: int32(imm), RVC: true}
	case 0x5: // C.FSD
		imm := (word>>7)&0x38 | (word<<1)&0xC0
		return Inst{Kind: KindFSD, Rs1: rs1p, Rs2: rdp, Imm: int32(imm), RVC: true}
	case 0x6: // C.SW
		imm := (word>>7)&0x38 | (word<<1)&0x40 | (word>>4)&0x4
		return Inst{Kind: KindSW, Rs1: rs1p, Rs2: rdp, Imm: int32(imm), RVC: true}
	case 0x7: // C.SD
		imm := (word>>7)&0x38 | (word<<1)&0xC0
		return Inst{Kind: KindSD, Rs1: rs1p, Rs2: rdp, Imm: int32(imm), RVC: true}
	}
	fatalf("decode: illegal compressed quadrant-0 funct3 %#x (word=%#x)", funct3, word)
	panic("unreachable")
}

func decodeRVC1(word uint16, funct3 uint16) Inst {
	rd := int8((word >> 7) & 0x1F)

	switch funct3 {
	case 0x0: // C.ADDI / C.NOP
		imm := signExtend(uint32((word>>7)&0x20|(word>>2)&0x1F), 6)
		return Inst{Kind: KindADDI, Rd: rd, Rs1: rd, Imm: imm, RVC: true}
	case 0x1: // C.ADDIW
		if rd == 0 {
			fatalf("decode: illegal C.ADDIW with rd=0 (word=%#x)", word)
		}
		imm := signExtend(uint32((word>>7)&0x20|(word>>2)&0x1F), 6)
		return Inst{Kind: KindADDIW, Rd: rd, Rs1: rd, Imm: imm, RVC: true}
	case 0x2: // C.LI
		imm := signExtend(uint32((word>>7)&0x20|(word>>2)&0x1F), 6)
		return Inst{Kind: KindADDI, Rd: rd, Rs1: RegZero, Imm: imm, RVC: true}
	case 0x3:
		if rd == RegSP { // C.ADDI16SP
			imm := (word>>3)&0x200 | (word>>2)&0x10 | (word<<1)&0x40 |
				(word<<4)&0x180 | (word<<3)&0x20
			simm := signExtend(uint32(imm), 10)
			if simm == 0 {
				fatalf("decode: illegal C.ADDI16SP with zero immediate (word=%#x)", word)
			}
			return Inst{Kind: KindADDI, Rd: RegSP, Rs1: RegSP, Imm: simm, RVC: true}
		}
		// C.LUI
		raw := (uint32(word>>12) & 0x1) << 17
		raw |= (uint32(word>>2) & 0x1F) << 12
		simm := signExtend(raw, 18)
		if simm == 0 {
			fatalf("decode: illegal C.LUI with zero immediate (word=%#x)", word)
		}
		if rd == 0 {
			fatalf("decode: illegal C.LUI with rd=0 (word=%#x)", word)
		}
		return Inst{Kind: KindLUI, Rd: rd, Imm: simm, RVC: true}
	case 0x4:
		return decodeRVCArith(word)
	case 0x5: // C.J
		imm := cJImm(word)
		return Inst{Kind: KindJAL, Rd: RegZero, Imm: imm, RVC: true, Cont: true}
	case 0x6: // C.BEQZ
		rs1p := cReg(word >> 7)
		imm := cBImm(word)
		return Inst{Kind: KindBEQ, Rs1: rs1p, Rs2: RegZero, Imm: imm, RVC: true}
	case 0x7: // C.BNEZ
		rs1p := cReg(word >> 7)
		imm := cBImm(word)
		return Inst{Kind: KindBNE, Rs1: rs1p, Rs2: RegZero, Imm: imm, RVC: true}
	}
	fatalf("decode: illegal compressed quadrant-1 funct3 %#x (word=%#x)", funct3, word)
	panic("unreachable")
}

func cJImm(word uint16) int32 {
	raw := (uint32(word>>1) & 0x800) |
		(uint32(word>>7) & 0x10) |
		(uint32(word>>1) & 0x300) |
		(uint32(word<<2) & 0x400) |
		(uint32(word>>1) & 0x40) |
		(uint32(word<<1) & 0x80) |
		(uint32(word>>2) & 0xE) |
		(uint32(word<<3) & 0x20)
	return signExtend(raw, 12)
}

func cBImm(word uint16) int32 {
	raw := (uint32(word>>4) & 0x100) |
		(uint32(word<<1) & 0xC0) |
		(uint32(word<<3) & 0x20) |
		(uint32(word>>7) & 0x18) |
		(uint32(word>>2) & 0x6)
	return signExtend(raw, 9)
}

func decodeRVCArith(word uint16) Inst {
	rdp := cReg(word >> 7)
	rs2p := cReg(word >> 2)
	funct2 := (word >> 10) & 0x3

	switch funct2 {
	case 0x0: // C.SRLI
		shamt := (word>>7)&0x20 | (word>>2)&0x1F
		return Inst{Kind: KindSRLI, Rd: rdp, Rs1: rdp, Imm: int32(shamt), RVC: true}
	case 0x1: // C.SRAI
		shamt := (word>>7)&0x20 | (word>>2)&0x1F
		return Inst{Kind: KindSRAI, Rd: rdp, Rs1: rdp, Imm: int32(shamt), RVC: true}
	case 0x2: // C.ANDI
		imm := signExtend(uint32((word>>7)&0x20|(word>>2)&0x1F), 6)
		return Inst{Kind: KindANDI, Rd: rdp, Rs1: rdp, Imm: imm, RVC: true}
	case 0x3:
		funct2b := (word >> 5) & 0x3
		if word&0x1000 == 0 {
			switch funct2b {
			case 0x0:
				return Inst{Kind: KindSUB, Rd: rdp, Rs1: rdp, Rs2: rs2p, RVC: true}
			case 0x1:
				return Inst{Kind: KindXOR, Rd: rdp, Rs1: rdp, Rs2: rs2p, RVC: true}
			case 0x2:
				return Inst{Kind: KindOR, Rd: rdp, Rs1: rdp, Rs2: rs2p, RVC: true}
			case 0x3:
				return Inst{Kind: KindAND, Rd: rdp, Rs1: rdp, Rs2: rs2p, RVC: true}
			}
		}
		switch funct2b {
		case 0x0:
			return Inst{Kind: KindSUBW, Rd: rdp, Rs1: rdp, Rs2: rs2p, RVC: true}
		case 0x1:
			return Inst{Kind: KindADDW, Rd: rdp, Rs1: rdp, Rs2: rs2p, RVC: true}
		}
		fatalf("decode: reserved compressed arithmetic encoding (word=%#x)", word)
	}
	fatalf("decode: illegal compressed arithmetic funct2 %#x (word=%#x)", funct2, word)
	panic("unreachable")
}

func decodeRVC2(word uint16, funct3 uint16) Inst {
	rd := int8((word >> 7) & 0x1F)

	switch funct3 {
	case 0x0: // C.SLLI
		shamt := (word>>7)&0x20 | (word>>2)&0x1F
		return Inst{Kind: KindSLLI, Rd: rd, Rs1: rd, Imm: int32(shamt), RVC: true}
	case 0x1: // C.FLDSP
		imm := (word>>7)&0x20 | (word>>2)&0x18 | (word<<4)&0x1C0
		return Inst{Kind: KindFLD, Rd: rd, Rs1: RegSP, Imm: int32(imm), RVC: true}
	case 0x2: // C.LWSP
		if rd == 0 {
			fatalf("decode: illegal C.LWSP with rd=0 (word=%#x)", word)
		}
		imm := (word>>7)&0x20 | (word>>2)&0x1C | (word<<4)&0xC0
		return Inst{Kind: KindLW, Rd: rd, Rs1: RegSP, Imm: int32(imm), RVC: true}
	case 0x3: // C.LDSP
		if rd == 0 {
			fatalf("decode: illegal C.LDSP with rd=0 (word=%#x)", word)
		}
		imm := (word>>7)&0x20 | (word>>2)&0x18 | (word<<4)&0x1C0
		return Inst{Kind: KindLD, Rd: rd, Rs1: RegSP, Imm: int32(imm), RVC: true}
	case 0x4:
		rs2 := int8((word >> 2) & 0x1F)
		if word&0x1000 == 0 {
			if rs2 == 0 {
				if rd == 0 {
					fatalf("decode: illegal C.JR with rs1=0 (word=%#x)", word)
				}
				return Inst{Kind: KindJALR, Rd: RegZero, Rs1: rd, Imm: 0, RVC: true, Cont: true}
			}
			return Inst{Kind: KindADD, Rd: rd, Rs1: RegZero, Rs2: rs2, RVC: true}
		}
		if rs2 == 0 {
			if rd == 0 {
				return Inst{Kind: KindEBREAK, RVC: true, Cont: true}
			}
			return Inst{Kind: KindJALR, Rd: RegRA, Rs1: rd, Imm: 0, RVC: true, Cont: true}
		}
		return Inst{Kind: KindADD, Rd: rd, Rs1: rd, Rs2: rs2, RVC: true}
	case 0x5: // C.FSDSP
		imm := (word>>7)&0x38 | (word>>1)&0x1C0
		rs2 := int8((word >> 2) & 0x1F)
		return Inst{Kind: KindFSD, Rs1: RegSP, Rs2: rs2, Imm: int32(imm), RVC: true}
	case 0x6: // C.SWSP
		imm := (word>>7)&0x3C | (word>>1)&0xC0
		rs2 := int8((word >> 2) & 0x1F)
		return Inst{Kind: KindSW, Rs1: RegSP, Rs2: rs2, Imm: int32(imm), RVC: true}
	case 0x7: // C.SDSP
		imm := (word>>7)&0x38 | (word>>1)&0x1C0
		rs2 := int8((word >> 2) & 0x1F)
		return Inst{Kind: KindSD, Rs1: RegSP, Rs2: rs2, Imm: int32(imm), RVC: true}
	}
	fatalf("decode: illegal compressed quadrant-2 funct3 %#x (word=%#x)", funct3, word)
	panic("unreachable")
}
