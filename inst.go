// inst.go - decoded instruction record (spec §3 "Decoded instruction").
//
// Kind is a flat enum dispatched by a switch in the interpreter and the
// source emitter, in the teacher's data-oriented style (cpu_ie64.go's
// opcode switch) rather than an interface-per-opcode hierarchy.
package main

import "fmt"

// Kind identifies the semantic operation of a decoded instruction. RVC
// (compressed) encodings never get their own Kind: the decoder expands
// them to the base-ISA Kind they denote and sets Inst.RVC, per spec §4.2.
type Kind uint16

const (
	KindInvalid Kind = iota

	// RV64I: upper immediate / control transfer.
	KindLUI   // also C.LUI
	KindAUIPC
	KindJAL  // also C.J, C.JAL (RV32 only; absent here)
	KindJALR // also C.JR, C.JALR

	// RV64I: branches.
	KindBEQ // also C.BEQZ
	KindBNE // also C.BNEZ
	KindBLT
	KindBGE
	KindBLTU
	KindBGEU

	// RV64I: loads.
	KindLB
	KindLH
	KindLW // also C.LW, C.LWSP
	KindLBU
	KindLHU
	KindLWU
	KindLD // also C.LD, C.LDSP

	// RV64I: stores.
	KindSB
	KindSH
	KindSW // also C.SW, C.SWSP
	KindSD // also C.SD, C.SDSP

	// RV64I: immediate ALU.
	KindADDI // also C.ADDI, C.ADDI4SPN, C.ADDI16SP, C.NOP, C.LI
	KindSLTI
	KindSLTIU
	KindXORI
	KindORI
	KindANDI // also C.ANDI
	KindSLLI // also C.SLLI
	KindSRLI // also C.SRLI
	KindSRAI // also C.SRAI

	// RV64I: register ALU.
	KindADD // also C.ADD, C.MV
	KindSUB // also C.SUB
	KindSLL
	KindSLT
	KindSLTU
	KindXOR // also C.XOR
	KindSRL
	KindSRA
	KindOR // also C.OR
	KindAND // also C.AND

	// RV64I: 32-bit immediate/register ALU (word ops).
	KindADDIW // also C.ADDIW
	KindSLLIW
	KindSRLIW
	KindSRAIW
	KindADDW // also C.ADDW
	KindSUBW // also C.SUBW
	KindSLLW
	KindSRLW
	KindSRAW

	// RV64I: fences and environment calls.
	KindFENCE
	KindFENCEI
	KindECALL
	KindEBREAK // also C.EBREAK

	// Zicsr.
	KindCSRRW
	KindCSRRS
	KindCSRRC
	KindCSRRWI
	KindCSRRSI
	KindCSRRCI

	// M extension.
	KindMUL
	KindMULH
	KindMULHSU
	KindMULHU
	KindDIV
	KindDIVU
	KindREM
	KindREMU
	KindMULW
	KindDIVW
	KindDIVUW
	KindREMW
	KindREMUW

	// F extension (single precision).
	KindFLW // also C.FLWSP (RV32 only; absent here)
	KindFSW
	KindFMADDS
	KindFMSUBS
	KindFNMSUBS
	KindFNMADDS
	KindFADDS
	KindFSUBS
	KindFMULS
	KindFDIVS
	KindFSQRTS
	KindFSGNJS
	KindFSGNJNS
	KindFSGNJXS
	KindFMINS
	KindFMAXS
	KindFCVTWS
	KindFCVTWUS
	KindFMVXW
	KindFEQS
	KindFLTS
	KindFLES
	KindFCLASSS
	KindFCVTSW
	KindFCVTSWU
	KindFMVWX
	KindFCVTLS
	KindFCVTLUS
	KindFCVTSL
	KindFCVTSLU

	// D extension (double precision).
	KindFLD // also C.FLD, C.FLDSP
	KindFSD // also C.FSD, C.FSDSP
	KindFMADDD
	KindFMSUBD
	KindFNMSUBD
	KindFNMADDD
	KindFADDD
	KindFSUBD
	KindFMULD
	KindFDIVD
	KindFSQRTD
	KindFSGNJD
	KindFSGNJND
	KindFSGNJXD
	KindFMIND
	KindFMAXD
	KindFCVTSD
	KindFCVTDS
	KindFEQD
	KindFLTD
	KindFLED
	KindFCLASSD
	KindFCVTWD
	KindFCVTWUD
	KindFCVTDW
	KindFCVTDWU
	KindFCVTLD
	KindFCVTLUD
	KindFMVXD
	KindFCVTDL
	KindFCVTDLU
	KindFMVDX

	numKinds
)

// Inst is a decoded instruction record (spec §3). Rd/Rs1/Rs2/Rs3 default
// to x0 when a Kind doesn't use them; only the switch in interp.go/emit.go
// that knows which operands a given Kind reads or writes gives them
// meaning. Imm is sign-extended to int32 at decode time per the field's
// format (spec §4.2); callers needing 64-bit immediates sign-extend Imm
// themselves.
type Inst struct {
	Kind Kind
	Rd   int8
	Rs1  int8
	Rs2  int8
	Rs3  int8
	Imm  int32
	CSR  uint16 // 12-bit CSR index
	RVC  bool   // was encoded as a 16-bit compressed instruction
	Cont bool   // terminates a translation region (spec §3, §4.5)
}

// String renders an instruction for fatal diagnostics, e.g. "kind=31
// rd=a0 rs1=a1 rs2=a2 rs3=zero" for add a0, a1, a2. rd is omitted when it's x0 (every Kind that
// doesn't write a register leaves Rd at its zero value); rs1-rs3 are
// always shown even when a Kind doesn't read them, since Inst has no
// per-field "absent" marker distinct from x0.
func (inst Inst) String() string {
	s := fmt.Sprintf("kind=%d", inst.Kind)
	if inst.Rd != RegZero {
		s += " rd=" + regName(inst.Rd)
	}
	s += " rs1=" + regName(inst.Rs1)
	s += " rs2=" + regName(inst.Rs2)
	s += " rs3=" + regName(inst.Rs3)
	return s
}
