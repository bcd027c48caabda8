// interp_fp.go - floating-point helpers for the interpreter (spec §4.4);
// emit.go carries its own C counterparts in codegenPrologue. mulh/mulhsu/fsgnj/fclass all mirror
// original_source/include/interp_util.h bit for bit; Go's math/bits
// replaces the manual 64x64 widening multiply the C header hand-rolls.
package main

import (
	"math"
	"math/bits"
)

func mulh(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(absInt64(a)), uint64(absInt64(b)))
	negate := (a < 0) != (b < 0)
	if !negate {
		return int64(hi)
	}
	if a*b == 0 {
		return ^int64(hi) + 1
	}
	return ^int64(hi)
}

func mulhsu(a int64, b uint64) int64 {
	hi, _ := bits.Mul64(uint64(absInt64(a)), b)
	if a >= 0 {
		return int64(hi)
	}
	if a*int64(b) == 0 {
		return ^int64(hi) + 1
	}
	return ^int64(hi)
}

func mulhu(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

const f32Sign uint32 = 1 << 31
const f64Sign uint64 = 1 << 63

// fsgnj32/fsgnj64 implement FSGNJ.S/FSGNJN.S/FSGNJX.S (n, x selecting the
// plain/negate/xor variant) and their double-precision counterparts.
func fsgnj32(a, b uint32, n, x bool) uint32 {
	v := uint32(0)
	switch {
	case x:
		v = a
	case n:
		v = f32Sign
	}
	return (a &^ f32Sign) | ((v ^ b) & f32Sign)
}

func fsgnj64(a, b uint64, n, x bool) uint64 {
	v := uint64(0)
	switch {
	case x:
		v = a
	case n:
		v = f64Sign
	}
	return (a &^ f64Sign) | ((v ^ b) & f64Sign)
}

// fclass32/fclass64 implement FCLASS.S/FCLASS.D's 10-bit classification
// mask (bit i set means the value belongs to class i per the RISC-V
// manual's table: neg-inf, neg-normal, neg-subnormal, neg-zero, pos-zero,
// pos-subnormal, pos-normal, pos-inf, signaling-NaN, quiet-NaN).
func fclass32(bits32 uint32) uint16 {
	sign := bits32>>31 != 0
	exp := (bits32 >> 23) & 0xFF
	frac := bits32 & 0x007FFFFF
	infOrNaN := exp == 0xFF
	subnormalOrZero := exp == 0
	fracZero := frac == 0
	isNaN := infOrNaN && !fracZero
	isSNaN := isNaN && frac&0x00400000 == 0

	return b2u16(sign && infOrNaN && fracZero)<<0 |
		b2u16(sign && !infOrNaN && !subnormalOrZero)<<1 |
		b2u16(sign && subnormalOrZero && !fracZero)<<2 |
		b2u16(sign && subnormalOrZero && fracZero)<<3 |
		b2u16(!sign && subnormalOrZero && fracZero)<<4 |
		b2u16(!sign && subnormalOrZero && !fracZero)<<5 |
		b2u16(!sign && !infOrNaN && !subnormalOrZero)<<6 |
		b2u16(!sign && infOrNaN && fracZero)<<7 |
		b2u16(isNaN && isSNaN)<<8 |
		b2u16(isNaN && !isSNaN)<<9
}

func fclass64(bits64 uint64) uint16 {
	sign := bits64>>63 != 0
	exp := (bits64 >> 52) & 0x7FF
	frac := bits64 & 0x000FFFFFFFFFFFFF
	infOrNaN := exp == 0x7FF
	subnormalOrZero := exp == 0
	fracZero := frac == 0
	isNaN := infOrNaN && !fracZero
	isSNaN := isNaN && frac&0x0008000000000000 == 0

	return b2u16(sign && infOrNaN && fracZero)<<0 |
		b2u16(sign && !infOrNaN && !subnormalOrZero)<<1 |
		b2u16(sign && subnormalOrZero && !fracZero)<<2 |
		b2u16(sign && subnormalOrZero && fracZero)<<3 |
		b2u16(!sign && subnormalOrZero && fracZero)<<4 |
		b2u16(!sign && subnormalOrZero && !fracZero)<<5 |
		b2u16(!sign && !infOrNaN && !subnormalOrZero)<<6 |
		b2u16(!sign && infOrNaN && fracZero)<<7 |
		b2u16(isNaN && isSNaN)<<8 |
		b2u16(isNaN && !isSNaN)<<9
}

func b2u16(v bool) uint16 {
	if v {
		return 1
	}
	return 0
}

// execFP handles every F/D-extension Kind interp.execOne's main switch
// doesn't, falling through to a fatal error for anything that isn't a
// recognized instruction (an illegal encoding should have been caught at
// decode time, so reaching it here is an interpreter bug, not bad input).
func (mc *Machine) execFP(inst *Inst) {
	st := mc.State

	switch inst.Kind {
	case KindFLW:
		bits32 := mc.load32(inst, st)
		st.SetFP(inst.Rd, 0xFFFFFFFF00000000|uint64(bits32))
	case KindFLD:
		st.SetFP(inst.Rd, mc.load64(inst, st))
	case KindFSW:
		mc.store32(inst, st, uint32(st.GetFP(inst.Rs2)))
	case KindFSD:
		mc.store64(inst, st, st.GetFP(inst.Rs2))

	case KindFMADDS:
		st.SetFPSingle(inst.Rd, st.GetFPSingle(inst.Rs1)*st.GetFPSingle(inst.Rs2)+st.GetFPSingle(inst.Rs3))
	case KindFMSUBS:
		st.SetFPSingle(inst.Rd, st.GetFPSingle(inst.Rs1)*st.GetFPSingle(inst.Rs2)-st.GetFPSingle(inst.Rs3))
	case KindFNMSUBS:
		st.SetFPSingle(inst.Rd, -(st.GetFPSingle(inst.Rs1)*st.GetFPSingle(inst.Rs2))+st.GetFPSingle(inst.Rs3))
	case KindFNMADDS:
		st.SetFPSingle(inst.Rd, -(st.GetFPSingle(inst.Rs1)*st.GetFPSingle(inst.Rs2))-st.GetFPSingle(inst.Rs3))
	case KindFMADDD:
		st.SetFPDouble(inst.Rd, st.GetFPDouble(inst.Rs1)*st.GetFPDouble(inst.Rs2)+st.GetFPDouble(inst.Rs3))
	case KindFMSUBD:
		st.SetFPDouble(inst.Rd, st.GetFPDouble(inst.Rs1)*st.GetFPDouble(inst.Rs2)-st.GetFPDouble(inst.Rs3))
	case KindFNMSUBD:
		st.SetFPDouble(inst.Rd, -(st.GetFPDouble(inst.Rs1)*st.GetFPDouble(inst.Rs2))+st.GetFPDouble(inst.Rs3))
	case KindFNMADDD:
		st.SetFPDouble(inst.Rd, -(st.GetFPDouble(inst.Rs1)*st.GetFPDouble(inst.Rs2))-st.GetFPDouble(inst.Rs3))

	case KindFADDS:
		st.SetFPSingle(inst.Rd, st.GetFPSingle(inst.Rs1)+st.GetFPSingle(inst.Rs2))
	case KindFSUBS:
		st.SetFPSingle(inst.Rd, st.GetFPSingle(inst.Rs1)-st.GetFPSingle(inst.Rs2))
	case KindFMULS:
		st.SetFPSingle(inst.Rd, st.GetFPSingle(inst.Rs1)*st.GetFPSingle(inst.Rs2))
	case KindFDIVS:
		st.SetFPSingle(inst.Rd, st.GetFPSingle(inst.Rs1)/st.GetFPSingle(inst.Rs2))
	case KindFSQRTS:
		st.SetFPSingle(inst.Rd, float32(math.Sqrt(float64(st.GetFPSingle(inst.Rs1)))))

	case KindFADDD:
		st.SetFPDouble(inst.Rd, st.GetFPDouble(inst.Rs1)+st.GetFPDouble(inst.Rs2))
	case KindFSUBD:
		st.SetFPDouble(inst.Rd, st.GetFPDouble(inst.Rs1)-st.GetFPDouble(inst.Rs2))
	case KindFMULD:
		st.SetFPDouble(inst.Rd, st.GetFPDouble(inst.Rs1)*st.GetFPDouble(inst.Rs2))
	case KindFDIVD:
		st.SetFPDouble(inst.Rd, st.GetFPDouble(inst.Rs1)/st.GetFPDouble(inst.Rs2))
	case KindFSQRTD:
		st.SetFPDouble(inst.Rd, math.Sqrt(st.GetFPDouble(inst.Rs1)))

	case KindFSGNJS:
		st.SetFP(inst.Rd, 0xFFFFFFFF00000000|uint64(fsgnj32(uint32(st.GetFP(inst.Rs1)), uint32(st.GetFP(inst.Rs2)), false, false)))
	case KindFSGNJNS:
		st.SetFP(inst.Rd, 0xFFFFFFFF00000000|uint64(fsgnj32(uint32(st.GetFP(inst.Rs1)), uint32(st.GetFP(inst.Rs2)), true, false)))
	case KindFSGNJXS:
		st.SetFP(inst.Rd, 0xFFFFFFFF00000000|uint64(fsgnj32(uint32(st.GetFP(inst.Rs1)), uint32(st.GetFP(inst.Rs2)), false, true)))
	case KindFSGNJD:
		st.SetFP(inst.Rd, fsgnj64(st.GetFP(inst.Rs1), st.GetFP(inst.Rs2), false, false))
	case KindFSGNJND:
		st.SetFP(inst.Rd, fsgnj64(st.GetFP(inst.Rs1), st.GetFP(inst.Rs2), true, false))
	case KindFSGNJXD:
		st.SetFP(inst.Rd, fsgnj64(st.GetFP(inst.Rs1), st.GetFP(inst.Rs2), false, true))

	case KindFMINS:
		st.SetFPSingle(inst.Rd, fmin32(st.GetFPSingle(inst.Rs1), st.GetFPSingle(inst.Rs2)))
	case KindFMAXS:
		st.SetFPSingle(inst.Rd, fmax32(st.GetFPSingle(inst.Rs1), st.GetFPSingle(inst.Rs2)))
	case KindFMIND:
		st.SetFPDouble(inst.Rd, fmin64(st.GetFPDouble(inst.Rs1), st.GetFPDouble(inst.Rs2)))
	case KindFMAXD:
		st.SetFPDouble(inst.Rd, fmax64(st.GetFPDouble(inst.Rs1), st.GetFPDouble(inst.Rs2)))

	case KindFCVTSD:
		st.SetFPSingle(inst.Rd, float32(st.GetFPDouble(inst.Rs1)))
	case KindFCVTDS:
		st.SetFPDouble(inst.Rd, float64(st.GetFPSingle(inst.Rs1)))

	case KindFEQS:
		st.SetGP(inst.Rd, b2u64(st.GetFPSingle(inst.Rs1) == st.GetFPSingle(inst.Rs2)))
	case KindFLTS:
		st.SetGP(inst.Rd, b2u64(st.GetFPSingle(inst.Rs1) < st.GetFPSingle(inst.Rs2)))
	case KindFLES:
		st.SetGP(inst.Rd, b2u64(st.GetFPSingle(inst.Rs1) <= st.GetFPSingle(inst.Rs2)))
	case KindFEQD:
		st.SetGP(inst.Rd, b2u64(st.GetFPDouble(inst.Rs1) == st.GetFPDouble(inst.Rs2)))
	case KindFLTD:
		st.SetGP(inst.Rd, b2u64(st.GetFPDouble(inst.Rs1) < st.GetFPDouble(inst.Rs2)))
	case KindFLED:
		st.SetGP(inst.Rd, b2u64(st.GetFPDouble(inst.Rs1) <= st.GetFPDouble(inst.Rs2)))

	case KindFCLASSS:
		st.SetGP(inst.Rd, uint64(fclass32(uint32(st.GetFP(inst.Rs1)))))
	case KindFCLASSD:
		st.SetGP(inst.Rd, uint64(fclass64(st.GetFP(inst.Rs1))))

	case KindFCVTWS:
		st.SetGP(inst.Rd, uint64(int64(int32(st.GetFPSingle(inst.Rs1)))))
	case KindFCVTWUS:
		st.SetGP(inst.Rd, uint64(int64(int32(uint32(st.GetFPSingle(inst.Rs1))))))
	case KindFCVTLS:
		st.SetGP(inst.Rd, uint64(int64(st.GetFPSingle(inst.Rs1))))
	case KindFCVTLUS:
		st.SetGP(inst.Rd, uint64(st.GetFPSingle(inst.Rs1)))
	case KindFCVTWD:
		st.SetGP(inst.Rd, uint64(int64(int32(st.GetFPDouble(inst.Rs1)))))
	case KindFCVTWUD:
		st.SetGP(inst.Rd, uint64(int64(int32(uint32(st.GetFPDouble(inst.Rs1))))))
	case KindFCVTLD:
		st.SetGP(inst.Rd, uint64(int64(st.GetFPDouble(inst.Rs1))))
	case KindFCVTLUD:
		st.SetGP(inst.Rd, uint64(st.GetFPDouble(inst.Rs1)))

	case KindFCVTSW:
		st.SetFPSingle(inst.Rd, float32(int32(st.GetGP(inst.Rs1))))
	case KindFCVTSWU:
		st.SetFPSingle(inst.Rd, float32(uint32(st.GetGP(inst.Rs1))))
	case KindFCVTSL:
		st.SetFPSingle(inst.Rd, float32(int64(st.GetGP(inst.Rs1))))
	case KindFCVTSLU:
		st.SetFPSingle(inst.Rd, float32(st.GetGP(inst.Rs1)))
	case KindFCVTDW:
		st.SetFPDouble(inst.Rd, float64(int32(st.GetGP(inst.Rs1))))
	case KindFCVTDWU:
		st.SetFPDouble(inst.Rd, float64(uint32(st.GetGP(inst.Rs1))))
	case KindFCVTDL:
		st.SetFPDouble(inst.Rd, float64(int64(st.GetGP(inst.Rs1))))
	case KindFCVTDLU:
		st.SetFPDouble(inst.Rd, float64(st.GetGP(inst.Rs1)))

	case KindFMVXW:
		st.SetGP(inst.Rd, uint64(int64(int32(uint32(st.GetFP(inst.Rs1))))))
	case KindFMVXD:
		st.SetGP(inst.Rd, st.GetFP(inst.Rs1))
	case KindFMVWX:
		st.SetFP(inst.Rd, 0xFFFFFFFF00000000|(st.GetGP(inst.Rs1)&0xFFFFFFFF))
	case KindFMVDX:
		st.SetFP(inst.Rd, st.GetGP(inst.Rs1))

	default:
		fatalf("interp: unimplemented instruction %s", inst)
	}
}

func fmin32(a, b float32) float32 {
	return float32(math.Min(float64(a), float64(b)))
}
func fmax32(a, b float32) float32 {
	return float32(math.Max(float64(a), float64(b)))
}
func fmin64(a, b float64) float64 { return math.Min(a, b) }
func fmax64(a, b float64) float64 { return math.Max(a, b) }
