package main

import "testing"

func TestDecode_ADD(t *testing.T) {
	inst := Decode(0x00c58533) // add a0, a1, a2
	if inst.Kind != KindADD {
		t.Fatalf("Kind = %v, want KindADD", inst.Kind)
	}
	if inst.Rd != RegA0 || inst.Rs1 != RegA1 || inst.Rs2 != RegA2 {
		t.Fatalf("rd/rs1/rs2 = %d/%d/%d, want %d/%d/%d", inst.Rd, inst.Rs1, inst.Rs2, RegA0, RegA1, RegA2)
	}
	if inst.RVC {
		t.Fatal("ADD must not be marked RVC")
	}
}

func TestDecode_ADDI_NOP(t *testing.T) {
	inst := Decode(0x00000013) // addi x0, x0, 0 (canonical NOP)
	if inst.Kind != KindADDI {
		t.Fatalf("Kind = %v, want KindADDI", inst.Kind)
	}
	if inst.Imm != 0 {
		t.Fatalf("Imm = %d, want 0", inst.Imm)
	}
}

func TestDecode_JAL(t *testing.T) {
	inst := Decode(0x004000ef) // jal ra, +4
	if inst.Kind != KindJAL {
		t.Fatalf("Kind = %v, want KindJAL", inst.Kind)
	}
	if !inst.Cont {
		t.Fatal("JAL must set Cont")
	}
	if inst.Imm != 4 {
		t.Fatalf("Imm = %d, want 4", inst.Imm)
	}
}

func TestDecode_BEQ(t *testing.T) {
	inst := Decode(0x00000463) // beq x0, x0, +8
	if inst.Kind != KindBEQ {
		t.Fatalf("Kind = %v, want KindBEQ", inst.Kind)
	}
	if inst.Cont {
		t.Fatal("BEQ must not set Cont")
	}
	if inst.Imm != 8 {
		t.Fatalf("Imm = %d, want 8", inst.Imm)
	}
}

func TestDecode_CMV(t *testing.T) {
	inst := Decode(0x852e) // c.mv a0, a1
	if inst.Kind != KindADD {
		t.Fatalf("Kind = %v, want KindADD", inst.Kind)
	}
	if !inst.RVC {
		t.Fatal("C.MV must be marked RVC")
	}
	if inst.Rd != RegA0 || inst.Rs1 != RegZero || inst.Rs2 != RegA1 {
		t.Fatalf("rd/rs1/rs2 = %d/%d/%d, want %d/%d/%d", inst.Rd, inst.Rs1, inst.Rs2, RegA0, RegZero, RegA1)
	}
}

func TestDecode_CJR(t *testing.T) {
	inst := Decode(0x8282) // c.jr t0
	if inst.Kind != KindJALR {
		t.Fatalf("Kind = %v, want KindJALR", inst.Kind)
	}
	if !inst.Cont {
		t.Fatal("C.JR must set Cont")
	}
	if inst.Rd != RegZero || inst.Rs1 != RegT0 {
		t.Fatalf("rd/rs1 = %d/%d, want %d/%d", inst.Rd, inst.Rs1, RegZero, RegT0)
	}
}

func TestDecode_CSWSP(t *testing.T) {
	inst := Decode(0x0000c03e) // c.swsp a5, 0(sp)
	if inst.Kind != KindSW {
		t.Fatalf("Kind = %v, want KindSW", inst.Kind)
	}
	if !inst.RVC {
		t.Fatal("C.SWSP must be marked RVC")
	}
	if inst.Rs1 != RegSP || inst.Rs2 != RegA5 {
		t.Fatalf("rs1/rs2 = %d/%d, want %d/%d", inst.Rs1, inst.Rs2, RegSP, RegA5)
	}
	if inst.Imm != 0 {
		t.Fatalf("Imm = %d, want 0", inst.Imm)
	}
}

func TestDecode_CFSDSP(t *testing.T) {
	inst := Decode(0x0000a03e) // c.fsdsp fa5, 0(sp)
	if inst.Kind != KindFSD {
		t.Fatalf("Kind = %v, want KindFSD", inst.Kind)
	}
	if !inst.RVC {
		t.Fatal("C.FSDSP must be marked RVC")
	}
	if inst.Rs1 != RegSP || inst.Rs2 != RegA5 {
		t.Fatalf("rs1/rs2 = %d/%d, want %d/%d", inst.Rs1, inst.Rs2, RegSP, RegA5)
	}
	if inst.Imm != 0 {
		t.Fatalf("Imm = %d, want 0", inst.Imm)
	}
}

func TestDecode_Immediates(t *testing.T) {
	tests := []struct {
		name string
		word uint32
		kind Kind
		imm  int32
	}{
		{"ADDI positive", 0x06400093, KindADDI, 100},  // addi x1, x0, 100
		{"ADDI negative", 0xfff00093, KindADDI, -1},   // addi x1, x0, -1
		{"ANDI", 0x0ff17113, KindANDI, 255},            // andi x2, x2, 255
		{"SLLI", 0x00209093, KindSLLI, 2},              // slli x1, x1, 2
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := Decode(tt.word)
			if inst.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", inst.Kind, tt.kind)
			}
			if inst.Imm != tt.imm {
				t.Fatalf("Imm = %d, want %d", inst.Imm, tt.imm)
			}
		})
	}
}
