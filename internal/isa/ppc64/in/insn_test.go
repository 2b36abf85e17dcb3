// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"testing"
)

func TestKnownEncodings(t *testing.T) {
	for _, x := range []struct {
		name   string
		insn   uint32
		expect uint32
	}{
		{"std r15,-8(r1)", STD.RtRaDS(R15, R1, -8), 0xf9e1fff8},
		{"ld r15,-8(r1)", LD.RtRaDS(R15, R1, -8), 0xe9e1fff8},
		{"stdu r1,-128(r1)", STDU.RtRaDS(R1, R1, -128), 0xf821ff81},
		{"stdu r1,-416(r1)", STDU.RtRaDS(R1, R1, -416), 0xf821fe61},
		{"std r15,-296(r1)", STD.RtRaDS(R15, R1, -296), 0xf9e1fed8},
		{"addi r1,r1,416", ADDI.RtRaI16(R1, R1, 416), 0x382101a0},
		{"std r2,48(r1)", STD.RtRaDS(R2, R1, 48), 0xf8410030},
		{"lis r15,0", ADDIS.RtRaI16(R15, R0, 0), 0x3de00000},
		{"ori r15,r15,0", ORI.RtRaI16(R15, R15, 0), 0x61ef0000},
		{"oris r15,r15,0", ORIS.RtRaI16(R15, R15, 0), 0x65ef0000},
		{"addi r1,r1,128", ADDI.RtRaI16(R1, R1, 128), 0x38210080},
		{"sldi r15,r15,32", RLDICR.RaRsShMe(R15, R15, 32, 31), 0x79ef07c6},
		{"mtctr r15", MTSPR.RtSPR(R15, CTR), 0x7de903a6},
		{"mtctr r12", MTSPR.RtSPR(R12, CTR), 0x7d8903a6},
		{"mflr r0", MFSPR.RtSPR(R0, LR), 0x7c0802a6},
		{"mtlr r0", MTSPR.RtSPR(R0, LR), 0x7c0803a6},
		{"b .+0", B.LI(0), 0x48000000},
		{"b .-4", B.LI(-4), 0x4bfffffc},
		{"ba 0x1000", BA.LI(0x1000), 0x48001002},
	} {
		if x.insn != x.expect {
			t.Errorf("%s: 0x%08x != 0x%08x", x.name, x.insn, x.expect)
		}
	}
}

func TestImm16(t *testing.T) {
	insn := ORI.RtRaI16(R15, R15, 0x1234)
	if Imm16(insn) != 0x1234 {
		t.Error(Imm16(insn))
	}

	insn = WithImm16(insn, 0xfedc)
	if insn != 0x61effedc {
		t.Errorf("0x%08x", insn)
	}
	if Primary(insn) != OpORI {
		t.Error(Primary(insn))
	}
}
