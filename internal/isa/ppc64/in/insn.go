// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package in encodes 64-bit Power ISA instruction words.
package in

const (
	B  = Imm24(0x48000000) // branch relative
	BA = Imm24(0x48000002) // branch absolute

	ADDI  = RegRegImm(0x38000000)
	ADDIS = RegRegImm(0x3c000000)
	ORI   = RegRegImm(0x60000000)
	ORIS  = RegRegImm(0x64000000)

	LD   = RegRegDS(0xe8000000)
	STD  = RegRegDS(0xf8000000)
	STDU = RegRegDS(0xf8000001)

	RLDICR = RegRegMD(0x78000004)

	MFSPR = RegSPR(0x7c0002a6)
	MTSPR = RegSPR(0x7c0003a6)

	BCTR  = Plain(0x4e800420)
	BCTRL = Plain(0x4e800421)
	SC    = Plain(0x44000002)
	TRAP  = Plain(0x7fe00008) // tw 31,0,0
	NOP   = Plain(0x60000000) // ori 0,0,0
)

// Primary opcodes.
const (
	OpBranch = 18
	OpADDI   = 14
	OpADDIS  = 15
	OpORI    = 24
	OpORIS   = 25
	OpMD     = 30
)
