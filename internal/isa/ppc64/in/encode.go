// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

// Reg is a general-purpose register number.
type Reg uint32

const (
	R0  = Reg(0)
	R1  = Reg(1) // stack pointer
	R2  = Reg(2) // TOC pointer
	R3  = Reg(3)
	R11 = Reg(11)
	R12 = Reg(12) // global entry point address
	R15 = Reg(15)
)

// Special-purpose register numbers.
const (
	LR  = uint32(8)
	CTR = uint32(9)
)

func Int26(i int32) uint32   { return uint32(i) & 0x3fffffc }
func Uint16(i uint64) uint32 { return uint32(i) & 0xffff }
func Int16DS(i int16) uint32 { return uint32(uint16(i)) & 0xfffc }

// Primary returns the primary opcode field (bits 0-5) of an instruction.
func Primary(insn uint32) uint32 {
	return insn >> 26
}

// Imm16 extracts the low 16-bit immediate field of a D-form instruction.
func Imm16(insn uint32) uint16 {
	return uint16(insn)
}

// WithImm16 replaces the immediate field of a D-form instruction.
func WithImm16(insn uint32, imm uint16) uint32 {
	return insn&^0xffff | uint32(imm)
}

type (
	Imm24     uint32 // I-form
	RegRegImm uint32 // D-form
	RegRegDS  uint32 // DS-form
	RegRegMD  uint32 // MD-form
	RegSPR    uint32 // XFX-form
	Plain     uint32
)

func (op Imm24) LI(disp int32) uint32 {
	return uint32(op) | Int26(disp)
}

// RtRaI16 encodes the register in bits 6-10 and 11-15.  Arithmetic forms
// name them RT and RA; logical forms (ori, oris) name them RS and RA, so the
// source register comes first for those.
func (op RegRegImm) RtRaI16(rt, ra Reg, imm uint32) uint32 {
	return uint32(op) | uint32(rt)<<21 | uint32(ra)<<16 | imm
}

func (op RegRegDS) RtRaDS(rt, ra Reg, ds int16) uint32 {
	return uint32(op) | uint32(rt)<<21 | uint32(ra)<<16 | Int16DS(ds)
}

// RaRsShMe encodes a rotate with a 6-bit shift and mask end.  Both 6-bit
// fields are split; the high bit goes elsewhere.
func (op RegRegMD) RaRsShMe(ra, rs Reg, sh, me uint32) uint32 {
	me = (me&0x1f)<<1 | me>>5&1
	return uint32(op) | uint32(rs)<<21 | uint32(ra)<<16 | (sh&0x1f)<<11 | me<<5 | (sh>>5&1)<<1
}

// RtSPR encodes the 10-bit SPR field with its halves swapped.
func (op RegSPR) RtSPR(rt Reg, spr uint32) uint32 {
	return uint32(op) | uint32(rt)<<21 | (spr&0x1f)<<16 | (spr>>5&0x1f)<<11
}

func (op Plain) Word() uint32 {
	return uint32(op)
}
