// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encoder emits the control-transfer instructions used for patching
// ppc64le code.  All opcode bit knowledge is behind this package.
//
// The Put functions write into the beginning of the supplied slice, which
// must be large enough.  The caller is responsible for range checks: a short
// or absolute branch whose target doesn't fit yields a wrong target.
package encoder

import (
	"encoding/binary"
	"fmt"

	"gate.computer/intercept/internal/isa/ppc64/in"
)

// ByteOrder of instruction words.
var ByteOrder = binary.LittleEndian

const (
	InsnSize           = 4
	SyscallSize        = InsnSize // sc
	ShortBranchSize    = InsnSize // b
	AbsoluteBranchSize = InsnSize // ba
	LoadImmediateSize  = 5 * InsnSize
	LongBranchSize     = 4*InsnSize + LoadImmediateSize
	TrapSize           = InsnSize
)

// ProtectedZone is the number of bytes below the stack pointer which belong
// to the interrupted function (ELFv2).  Patch code must not write there.
const ProtectedZone = 288

// Scratch register of the long branch sequence.  It is spilled just below
// the protected zone.
const (
	scratchReg  = in.R15
	scratchSlot = -ProtectedZone - 8
)

// The LI field of the I-form is 24 bits wide, in instruction units.
const branchReach = 1 << 25

// FitsShortBranch reports if PutShortBranch can reach to from from.
func FitsShortBranch(from, to uintptr) bool {
	return fitsLI(int64(to - from))
}

// FitsAbsoluteBranch reports if PutAbsoluteBranch can reach to.
func FitsAbsoluteBranch(to uintptr) bool {
	return fitsLI(int64(to))
}

func fitsLI(n int64) bool {
	return n&(InsnSize-1) == 0 && n >= -branchReach && n < branchReach
}

// PutShortBranch writes a relative branch located at from.
func PutShortBranch(b []byte, from, to uintptr) {
	putInsn(b, in.B.LI(int32(to-from)))
}

// PutAbsoluteBranch writes a branch with the target address embedded in the
// instruction.
func PutAbsoluteBranch(b []byte, to uintptr) {
	putInsn(b, in.BA.LI(int32(to)))
}

// PutLongBranch writes a position-independent branch sequence which can
// reach any address.  Only CTR is clobbered; the link register is left
// intact.
func PutLongBranch(b []byte, to uintptr) {
	_ = b[LongBranchSize-1]

	putInsn(b[0:], in.STD.RtRaDS(scratchReg, in.R1, scratchSlot))
	PutLoadImmediate(b[4:], scratchReg, uint64(to))
	putInsn(b[24:], in.MTSPR.RtSPR(scratchReg, in.CTR))
	putInsn(b[28:], in.LD.RtRaDS(scratchReg, in.R1, scratchSlot))
	putInsn(b[32:], in.BCTR.Word())
}

// PutLoadImmediate writes a sequence which loads a 64-bit value into a
// register.
func PutLoadImmediate(b []byte, r in.Reg, value uint64) {
	_ = b[LoadImmediateSize-1]

	putInsn(b[0:], in.ADDIS.RtRaI16(r, in.R0, in.Uint16(value>>48)))
	putInsn(b[4:], in.ORI.RtRaI16(r, r, in.Uint16(value>>32)))
	putInsn(b[8:], in.RLDICR.RaRsShMe(r, r, 32, 31))
	putInsn(b[12:], in.ORIS.RtRaI16(r, r, in.Uint16(value>>16)))
	putInsn(b[16:], in.ORI.RtRaI16(r, r, in.Uint16(value)))
}

// Word offsets of the immediate fields within a load sequence, most
// significant first.
var loadImmediateWords = [4]int{0, 4, 12, 16}

var loadImmediateOps = [5]uint32{in.OpADDIS, in.OpORI, in.OpMD, in.OpORIS, in.OpORI}

// IsLoadImmediate reports if b starts with a sequence written by
// PutLoadImmediate.
func IsLoadImmediate(b []byte) bool {
	if len(b) < LoadImmediateSize {
		return false
	}
	for i, op := range loadImmediateOps {
		if in.Primary(getInsn(b[i*InsnSize:])) != op {
			return false
		}
	}
	return true
}

// PatchImmediate replaces the value of an existing load sequence.  Opcode and
// register fields are not touched.
func PatchImmediate(b []byte, value uint64) {
	if !IsLoadImmediate(b) {
		panic(fmt.Errorf("encoder: no load immediate sequence to patch: % x", b[:min(len(b), LoadImmediateSize)]))
	}

	for i, offset := range loadImmediateWords {
		shift := uint(48 - 16*i)
		putInsn(b[offset:], in.WithImm16(getInsn(b[offset:]), uint16(value>>shift)))
	}
}

// LoadedImmediate returns the value of a load sequence.
func LoadedImmediate(b []byte) (value uint64, ok bool) {
	if !IsLoadImmediate(b) {
		return
	}

	for _, offset := range loadImmediateWords {
		value = value<<16 | uint64(in.Imm16(getInsn(b[offset:])))
	}
	ok = true
	return
}

// PutTrap fills b with trap instructions.  A tail shorter than an
// instruction is zeroed, which doesn't decode as anything valid either.
func PutTrap(b []byte) {
	for len(b) >= InsnSize {
		putInsn(b, in.TRAP.Word())
		b = b[InsnSize:]
	}
	for i := range b {
		b[i] = 0
	}
}

// IsTrap reports if b starts with the trap instruction.
func IsTrap(b []byte) bool {
	return len(b) >= TrapSize && getInsn(b) == in.TRAP.Word()
}

// PutSyscall writes the system call instruction.
func PutSyscall(b []byte) {
	putInsn(b, in.SC.Word())
}

// IsSyscall reports if b starts with the system call instruction.
func IsSyscall(b []byte) bool {
	return len(b) >= SyscallSize && getInsn(b) == in.SC.Word()
}

// Insn returns the instruction word at the start of b.
func Insn(b []byte) uint32 {
	return getInsn(b)
}

func putInsn(b []byte, insn uint32) { ByteOrder.PutUint32(b, insn) }
func getInsn(b []byte) uint32       { return ByteOrder.Uint32(b) }
