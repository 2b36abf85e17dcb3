// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encoder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/arch/ppc64/ppc64asm"
)

func decode(t *testing.T, b []byte) ppc64asm.Inst {
	t.Helper()

	inst, err := ppc64asm.Decode(b[:InsnSize], ByteOrder)
	if err != nil {
		t.Fatalf("decode % x: %v", b[:InsnSize], err)
	}
	return inst
}

// branchTarget follows a decoded b or ba instruction located at pc.
func branchTarget(t *testing.T, inst ppc64asm.Inst, pc uintptr) uintptr {
	t.Helper()

	switch inst.Op {
	case ppc64asm.B:
		return pc + uintptr(int64(inst.Args[0].(ppc64asm.PCRel)))

	case ppc64asm.BA:
		return uintptr(inst.Args[0].(ppc64asm.Label))

	default:
		t.Fatalf("not a branch: %v", inst)
		return 0
	}
}

func TestFitsShortBranch(t *testing.T) {
	const from = uintptr(0x7fff00000000)

	for _, x := range []struct {
		delta int64
		fits  bool
	}{
		{0, true},
		{4, true},
		{-4, true},
		{branchReach - 4, true},
		{branchReach, false},
		{-branchReach, true},
		{-branchReach - 4, false},
		{2, false},
		{-branchReach + 1, false},
		{1 << 40, false},
		{-1 << 40, false},
	} {
		if FitsShortBranch(from, uintptr(int64(from)+x.delta)) != x.fits {
			t.Errorf("delta %#x: expected fits=%v", x.delta, x.fits)
		}
	}
}

func TestShortBranchReach(t *testing.T) {
	const from = uintptr(0x3ffff0000000)

	for _, delta := range []int64{0, 4, -4, 0x1000, -0x1000, branchReach - 4, -branchReach} {
		to := uintptr(int64(from) + delta)
		if !FitsShortBranch(from, to) {
			t.Fatalf("delta %#x", delta)
		}

		b := make([]byte, ShortBranchSize)
		PutShortBranch(b, from, to)

		if target := branchTarget(t, decode(t, b), from); target != to {
			t.Errorf("delta %#x: branch to %#x instead of %#x", delta, target, to)
		}
	}
}

func TestAbsoluteBranch(t *testing.T) {
	low := int64(-branchReach)
	for _, to := range []uintptr{^uintptr(0) - 3, uintptr(low)} {
		if !FitsAbsoluteBranch(to) {
			t.Errorf("%#x", to)
		}
	}

	for _, to := range []uintptr{0, 0x1000, branchReach - 4} {
		if !FitsAbsoluteBranch(to) {
			t.Fatalf("%#x", to)
		}

		b := make([]byte, AbsoluteBranchSize)
		PutAbsoluteBranch(b, to)

		inst := decode(t, b)
		if inst.Op != ppc64asm.BA {
			t.Fatalf("%#x: %v", to, inst)
		}
		if target := branchTarget(t, inst, 0x7fff00000000); target != to {
			t.Errorf("branch to %#x instead of %#x", target, to)
		}
	}

	for _, to := range []uintptr{branchReach, 0x7fff00000000, 0x1002} {
		if FitsAbsoluteBranch(to) {
			t.Errorf("%#x", to)
		}
	}
}

func TestLongBranch(t *testing.T) {
	b := make([]byte, LongBranchSize)
	PutLongBranch(b, 0x0123456789abcdef)

	var words []uint32
	for i := 0; i < len(b); i += InsnSize {
		words = append(words, Insn(b[i:]))
	}

	expect := []uint32{
		0xf9e1fed8, // std r15,-296(r1)
		0x3de00123, // lis r15,0x123
		0x61ef4567, // ori r15,r15,0x4567
		0x79ef07c6, // sldi r15,r15,32
		0x65ef89ab, // oris r15,r15,0x89ab
		0x61efcdef, // ori r15,r15,0xcdef
		0x7de903a6, // mtctr r15
		0xe9e1fed8, // ld r15,-296(r1)
		0x4e800420, // bctr
	}

	if diff := cmp.Diff(expect, words); diff != "" {
		t.Error(diff)
	}

	for i := 0; i < len(b); i += InsnSize {
		if _, err := ppc64asm.Decode(b[i:i+InsnSize], ByteOrder); err != nil {
			t.Errorf("word %d: %v", i/InsnSize, err)
		}
	}

	if inst := decode(t, b[32:]); inst.Op != ppc64asm.BCCTR {
		t.Errorf("last instruction: %v", inst)
	}

	for _, i := range []int{0, 28} {
		inst := decode(t, b[i:])
		if mem, ok := inst.Args[1].(ppc64asm.Offset); !ok || int(mem) > -ProtectedZone-8 {
			t.Errorf("word %d accesses %v inside the protected zone", i/InsnSize, inst.Args[1])
		}
	}
}

func TestLoadImmediate(t *testing.T) {
	values := []uint64{0, 1, 0xffff, 0x8000, 0x80000000, 0x7fffffffffff, 0xffffffffffffffff, 0x8000000000000000, 0x00007fffdeadbeef}

	for _, value := range values {
		b := make([]byte, LoadImmediateSize)
		PutLoadImmediate(b, 11, value)

		if got, ok := LoadedImmediate(b); !ok || got != value {
			t.Errorf("%#x: loaded %#x", value, got)
		}
		if got := simulateLoad(b); got != value {
			t.Errorf("%#x: simulated %#x", value, got)
		}
	}
}

func TestPatchImmediate(t *testing.T) {
	b := make([]byte, LoadImmediateSize)
	PutLoadImmediate(b, 12, 0)

	orig := make([]uint32, 5)
	for i := range orig {
		orig[i] = Insn(b[i*InsnSize:])
	}

	PatchImmediate(b, 0xfedcba9876543210)

	if got, _ := LoadedImmediate(b); got != 0xfedcba9876543210 {
		t.Errorf("%#x", got)
	}
	if got := simulateLoad(b); got != 0xfedcba9876543210 {
		t.Errorf("simulated %#x", got)
	}

	for i := range orig {
		if Insn(b[i*InsnSize:])&^0xffff != orig[i]&^0xffff {
			t.Errorf("word %d opcode bits changed: %08x -> %08x", i, orig[i], Insn(b[i*InsnSize:]))
		}
	}
	if Insn(b[8:]) != orig[2] {
		t.Error("shift instruction changed")
	}
}

func TestPatchImmediateNotLoad(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic")
		}
	}()

	b := make([]byte, LoadImmediateSize)
	PutTrap(b)
	PatchImmediate(b, 1)
}

func TestTrap(t *testing.T) {
	b := make([]byte, 10)
	for i := range b {
		b[i] = 0xaa
	}

	PutTrap(b)

	for i := 0; i < 8; i += InsnSize {
		if inst := decode(t, b[i:]); inst.Op != ppc64asm.TW {
			t.Errorf("offset %d: %v", i, inst)
		}
	}
	if b[8] != 0 || b[9] != 0 {
		t.Errorf("tail: % x", b[8:])
	}

	if !IsTrap(b) || !IsTrap(b[4:]) || IsTrap(b[8:]) {
		t.Error("IsTrap")
	}

	PutSyscall(b)
	if IsTrap(b) {
		t.Error("system call is a trap")
	}
}

func TestSyscall(t *testing.T) {
	b := make([]byte, SyscallSize)
	PutSyscall(b)

	if !IsSyscall(b) {
		t.Error(b)
	}
	if inst := decode(t, b); inst.Op != ppc64asm.SC {
		t.Error(inst)
	}
}

func FuzzShortBranch(f *testing.F) {
	f.Add(uint64(0x100000000), int64(0))
	f.Add(uint64(0x100000000), int64(branchReach-4))
	f.Add(uint64(0x100000000), int64(-branchReach))
	f.Add(uint64(0x7fff00001000), int64(branchReach))

	f.Fuzz(func(t *testing.T, base uint64, delta int64) {
		from := uintptr(base) &^ (InsnSize - 1)
		to := uintptr(int64(from) + delta)

		if !FitsShortBranch(from, to) {
			return
		}

		b := make([]byte, ShortBranchSize)
		PutShortBranch(b, from, to)

		if target := branchTarget(t, decode(t, b), from); target != to {
			t.Errorf("from %#x: branch to %#x instead of %#x", from, target, to)
		}
	})
}

// simulateLoad interprets a load immediate sequence.
func simulateLoad(b []byte) (r uint64) {
	for i := 0; i < LoadImmediateSize; i += InsnSize {
		insn := Insn(b[i:])
		imm := uint64(insn & 0xffff)

		switch insn >> 26 {
		case 15: // addis rt,0,imm
			r = uint64(int64(int32(uint32(imm << 16))))
		case 24: // ori
			r |= imm
		case 25: // oris
			r |= imm << 16
		case 30: // rldicr r,r,32,31
			r = (r<<32 | r>>32) &^ 0xffffffff
		}
	}
	return
}
