// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan locates system call instructions in ppc64le ELF files.
package scan

import (
	"debug/elf"
	"encoding/binary"
	"io"
	"os"
	"unsafe"

	"golang.org/x/arch/ppc64/ppc64asm"
	"golang.org/x/xerrors"

	"gate.computer/intercept"
	"gate.computer/intercept/encoder"
)

// Found system call instruction.
type Found struct {
	Offset       int64  // File offset.
	Addr         uint64 // Virtual address in the file's address space.
	Overwritable int
	Target       bool // The instruction is a known branch target.
}

// Text segment of an ELF file.
type Text struct {
	Path    string
	Offset  int64  // File offset of Data.
	Addr    uint64 // Virtual address of Data.
	Data    []byte
	Found   []Found
	Targets *Targets
}

// File reads the executable segment of a shared library or executable and
// finds its system call instructions.
func File(path string) (*Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}

	if ef.Machine != elf.EM_PPC64 || ef.Class != elf.ELFCLASS64 || ef.Data != elf.ELFDATA2LSB {
		return nil, xerrors.Errorf("%s: not a ppc64le ELF file (%s, %s, %s)", path, ef.Machine, ef.Class, ef.Data)
	}

	var prog *elf.Prog
	for _, p := range ef.Progs {
		if p.Type == elf.PT_LOAD && p.Flags&elf.PF_X != 0 {
			if prog != nil {
				return nil, xerrors.Errorf("%s: multiple executable segments", path)
			}
			prog = p
		}
	}
	if prog == nil {
		return nil, xerrors.Errorf("%s: no executable segment", path)
	}

	data := make([]byte, prog.Filesz)
	if _, err := io.ReadFull(prog.Open(), data); err != nil {
		return nil, xerrors.Errorf("%s: reading text: %w", path, err)
	}

	t := &Text{
		Path:   path,
		Offset: int64(prog.Off),
		Addr:   prog.Vaddr,
		Data:   data,
	}
	t.Found, t.Targets = Code(data, prog.Vaddr)
	for i := range t.Found {
		t.Found[i].Offset += t.Offset
	}
	return t, nil
}

// Code finds the system call instructions of ppc64le machine code located at
// addr.  Found offsets are relative to the start of code.  The targets of
// relative and absolute branches are collected.
func Code(code []byte, addr uint64) (found []Found, targets *Targets) {
	targets = new(Targets)

	for offset := 0; offset+encoder.InsnSize <= len(code); {
		inst, err := ppc64asm.Decode(code[offset:], binary.LittleEndian)
		if err != nil || inst.Len == 0 {
			offset += encoder.InsnSize
			continue
		}

		pc := addr + uint64(offset)

		if inst.Op == ppc64asm.SC {
			found = append(found, Found{
				Offset:       int64(offset),
				Addr:         pc,
				Overwritable: encoder.SyscallSize,
			})
		}

		for _, arg := range inst.Args {
			switch a := arg.(type) {
			case ppc64asm.PCRel:
				targets.add(uint64(int64(pc) + int64(a)))

			case ppc64asm.Label:
				targets.add(uint64(a))
			}
		}

		offset += inst.Len
	}

	for i := range found {
		found[i].Target = targets.IsTarget(uintptr(found[i].Addr))
	}
	return
}

// Image describes text which has been loaded at mem.  mem must have the
// same contents as t.Data.
func (t *Text) Image(mem []byte) *intercept.Image {
	start := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))

	img := &intercept.Image{
		Path:      t.Path,
		Base:      start - uintptr(t.Addr),
		TextStart: start,
		TextEnd:   start + uintptr(len(mem)),
		Marker:    t.Targets.Relocated(start - uintptr(t.Addr)),
	}

	for _, f := range t.Found {
		img.Sites = append(img.Sites, &intercept.Site{
			SyscallAddr:   start + uintptr(f.Addr-t.Addr),
			SyscallOffset: f.Offset,
			Overwritable:  f.Overwritable,
		})
	}

	return img
}
