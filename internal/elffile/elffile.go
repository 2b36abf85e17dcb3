// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elffile writes minimal shared object files which consist of a
// single executable segment.
package elffile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io"
)

const (
	headersSize = 64 + 56
	pageSize    = 4096
)

// File contents.  Machine defaults to ppc64.
type File struct {
	Machine  elf.Machine
	TextAddr uint64 // Should be page-aligned.
	Text     []byte
}

// TextOffset is the file offset of the text.
func (f *File) TextOffset() int64 {
	return roundSize(headersSize, pageSize)
}

// WriteTo writes the contents of a shared object.
func (f *File) WriteTo(w io.Writer) (n int64, err error) {
	var b bytes.Buffer
	f.writeTo(&b)
	m, err := w.Write(b.Bytes())
	n = int64(m)
	return
}

// Bytes of the file.
func (f *File) Bytes() []byte {
	var b bytes.Buffer
	f.writeTo(&b)
	return b.Bytes()
}

func (f *File) writeTo(b *bytes.Buffer) {
	machine := f.Machine
	if machine == elf.EM_NONE {
		machine = elf.EM_PPC64
	}

	textOffset := f.TextOffset()

	// File header
	binary.Write(b, binary.LittleEndian, elf.Header64{
		Ident: [elf.EI_NIDENT]byte{
			0:              0x7f,
			1:              'E',
			2:              'L',
			3:              'F',
			elf.EI_CLASS:   byte(elf.ELFCLASS64),
			elf.EI_DATA:    byte(elf.ELFDATA2LSB),
			elf.EI_VERSION: 1,
		},
		Type:      uint16(elf.ET_DYN),
		Machine:   uint16(machine),
		Version:   1,
		Entry:     f.TextAddr,
		Phoff:     64,
		Ehsize:    64,
		Phentsize: 56,
		Phnum:     1,
		Shentsize: 64,
	})

	// Program header #0: load text
	writeBinaryArray(b, []any{
		uint32(elf.PT_LOAD),         // type
		uint32(elf.PF_R | elf.PF_X), // flags
		uint64(textOffset),          // offset
		f.TextAddr,                  // vaddr
		f.TextAddr,                  // paddr
		uint64(len(f.Text)),         // filesz
		uint64(len(f.Text)),         // memsz
		uint64(pageSize),            // align
	})

	align(b, pageSize)

	if int64(b.Len()) != textOffset {
		panic(b.Len())
	}
	b.Write(f.Text)
}

func writeBinaryArray(b *bytes.Buffer, fields []any) {
	for _, x := range fields {
		binary.Write(b, binary.LittleEndian, x)
	}
}

func align(b *bytes.Buffer, alignment int) {
	l := int(roundSize(int64(b.Len()), int64(alignment)))
	for b.Len() < l {
		b.WriteByte(0)
	}
}

func roundSize(value, alignment int64) int64 {
	return (value + alignment - 1) &^ (alignment - 1)
}
