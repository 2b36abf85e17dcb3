// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"github.com/pkg/errors"

	"gate.computer/intercept/encoder"
)

// Dynamic is a variable-capacity buffer.  The default value is a valid buffer.
// It is used for assembling code which is copied elsewhere afterwards.
type Dynamic struct {
	buf []byte
}

// NewDynamic buffer.  The slice must be empty.
func NewDynamic(b []byte) *Dynamic {
	if len(b) != 0 {
		panic("slice must be empty")
	}
	return &Dynamic{b}
}

// Len doesn't panic.
func (d *Dynamic) Len() int {
	return len(d.buf)
}

// Bytes doesn't panic.
func (d *Dynamic) Bytes() []byte {
	return d.buf
}

// PutInsn appends an instruction word.  It doesn't panic unless out of
// memory.
func (d *Dynamic) PutInsn(insn uint32) {
	encoder.ByteOrder.PutUint32(d.Extend(encoder.InsnSize), insn)
}

// Extend doesn't panic unless out of memory.
func (d *Dynamic) Extend(addLen int) []byte {
	offset := len(d.buf)

	if size := offset + addLen; size <= cap(d.buf) {
		if size < offset { // Check for overflow
			panic(errors.New("buffer size out of range"))
		}

		d.buf = d.buf[:size]
	} else {
		d.grow(addLen)
	}

	return d.buf[offset:]
}

func (d *Dynamic) grow(addLen int) {
	newLen := len(d.buf) + addLen

	newCap := cap(d.buf)*2 + addLen
	if newCap < cap(d.buf) { // Handle overflow
		newCap = newLen
	}

	newBuf := make([]byte, newLen, newCap)
	copy(newBuf, d.buf)
	d.buf = newBuf
}
