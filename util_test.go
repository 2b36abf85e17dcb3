// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"gate.computer/intercept/encoder"
)

func testLogger(t *testing.T) logrus.FieldLogger {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	if testing.Verbose() {
		log.SetOutput(testWriter{t})
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(b []byte) (int, error) {
	w.t.Log(string(b))
	return len(b), nil
}

// newText maps pages filled with system call instructions.
func newText(t *testing.T, pages int) []byte {
	t.Helper()

	text, err := unix.Mmap(-1, 0, pages*int(pageSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { unix.Munmap(text) })

	for i := 0; i < len(text); i += encoder.InsnSize {
		encoder.PutSyscall(text[i:])
	}

	if err := unix.Mprotect(text, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		t.Fatal(err)
	}
	return text
}

func newImage(text []byte, offsets ...int) *Image {
	start := addrOf(text)

	img := &Image{
		Path:      "libtest.so",
		Base:      start,
		TextStart: start,
		TextEnd:   start + uintptr(len(text)),
	}

	for _, off := range offsets {
		img.Sites = append(img.Sites, &Site{
			SyscallAddr:   start + uintptr(off),
			SyscallOffset: int64(off),
			Overwritable:  encoder.SyscallSize,
		})
	}

	return img
}

// preparedImage has sites with precomputed layouts and fake wrapper
// addresses.  The wrappers are not executed.
func preparedImage(text []byte, wrapper uintptr, offsets ...int) *Image {
	img := newImage(text, offsets...)
	for _, s := range img.Sites {
		s.JumpPatchAddr = s.SyscallAddr
		s.ReturnAddr = s.SyscallAddr + encoder.SyscallSize
		s.WrapperAddr = wrapper
	}
	img.prepared = true
	return img
}

// branchTarget decodes an I-form branch.
func branchTarget(insn uint32, from uintptr) (to uintptr, ok bool) {
	if insn>>26 != 18 || insn&1 != 0 {
		return 0, false
	}

	li := int64(int32(insn&0x03fffffc<<6) >> 6)
	if insn&2 != 0 {
		return uintptr(li), true
	}
	return uintptr(int64(from) + li), true
}

func insnAt(text []byte, offset int) uint32 {
	return encoder.Insn(text[offset:])
}

func expectPanic(t *testing.T, f func()) {
	t.Helper()

	defer func() {
		if recover() == nil {
			t.Error("no panic")
		}
	}()
	f()
}
