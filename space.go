// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"gate.computer/intercept/buffer"
)

// Space is the memory region where wrappers are generated.  It is never
// unmapped: patched code branches into it.
type Space struct {
	buf    buffer.Static
	mem    []byte
	addr   uintptr
	sealed bool
}

// NewSpace maps a writable region of at least size bytes.
func NewSpace(size int) (*Space, error) {
	size = int(alignUp(uintptr(size), pageSize))
	if size == 0 {
		size = int(pageSize)
	}

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, xerrors.Errorf("wrapper space mapping: %w", err)
	}

	return SpaceOf(mem[:0]), nil
}

// SpaceOf memory which is writable and mapped at &mem[0].  The slice's
// length is taken as already used.
func SpaceOf(mem []byte) *Space {
	used := len(mem)
	mem = mem[:cap(mem)]

	return &Space{
		buf:  buffer.MakeStatic(mem[:used]),
		mem:  mem,
		addr: uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
	}
}

// Addr of the region.
func (s *Space) Addr() uintptr { return s.addr }

// Len of the generated code.
func (s *Space) Len() int { return s.buf.Len() }

// Cap of the region.
func (s *Space) Cap() int { return len(s.mem) }

// Bytes of the generated code.
func (s *Space) Bytes() []byte { return s.buf.Bytes() }

// End of the region.
func (s *Space) End() uintptr { return s.addr + uintptr(len(s.mem)) }

// Seal makes the region read-only and executable.  Sealing twice is a no-op.
func (s *Space) Seal() error {
	if s.sealed {
		return nil
	}

	if err := mprotect(s.addr, uintptr(len(s.mem)), protRX); err != nil {
		return xerrors.Errorf("wrapper space protection: %w", err)
	}
	flushCache(s.addr, uintptr(s.buf.Len()))

	s.sealed = true
	return nil
}

func alignUp(x, alignment uintptr) uintptr {
	return (x + alignment - 1) &^ (alignment - 1)
}
