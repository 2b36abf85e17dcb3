// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trampoline

import (
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// Candidate addresses are probed at this granularity, but at least at the
// table size.
const probeStep = 64 * 1024

// Allocate a table for the given number of entries, within short branch range
// of the text segment.  The memory is mapped readable, writable and
// executable for the lifetime of the process.
func Allocate(textStart, textEnd uintptr, entries int) (*Table, error) {
	pageSize := uintptr(unix.Getpagesize())

	size := alignUp(uintptr(entries*EntrySize), pageSize)
	if size == 0 {
		size = pageSize
	}

	step := max(size, probeStep)
	fits := func(addr uintptr) bool {
		return addr != 0 && Reachable(textStart, textEnd, addr, addr+uintptr(entries*EntrySize))
	}

	// Below the text segment first; shared libraries tend to be mapped
	// downwards.
	for addr := alignDown(textStart, pageSize) - size; addr < textStart && fits(addr); addr -= step {
		if mem := mapAt(addr, size); mem != nil {
			return New(mem[:entries*EntrySize], addr), nil
		}
	}

	for addr := alignUp(textEnd, pageSize); addr >= textEnd && fits(addr); addr += step {
		if mem := mapAt(addr, size); mem != nil {
			return New(mem[:entries*EntrySize], addr), nil
		}
	}

	return nil, xerrors.Errorf("no free address range for %d trampolines near text [%#x, %#x)", entries, textStart, textEnd)
}

func mapAt(addr, size uintptr) []byte {
	const (
		prot  = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
		flags = unix.MAP_PRIVATE | unix.MAP_ANONYMOUS | unix.MAP_FIXED_NOREPLACE
	)

	p, err := unix.MmapPtr(-1, 0, unsafe.Pointer(addr), size, prot, flags)
	if err != nil {
		return nil
	}

	// Kernels older than 4.17 treat the address as a hint.
	if uintptr(p) != addr {
		unix.MunmapPtr(p, size)
		return nil
	}

	return unsafe.Slice((*byte)(p), size)
}

func alignDown(x, alignment uintptr) uintptr {
	return x &^ (alignment - 1)
}

func alignUp(x, alignment uintptr) uintptr {
	return (x + alignment - 1) &^ (alignment - 1)
}
