// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	protRX  = unix.PROT_READ | unix.PROT_EXEC
	protRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

var pageSize = uintptr(unix.Getpagesize())

func roundDownPage(addr uintptr) uintptr {
	return addr &^ (pageSize - 1)
}

// memory at an arbitrary address.
func memory(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

// mprotect pages spanning [addr, addr+size).
func mprotect(addr, size uintptr, prot int) error {
	first := roundDownPage(addr)
	return unix.Mprotect(memory(first, int(addr+size-first)), prot)
}

// storeInsn writes an aligned instruction word in one store, so that a
// concurrent instruction fetch sees either the old or the new instruction.
func storeInsn(addr uintptr, b []byte) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(addr)), binary.NativeEndian.Uint32(b))
}
