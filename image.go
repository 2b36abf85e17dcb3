// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"gate.computer/intercept/trampoline"
)

// Site of one system call instruction.  Sites must not be copied after
// Prepare: wrapper code refers to them by address.
type Site struct {
	SyscallAddr   uintptr
	SyscallOffset int64 // File offset, for diagnostics.
	Overwritable  int   // Bytes at SyscallAddr which may be overwritten.

	JumpPatchAddr uintptr
	ReturnAddr    uintptr
	WrapperAddr   uintptr
}

// Marker records addresses which are branch targets.
type Marker interface {
	MarkJump(addr uintptr)
}

// Image of a mapped library.
type Image struct {
	Path      string
	Base      uintptr
	TextStart uintptr
	TextEnd   uintptr
	Sites     []*Site // In discovery order.

	// UseTrampolines routes every site through the trampoline table.  It is
	// decided by Patcher.Patch unless Prepare and Activate are invoked
	// directly.
	UseTrampolines bool
	Trampolines    *trampoline.Table

	Marker Marker // Optional.

	prepared  bool
	activated bool
}
