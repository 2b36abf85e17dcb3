// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trampoline manages a table of long branches located within short
// branch range of a text segment.  The table doesn't grow: branches which
// have been issued to its entries cannot be relocated.
package trampoline

import (
	"gate.computer/intercept/encoder"
	"gate.computer/intercept/errors"
)

// EntrySize is the size of one trampoline.
const EntrySize = encoder.LongBranchSize

// Table of trampolines.  It is owned by a single patching pass at a time.
type Table struct {
	mem  []byte
	addr uintptr
	next int
}

// New table backed by executable memory mapped at addr.
func New(mem []byte, addr uintptr) *Table {
	return &Table{
		mem:  mem,
		addr: addr,
	}
}

// Addr of the table.
func (t *Table) Addr() uintptr { return t.addr }

// Cap is the table size in bytes.
func (t *Table) Cap() int { return len(t.mem) }

// Used is the number of bytes consumed by reserved entries.
func (t *Table) Used() int { return t.next }

// Bytes of the reserved entries.
func (t *Table) Bytes() []byte { return t.mem[:t.next] }

// Len is the number of reserved entries.
func (t *Table) Len() int { return t.next / EntrySize }

// Reserve an entry which branches to target.  The entry's address is
// returned.  Exhaustion is a fatal condition.
func (t *Table) Reserve(target uintptr) (uintptr, error) {
	if t.next+EntrySize > len(t.mem) {
		return 0, errors.Fatalf(errors.TrampolineExhausted, "", -1, t.addr, "%d entries in %d bytes", t.Len(), len(t.mem))
	}

	offset := t.next
	encoder.PutLongBranch(t.mem[offset:], target)
	t.next += EntrySize

	return t.addr + uintptr(offset), nil
}

// Reachable reports if every instruction in [fromStart, fromEnd) can reach
// every instruction in [toStart, toEnd) with a short branch.
func Reachable(fromStart, fromEnd, toStart, toEnd uintptr) bool {
	if fromEnd <= fromStart || toEnd <= toStart {
		return true
	}

	fromLast := fromEnd - encoder.InsnSize
	toLast := toEnd - encoder.InsnSize

	return encoder.FitsShortBranch(fromStart, toStart) &&
		encoder.FitsShortBranch(fromStart, toLast) &&
		encoder.FitsShortBranch(fromLast, toStart) &&
		encoder.FitsShortBranch(fromLast, toLast)
}
