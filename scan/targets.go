// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan

import (
	"sort"
)

// Targets is a set of branch target addresses.  It implements
// intercept.Marker.  The zero value is an empty set.
type Targets struct {
	bias  uintptr // Added to recorded addresses.
	addrs map[uintptr]struct{}
}

func (t *Targets) add(addr uint64) {
	t.MarkJump(uintptr(addr) + t.bias)
}

// MarkJump records a branch target.
func (t *Targets) MarkJump(addr uintptr) {
	if t.addrs == nil {
		t.addrs = make(map[uintptr]struct{})
	}
	t.addrs[addr-t.bias] = struct{}{}
}

// IsTarget reports if addr has been recorded.
func (t *Targets) IsTarget(addr uintptr) bool {
	_, found := t.addrs[addr-t.bias]
	return found
}

// Len is the number of distinct targets.
func (t *Targets) Len() int {
	return len(t.addrs)
}

// Sorted addresses.
func (t *Targets) Sorted() []uintptr {
	addrs := make([]uintptr, 0, len(t.addrs))
	for addr := range t.addrs {
		addrs = append(addrs, addr+t.bias)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Relocated view of the same set, for text loaded at a different address.
// Addresses are translated by adding bias.
func (t *Targets) Relocated(bias uintptr) *Targets {
	if t.addrs == nil {
		t.addrs = make(map[uintptr]struct{})
	}
	return &Targets{
		bias:  t.bias + bias,
		addrs: t.addrs,
	}
}
