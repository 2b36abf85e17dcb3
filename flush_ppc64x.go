// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build ppc64 || ppc64le

package intercept

const cacheLineSize = 32 // Smallest among supported cores.

// flushCache makes stores to [addr, addr+size) visible to instruction fetch.
func flushCache(addr, size uintptr) {
	start := addr &^ (cacheLineSize - 1)
	flushCacheLines(start, addr+size)
}

func flushCacheLines(start, end uintptr)
