// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(ppc64 || ppc64le)

package intercept

// flushCache is a no-op: the patched code is never executed on this host.
func flushCache(addr, size uintptr) {}
