// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package intercept hotpatches the system call sites of a mapped shared
// library, so that every system call made by it goes through a dispatcher.
//
// Jumping from the patched library:
//
//	library text:      b trampoline           (written by Activate)
//	trampoline table:  long branch to wrapper (only if wrappers are far)
//	wrapper space:     call dispatcher; branch to return address
//
// A scanner describes the library as an Image listing its Sites.  Prepare
// instantiates one wrapper per site into a Space, and Activate rewrites the
// system call instructions.  Both passes run exactly once per Image.  Other
// threads may already be executing the library during Activate: every jump
// is written with a single aligned store.
//
// # Errors
//
// Patching either succeeds for every site, or fails with a fatal condition
// (see the errors subpackage).  A partially patched text segment cannot be
// trusted, so the only sensible reaction is Abort.
package intercept
