// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrapper

import (
	"gate.computer/intercept/encoder"
)

// Buffer is an output cursor.  Extend panics if the buffer cannot grow.
type Buffer interface {
	Len() int
	Extend(n int) []byte
}

// Params of one wrapper instance.
type Params struct {
	Context    uint64
	Site       uintptr // descriptor address
	Dispatcher uintptr
	Return     uintptr
}

// Instantiate appends a wrapper to dst.  bufAddr is the address at which the
// start of dst is mapped.  The wrapper's address is bufAddr+dst.Len() before
// the call.  Number of bytes written is returned, and reports if the return
// branch needed the long form.
func (t *Template) Instantiate(dst Buffer, bufAddr uintptr, p Params) (n int, long bool) {
	start := dst.Len()

	b := dst.Extend(len(t.text))
	copy(b, t.text)

	encoder.PatchImmediate(b[t.contextOffset:], p.Context)
	encoder.PatchImmediate(b[t.siteOffset:], uint64(p.Site))
	encoder.PatchImmediate(b[t.dispatcherOffset:], uint64(p.Dispatcher))

	from := bufAddr + uintptr(dst.Len())

	if encoder.FitsShortBranch(from, p.Return) {
		encoder.PutShortBranch(dst.Extend(encoder.ShortBranchSize), from, p.Return)
	} else {
		encoder.PutLongBranch(dst.Extend(encoder.LongBranchSize), p.Return)
		long = true
	}

	n = dst.Len() - start
	return
}
