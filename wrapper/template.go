// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wrapper instantiates per-site wrapper routines from a code
// template.
//
// A template is a position-independent routine containing three 64-bit
// immediate load sequences (see encoder.PutLoadImmediate): the context value
// (TOC pointer of the intercepting runtime), the address of the site
// descriptor, and the address of the dispatcher.  An instantiated wrapper is
// the template with those constants filled in, followed by a branch back to
// the site's return address.
package wrapper

import (
	"golang.org/x/xerrors"

	"gate.computer/intercept/encoder"
)

// Labels are addresses within a compiled template.  Start and End delimit the
// template; the others point to the first instruction of a load sequence.
type Labels struct {
	Start      uintptr
	End        uintptr
	Context    uintptr
	Site       uintptr
	Dispatcher uintptr
}

// Template is immutable.
type Template struct {
	text             []byte
	contextOffset    int
	siteOffset       int
	dispatcherOffset int
}

// New template from code located at labels.Start.  The patch offsets are
// computed from the label addresses.
func New(text []byte, labels Labels) (*Template, error) {
	if labels.End <= labels.Start {
		return nil, xerrors.Errorf("template end %#x is not after start %#x", labels.End, labels.Start)
	}
	size := labels.End - labels.Start
	if size != uintptr(len(text)) {
		return nil, xerrors.Errorf("template size is %d bytes but labels span %d bytes", len(text), size)
	}

	t := &Template{text: text}

	seqs := []struct {
		name   string
		addr   uintptr
		offset *int
	}{
		{"context", labels.Context, &t.contextOffset},
		{"site", labels.Site, &t.siteOffset},
		{"dispatcher", labels.Dispatcher, &t.dispatcherOffset},
	}

	for i, x := range seqs {
		for _, y := range seqs[:i] {
			if x.addr < y.addr+encoder.LoadImmediateSize && y.addr < x.addr+encoder.LoadImmediateSize {
				return nil, xerrors.Errorf("%s label %#x overlaps %s label %#x", x.name, x.addr, y.name, y.addr)
			}
		}

		if x.addr <= labels.Start || x.addr+encoder.LoadImmediateSize > labels.End {
			return nil, xerrors.Errorf("%s label %#x is outside of template [%#x, %#x)", x.name, x.addr, labels.Start, labels.End)
		}

		offset := int(x.addr - labels.Start)
		if offset%encoder.InsnSize != 0 {
			return nil, xerrors.Errorf("%s label offset %d is misaligned", x.name, offset)
		}
		if !encoder.IsLoadImmediate(text[offset:]) {
			return nil, xerrors.Errorf("no load sequence at %s label offset %d", x.name, offset)
		}

		*x.offset = offset
	}

	return t, nil
}

// Size of the template without the return branch.
func (t *Template) Size() int {
	return len(t.text)
}

// MaxSize of an instantiated wrapper.
func (t *Template) MaxSize() int {
	return len(t.text) + encoder.LongBranchSize
}

// Offsets of the context, site and dispatcher load sequences.
func (t *Template) Offsets() (context, site, dispatcher int) {
	return t.contextOffset, t.siteOffset, t.dispatcherOffset
}

// Text returns a copy of the template code.
func (t *Template) Text() []byte {
	return append([]byte(nil), t.text...)
}
