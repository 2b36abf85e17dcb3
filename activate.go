// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"github.com/sirupsen/logrus"

	"gate.computer/intercept/encoder"
	"gate.computer/intercept/errors"
	"gate.computer/intercept/internal/pan"
)

// Activate overwrites the system call instructions of a prepared image.  The
// text segment is made writable for the duration.  There is no way back:
// the image must not be activated again.
//
// The returned error, if any, is a fatal condition.
func (p *Patcher) Activate(img *Image) (err error) {
	defer func() { err = pan.Error(recover()) }()

	p.activate(img)
	return
}

func (p *Patcher) activate(img *Image) {
	if !img.prepared {
		panic("intercept: image has not been prepared")
	}
	if img.activated {
		panic("intercept: image has already been activated")
	}
	if img.UseTrampolines && img.Trampolines == nil {
		panic("intercept: image uses trampolines but has no table")
	}
	img.activated = true

	if len(img.Sites) == 0 {
		return
	}

	// Wrappers embed site addresses.
	retain(img)

	var (
		log   = p.log.WithField("path", img.Path)
		first = roundDownPage(img.TextStart)
		size  = img.TextEnd - first
	)

	if err := mprotect(first, size, protRWX); err != nil {
		pan.Panic(errors.Wrap(errors.Protection, img.Path, err, "mprotect PROT_READ | PROT_WRITE | PROT_EXEC"))
	}
	p.observe(img, Writable)

	for _, s := range img.Sites {
		p.patchSite(log, img, s)
	}
	p.observe(img, Patched)

	if err := mprotect(first, size, protRX); err != nil {
		pan.Panic(errors.Wrap(errors.Protection, img.Path, err, "mprotect PROT_READ | PROT_EXEC"))
	}

	flushCache(img.TextStart, img.TextEnd-img.TextStart)
	if t := img.Trampolines; t != nil {
		flushCache(t.Addr(), uintptr(t.Used()))
	}
	p.observe(img, ReadOnly)
}

func (p *Patcher) patchSite(log logrus.FieldLogger, img *Image, s *Site) {
	if s.WrapperAddr == 0 {
		panic("intercept: site has no wrapper")
	}

	jumpEnd := s.JumpPatchAddr + encoder.ShortBranchSize

	if s.JumpPatchAddr < img.TextStart || jumpEnd > img.TextEnd || s.ReturnAddr > img.TextEnd {
		pan.Fatal(errors.OutOfBounds, img.Path, s.SyscallOffset, s.JumpPatchAddr, "jump patch address %#x outside text [%#x, %#x)", s.JumpPatchAddr, img.TextStart, img.TextEnd)
	}
	if s.JumpPatchAddr%encoder.InsnSize != 0 {
		pan.Fatal(errors.OutOfBounds, img.Path, s.SyscallOffset, s.JumpPatchAddr, "jump patch address %#x is misaligned", s.JumpPatchAddr)
	}

	var jump [encoder.ShortBranchSize]byte

	switch {
	case img.UseTrampolines:
		// The table is within reach of the text segment, the wrapper
		// space needn't be.
		entry, err := img.Trampolines.Reserve(s.WrapperAddr)
		if err != nil {
			f := err.(*errors.Fatal)
			f.Path = img.Path
			f.Offset = s.SyscallOffset
			pan.Panic(f)
		}
		if !encoder.FitsShortBranch(s.JumpPatchAddr, entry) {
			pan.Fatal(errors.Unreachable, img.Path, s.SyscallOffset, s.JumpPatchAddr, "trampoline %#x", entry)
		}
		encoder.PutShortBranch(jump[:], s.JumpPatchAddr, entry)

	case encoder.FitsShortBranch(s.JumpPatchAddr, s.WrapperAddr):
		encoder.PutShortBranch(jump[:], s.JumpPatchAddr, s.WrapperAddr)

	case encoder.FitsAbsoluteBranch(s.WrapperAddr):
		log.Debugf("without trampoline table %#x - %#x", s.JumpPatchAddr, s.WrapperAddr)
		encoder.PutAbsoluteBranch(jump[:], s.WrapperAddr)

	default:
		pan.Fatal(errors.Unreachable, img.Path, s.SyscallOffset, s.JumpPatchAddr, "wrapper %#x without trampoline table", s.WrapperAddr)
	}

	// Jump first, then the trap fill: a thread which is about to execute the
	// site sees either the original instruction or the jump.
	storeInsn(s.JumpPatchAddr, jump[:])

	if s.ReturnAddr > jumpEnd {
		encoder.PutTrap(memory(jumpEnd, int(s.ReturnAddr-jumpEnd)))
	}
}

func (p *Patcher) observe(img *Image, state State) {
	if p.config.Observe != nil {
		p.config.Observe(img, state)
	}
}
