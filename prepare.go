// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package intercept

import (
	"unsafe"

	"github.com/sirupsen/logrus"

	"gate.computer/intercept/errors"
	"gate.computer/intercept/internal/pan"
	"gate.computer/intercept/wrapper"
)

// Prepare computes the patch layout of every site and generates their
// wrappers into space.  The image must not have been prepared before.
//
// The returned error, if any, is a fatal condition.
func (p *Patcher) Prepare(img *Image, space *Space) (err error) {
	defer func() { err = pan.Error(recover()) }()

	p.prepare(img, space)
	return
}

func (p *Patcher) prepare(img *Image, space *Space) {
	if img.prepared {
		panic("intercept: image has already been prepared")
	}
	if space.sealed {
		panic("intercept: wrapper space has been sealed")
	}
	img.prepared = true

	var (
		log          = p.log.WithField("path", img.Path)
		tmpl         = p.config.template()
		syscallSize  = p.config.syscallSize()
		minPatchSize = p.config.minPatchSize()
	)

	for _, s := range img.Sites {
		log.Debugf("patching %s:0x%x", img.Path, s.SyscallOffset)

		// The system call instruction itself can be overwritten in any case.
		length := max(s.Overwritable, syscallSize)

		if length < minPatchSize {
			log.WithFields(logrus.Fields{
				"offset":       s.SyscallOffset,
				"overwritable": length,
			}).Errorf("unintercepted syscall at: %s 0x%x", img.Path, s.SyscallOffset)

			pan.Fatal(errors.InsufficientSpace, img.Path, s.SyscallOffset, s.SyscallAddr, "%d bytes available, %d needed", length, minPatchSize)
		}

		s.JumpPatchAddr = s.SyscallAddr
		s.ReturnAddr = s.SyscallAddr + uintptr(syscallSize)

		if img.Marker != nil {
			img.Marker.MarkJump(s.ReturnAddr)
		}

		if space.buf.Avail() < tmpl.MaxSize() {
			pan.Fatal(errors.WrapperSpaceExhausted, img.Path, s.SyscallOffset, s.SyscallAddr, "%d of %d bytes used", space.buf.Len(), space.Cap())
		}

		s.WrapperAddr = space.addr + uintptr(space.buf.Len())

		_, long := tmpl.Instantiate(&space.buf, space.addr, wrapper.Params{
			Context:    p.config.Context,
			Site:       uintptr(unsafe.Pointer(s)),
			Dispatcher: p.config.Dispatcher,
			Return:     s.ReturnAddr,
		})
		if long {
			log.Warnf("long return branch from wrapper %#x to %#x", s.WrapperAddr, s.ReturnAddr)
		}
	}
}
