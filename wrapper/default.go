// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrapper

import (
	"gate.computer/intercept/buffer"
	"gate.computer/intercept/encoder"
	"gate.computer/intercept/internal/isa/ppc64/in"
)

// Stack frame of the default wrapper.  It is allocated below the protected
// zone of the interrupted function.
const (
	frameSize     = encoder.ProtectedZone + 128
	frameSyscall  = 96 // r0 on entry; above the parameter save area
	frameLinkSave = 104
	frameTOCSave  = 112
)

// Registers seen by the dispatcher.
const (
	ContextReg    = in.R2
	SiteReg       = in.R11
	DispatcherReg = in.R12
)

// SyscallNumberOffset is the location of the saved system call number,
// relative to the stack pointer seen by the dispatcher.
const SyscallNumberOffset = frameSyscall

var defaultTemplate = assembleDefault()

// Default template for ppc64le.
//
// The dispatcher is called with r2 = context, r11 = site descriptor and
// r12 = its own address (ELFv2 global entry convention).  System call
// arguments are still in r3-r8, and the system call number has been saved
// at SyscallNumberOffset(r1).  The dispatcher leaves the result in r3 and
// cr0 like the sc instruction would.
func Default() *Template {
	return defaultTemplate
}

func assembleDefault() *Template {
	var (
		a      = buffer.NewDynamic(nil)
		labels Labels
	)

	a.PutInsn(in.STDU.RtRaDS(in.R1, in.R1, -frameSize))
	a.PutInsn(in.STD.RtRaDS(in.R0, in.R1, frameSyscall))
	a.PutInsn(in.MFSPR.RtSPR(in.R0, in.LR))
	a.PutInsn(in.STD.RtRaDS(in.R0, in.R1, frameLinkSave))
	a.PutInsn(in.STD.RtRaDS(in.R2, in.R1, frameTOCSave))

	labels.Context = uintptr(a.Len())
	encoder.PutLoadImmediate(a.Extend(encoder.LoadImmediateSize), ContextReg, 0)

	labels.Site = uintptr(a.Len())
	encoder.PutLoadImmediate(a.Extend(encoder.LoadImmediateSize), SiteReg, 0)

	labels.Dispatcher = uintptr(a.Len())
	encoder.PutLoadImmediate(a.Extend(encoder.LoadImmediateSize), DispatcherReg, 0)

	a.PutInsn(in.MTSPR.RtSPR(DispatcherReg, in.CTR))
	a.PutInsn(in.BCTRL.Word())
	a.PutInsn(in.LD.RtRaDS(in.R0, in.R1, frameLinkSave))
	a.PutInsn(in.MTSPR.RtSPR(in.R0, in.LR))
	a.PutInsn(in.LD.RtRaDS(in.R2, in.R1, frameTOCSave))
	a.PutInsn(in.ADDI.RtRaI16(in.R1, in.R1, frameSize))

	labels.End = uintptr(a.Len())

	t, err := New(a.Bytes(), labels)
	if err != nil {
		panic(err)
	}
	return t
}
