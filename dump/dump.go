// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dump prints ppc64le machine code.
package dump

import (
	"fmt"
	"io"
)

type insn struct {
	addr     uint64
	mnemonic string
	operands string
	trap     bool
}

// Text disassembles code located at addr.  Labels are printed before the
// instructions at their addresses.  Consecutive trap instructions are
// printed once.
func Text(w io.Writer, code []byte, addr uintptr, labels map[uintptr]string) error {
	insns, err := disassemble(code, uint64(addr))
	if err != nil {
		return err
	}

	skip := false

	for _, in := range insns {
		if name, found := labels[uintptr(in.addr)]; found {
			fmt.Fprintf(w, "%s:\n", name)
			skip = false
		}

		if in.trap {
			if skip {
				continue
			}
			skip = true
		} else {
			skip = false
		}

		if _, err := fmt.Fprintf(w, "\t%#x\t%s\t%s\n", in.addr, in.mnemonic, in.operands); err != nil {
			return err
		}
	}

	return nil
}
