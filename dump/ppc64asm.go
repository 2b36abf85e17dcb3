// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !cgo

package dump

import (
	"fmt"
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"

	"gate.computer/intercept/encoder"
)

func disassemble(code []byte, addr uint64) (insns []insn, err error) {
	for offset := 0; offset < len(code); {
		pc := addr + uint64(offset)

		inst, decodeErr := ppc64asm.Decode(code[offset:], encoder.ByteOrder)
		if decodeErr != nil || inst.Len == 0 {
			n := min(len(code)-offset, 4)
			insns = append(insns, insn{
				addr:     pc,
				mnemonic: ".long",
				operands: fmt.Sprintf("%#x", code[offset:offset+n]),
			})
			offset += n
			continue
		}

		text := ppc64asm.GNUSyntax(inst, pc)
		mnemonic, operands, _ := strings.Cut(text, " ")

		insns = append(insns, insn{
			addr:     pc,
			mnemonic: mnemonic,
			operands: operands,
			trap:     encoder.IsTrap(code[offset:]),
		})
		offset += inst.Len
	}
	return
}
