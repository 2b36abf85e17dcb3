// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build cgo

package dump

import (
	"github.com/bnagy/gapstone"
)

func disassemble(code []byte, addr uint64) (insns []insn, err error) {
	engine, err := gapstone.New(gapstone.CS_ARCH_PPC, gapstone.CS_MODE_64|gapstone.CS_MODE_LITTLE_ENDIAN)
	if err != nil {
		return
	}
	defer engine.Close()

	list, err := engine.Disasm(code, addr, 0)
	if err != nil {
		return
	}

	for _, x := range list {
		insns = append(insns, insn{
			addr:     uint64(x.Address),
			mnemonic: x.Mnemonic,
			operands: x.OpStr,
			trap:     x.Mnemonic == "trap",
		})
	}
	return
}
