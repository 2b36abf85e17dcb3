// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"gate.computer/intercept/dump"
	"gate.computer/intercept/wrapper"
)

type templateCmd struct{}

func (*templateCmd) Name() string           { return "template" }
func (*templateCmd) Synopsis() string       { return "disassemble the default wrapper template" }
func (*templateCmd) Usage() string          { return "template\n" }
func (*templateCmd) SetFlags(*flag.FlagSet) {}

func (*templateCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	t := wrapper.Default()
	contextOffset, siteOffset, dispatcherOffset := t.Offsets()

	labels := map[uintptr]string{
		0:                         "start",
		uintptr(contextOffset):    "context",
		uintptr(siteOffset):       "site",
		uintptr(dispatcherOffset): "dispatcher",
		uintptr(t.Size()):         "return",
	}

	fmt.Printf("%d bytes, %d with long return branch\n", t.Size(), t.MaxSize())

	if err := dump.Text(os.Stdout, t.Text(), 0, labels); err != nil {
		configOf(args).logger().WithError(err).Error("disassembly failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
