// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"gate.computer/intercept/scan"
)

type scanCmd struct {
	targets bool
}

func (*scanCmd) Name() string     { return "scan" }
func (*scanCmd) Synopsis() string { return "list system call sites" }

func (*scanCmd) Usage() string {
	return `scan [-targets] library...
	List the system call instructions of ppc64le ELF files.
`
}

func (c *scanCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.targets, "targets", false, "also list branch targets")
}

func (c *scanCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	log := configOf(args).logger()

	for _, path := range f.Args() {
		text, err := scan.File(path)
		if err != nil {
			log.WithError(err).Error("scan failed")
			return subcommands.ExitFailure
		}

		printSites(os.Stdout, text)

		if c.targets {
			for _, addr := range text.Targets.Sorted() {
				fmt.Printf("target\t%#x\n", addr)
			}
		}
	}

	return subcommands.ExitSuccess
}

func printSites(w io.Writer, text *scan.Text) {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s: %d sites in %d bytes at %#x\n", text.Path, len(text.Found), len(text.Data), text.Addr)

	for _, f := range text.Found {
		note := ""
		if f.Target {
			note = "branch target"
		}
		fmt.Fprintf(tw, "\t0x%x\t%#x\t%d\t%s\n", f.Offset, f.Addr, f.Overwritable, note)
	}
}
