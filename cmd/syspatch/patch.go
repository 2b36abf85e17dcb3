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
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"gate.computer/intercept"
	"gate.computer/intercept/dump"
	"gate.computer/intercept/encoder"
	"gate.computer/intercept/scan"
	"gate.computer/intercept/trampoline"
)

type patchCmd struct {
	dump bool
}

func (*patchCmd) Name() string     { return "patch" }
func (*patchCmd) Synopsis() string { return "rehearse patching of a library" }

func (*patchCmd) Usage() string {
	return `patch [-dump] library
	Load the text segment of a ppc64le ELF file into anonymous memory and
	patch it.  Nothing is executed.  A fatal condition aborts the process
	like it would abort a real one.
`
}

func (c *patchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dump, "dump", false, "disassemble the patched sites and the wrappers")
}

func (c *patchCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	conf := configOf(args)
	log := conf.logger()

	if err := c.patch(os.Stdout, conf, log, f.Arg(0)); err != nil {
		log.WithError(err).Error("patch rehearsal failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *patchCmd) patch(w io.Writer, conf *config, log *logrus.Logger, path string) error {
	text, err := scan.File(path)
	if err != nil {
		return err
	}

	mem, err := loadText(text.Data)
	if err != nil {
		return err
	}

	space, err := intercept.NewSpace(conf.WrapperSpace)
	if err != nil {
		return err
	}

	pc := conf.patcherConfig(log)
	if pc.Dispatcher == 0 {
		// Placeholder which is within reach.
		pc.Dispatcher = space.Addr()
	}

	img := text.Image(mem)

	if conf.TrampolineEntries > 0 && pc.Routing != intercept.RouteDirect {
		img.Trampolines, err = trampoline.Allocate(img.TextStart, img.TextEnd, conf.TrampolineEntries)
		if err != nil {
			return err
		}
	}

	intercept.NewPatcher(pc).MustPatch(img, space)

	printPatched(w, img)

	if c.dump {
		return dumpPatched(w, img, mem, space)
	}
	return nil
}

// loadText copies text to a read-only executable mapping.
func loadText(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, xerrors.New("empty text segment")
	}

	mem, err := unix.Mmap(-1, 0, len(data), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, xerrors.Errorf("text mapping: %w", err)
	}
	copy(mem, data)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return nil, xerrors.Errorf("text protection: %w", err)
	}
	return mem[:len(data)], nil
}

func printPatched(w io.Writer, img *intercept.Image) {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	defer tw.Flush()

	via := "direct"
	if img.UseTrampolines {
		via = fmt.Sprintf("trampolines at %#x", img.Trampolines.Addr())
	}
	fmt.Fprintf(tw, "%s: %d sites patched, %s\n", img.Path, len(img.Sites), via)

	for _, s := range img.Sites {
		fmt.Fprintf(tw, "\t0x%x\t%#x\t-> %#x\t<- %#x\n", s.SyscallOffset, s.JumpPatchAddr, s.WrapperAddr, s.ReturnAddr)
	}
}

func dumpPatched(w io.Writer, img *intercept.Image, mem []byte, space *intercept.Space) error {
	labels := make(map[uintptr]string)
	for _, s := range img.Sites {
		labels[s.JumpPatchAddr] = fmt.Sprintf("site_%x", s.SyscallOffset)
		labels[s.WrapperAddr] = fmt.Sprintf("wrapper_%x", s.SyscallOffset)
	}

	fmt.Fprintln(w)

	for _, s := range img.Sites {
		offset := int(s.JumpPatchAddr - img.TextStart)
		start := max(offset-encoder.InsnSize, 0)
		end := min(int(s.ReturnAddr-img.TextStart)+encoder.InsnSize, len(mem))

		if err := dump.Text(w, mem[start:end], img.TextStart+uintptr(start), labels); err != nil {
			return err
		}
	}

	if t := img.Trampolines; t != nil && t.Used() > 0 {
		fmt.Fprintln(w)
		if err := dump.Text(w, t.Bytes(), t.Addr(), map[uintptr]string{t.Addr(): "trampolines"}); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	return dump.Text(w, space.Bytes(), space.Addr(), labels)
}
