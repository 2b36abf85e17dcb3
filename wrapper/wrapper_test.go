// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrapper

import (
	"testing"

	"golang.org/x/arch/ppc64/ppc64asm"

	"gate.computer/intercept/buffer"
	"gate.computer/intercept/encoder"
)

func TestDefaultTemplate(t *testing.T) {
	tmpl := Default()

	context, site, dispatcher := tmpl.Offsets()
	if !(0 < context && context < site && site < dispatcher && dispatcher+encoder.LoadImmediateSize <= tmpl.Size()) {
		t.Fatal(context, site, dispatcher, tmpl.Size())
	}

	text := tmpl.Text()
	for i := 0; i < len(text); i += encoder.InsnSize {
		if _, err := ppc64asm.Decode(text[i:i+encoder.InsnSize], encoder.ByteOrder); err != nil {
			t.Errorf("offset %d: %v", i, err)
		}
	}

	// Every save slot must lie below the protected zone of the caller.
	inst, err := ppc64asm.Decode(text[:encoder.InsnSize], encoder.ByteOrder)
	if err != nil {
		t.Fatal(err)
	}
	if inst.Op != ppc64asm.STDU {
		t.Fatal(inst)
	}
	frame := -int(inst.Args[1].(ppc64asm.Offset))
	if frame%16 != 0 || frame < encoder.ProtectedZone+frameTOCSave+8 {
		t.Errorf("frame size %d", frame)
	}
}

func TestNewLabels(t *testing.T) {
	text := Default().Text()
	context, site, dispatcher := Default().Offsets()

	const base = 0x10000000

	good := Labels{
		Start:      base,
		End:        base + uintptr(len(text)),
		Context:    base + uintptr(context),
		Site:       base + uintptr(site),
		Dispatcher: base + uintptr(dispatcher),
	}

	tmpl, err := New(text, good)
	if err != nil {
		t.Fatal(err)
	}
	if c, s, d := tmpl.Offsets(); c != context || s != site || d != dispatcher {
		t.Error(c, s, d)
	}

	for i, mutate := range []func(*Labels){
		func(l *Labels) { l.End = l.Start },
		func(l *Labels) { l.End += 4 },
		func(l *Labels) { l.Context = l.Start },
		func(l *Labels) { l.Site = l.End - 4 },
		func(l *Labels) { l.Dispatcher = l.End },
		func(l *Labels) { l.Site += 2 },
		func(l *Labels) { l.Context = l.Start + 4 },
		func(l *Labels) { l.Site = l.Context },
		func(l *Labels) { l.Dispatcher = l.Site },
	} {
		labels := good
		mutate(&labels)

		if _, err := New(text, labels); err == nil {
			t.Errorf("case %d: no error", i)
		}
	}
}

func instantiate(t *testing.T, bufAddr uintptr, p Params) ([]byte, int, bool) {
	t.Helper()

	mem := make([]byte, 0, 4096)
	buf := buffer.NewStatic(mem[:16]) // some previous output
	n, long := Default().Instantiate(buf, bufAddr, p)
	if buf.Len() != 16+n {
		t.Fatal(buf.Len(), n)
	}
	return buf.Bytes()[16:], n, long
}

func TestInstantiateShortReturn(t *testing.T) {
	const bufAddr = 0x7fff10000000

	p := Params{
		Context:    0x7fff20008000,
		Site:       0xc000123450,
		Dispatcher: 0x7fff20001230,
		Return:     0x7fff10100004,
	}

	b, n, long := instantiate(t, bufAddr, p)
	if long || n != Default().Size()+encoder.ShortBranchSize {
		t.Fatal(n, long)
	}

	context, site, dispatcher := Default().Offsets()
	for _, x := range []struct {
		offset int
		value  uint64
	}{
		{context, p.Context},
		{site, uint64(p.Site)},
		{dispatcher, uint64(p.Dispatcher)},
	} {
		if v, ok := encoder.LoadedImmediate(b[x.offset:]); !ok || v != x.value {
			t.Errorf("offset %d: %#x", x.offset, v)
		}
	}

	pc := uintptr(bufAddr + 16 + Default().Size())
	inst, err := ppc64asm.Decode(b[Default().Size():n], encoder.ByteOrder)
	if err != nil {
		t.Fatal(err)
	}
	if inst.Op != ppc64asm.B {
		t.Fatal(inst)
	}
	if target := pc + uintptr(int64(inst.Args[0].(ppc64asm.PCRel))); target != p.Return {
		t.Errorf("return to %#x", target)
	}
}

func TestInstantiateLongReturn(t *testing.T) {
	p := Params{
		Context:    1,
		Site:       2,
		Dispatcher: 3,
		Return:     0x7fff10000004,
	}

	b, n, long := instantiate(t, 0x100000000, p)
	if !long || n != Default().MaxSize() {
		t.Fatal(n, long)
	}

	// The load sequence of the long branch starts after the spill.
	if v, ok := encoder.LoadedImmediate(b[Default().Size()+encoder.InsnSize:]); !ok || v != uint64(p.Return) {
		t.Errorf("%#x", v)
	}
}

func TestInstantiateDoesNotModifyTemplate(t *testing.T) {
	before := Default().Text()

	instantiate(t, 0x1000, Params{Context: 0xffff, Site: 0xffff, Dispatcher: 0xffff, Return: 0x2000})

	after := Default().Text()
	for _, offset := range []int{Default().contextOffset, Default().siteOffset} {
		v, _ := encoder.LoadedImmediate(after[offset:])
		if v != 0 {
			t.Errorf("offset %d: %#x", offset, v)
		}
	}
	if string(before) != string(after) {
		t.Error("template changed")
	}
}
