// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"testing"

	"golang.org/x/xerrors"

	"gate.computer/intercept/internal/pan"
)

func TestStatic(t *testing.T) {
	s := NewStatic(make([]byte, 0, 8))

	s.PutBytes([]byte{1, 2, 3})
	if s.Len() != 3 || s.Avail() != 5 || s.Cap() != 8 {
		t.Fatal(s.Len(), s.Avail(), s.Cap())
	}

	b := s.Extend(5)
	if len(b) != 5 || s.Avail() != 0 {
		t.Fatal(len(b), s.Avail())
	}
}

func TestStaticOverflow(t *testing.T) {
	s := NewStatic(make([]byte, 6, 8))

	err := func() (err error) {
		defer func() { err = pan.Error(recover()) }()
		s.Extend(3)
		return
	}()

	if !xerrors.Is(err, ErrStaticSize) {
		t.Error(err)
	}
	if s.Len() != 6 {
		t.Error(s.Len())
	}
}

func TestDynamic(t *testing.T) {
	d := NewDynamic(nil)

	for i := 0; i < 100; i++ {
		d.PutInsn(uint32(i))
	}

	if d.Len() != 400 {
		t.Fatal(d.Len())
	}
	if b := d.Bytes(); b[4*99] != 99 {
		t.Error(b[4*99:])
	}
}
