// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors defines the fatal conditions of the patching engine.
//
// A fatal condition means that the process cannot continue safely: some
// system call sites would stay unintercepted, or the text segment would be
// left inconsistent.  Such errors implement the following interface:
//
//	interface {
//	    FatalCondition() bool
//	}
//
// They must not be retried; see intercept.Abort.
package errors

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind of fatal condition.
type Kind int

const (
	InsufficientSpace Kind = iota + 1
	OutOfBounds
	TrampolineExhausted
	Protection
	Unreachable
	WrapperSpaceExhausted
)

func (k Kind) String() string {
	switch k {
	case InsufficientSpace:
		return "insufficient patch space"

	case OutOfBounds:
		return "patch site out of bounds"

	case TrampolineExhausted:
		return "trampoline space not enough"

	case Protection:
		return "memory protection change failed"

	case Unreachable:
		return "branch target unreachable"

	case WrapperSpaceExhausted:
		return "wrapper space not enough"

	default:
		return "<invalid>"
	}
}

// Fatal describes a violated invariant.  Path is empty and Offset is
// negative when not known.
type Fatal struct {
	Kind   Kind
	Path   string
	Offset int64
	Addr   uintptr
	Text   string
	Err    error
}

// Fatalf formats a fatal condition.
func Fatalf(kind Kind, path string, offset int64, addr uintptr, format string, args ...any) *Fatal {
	return &Fatal{
		Kind:   kind,
		Path:   path,
		Offset: offset,
		Addr:   addr,
		Text:   fmt.Sprintf(format, args...),
	}
}

// Wrap a cause as a fatal condition.
func Wrap(kind Kind, path string, cause error, text string) *Fatal {
	return &Fatal{
		Kind:   kind,
		Path:   path,
		Offset: -1,
		Text:   text,
		Err:    cause,
	}
}

func (e *Fatal) Error() string {
	s := e.Kind.String()
	if e.Text != "" {
		s += ": " + e.Text
	}
	if e.Path != "" {
		if e.Offset >= 0 {
			s += fmt.Sprintf(" (%s 0x%x)", e.Path, e.Offset)
		} else {
			s += fmt.Sprintf(" (%s)", e.Path)
		}
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Fatal) FatalCondition() bool { return true }
func (e *Fatal) Unwrap() error        { return e.Err }

type fatalCondition interface {
	error
	FatalCondition() bool
}

// IsFatal reports if err is or wraps a fatal condition.
func IsFatal(err error) bool {
	var f fatalCondition
	return xerrors.As(err, &f) && f.FatalCondition()
}

// KindOf returns the kind of a fatal condition, or zero.
func KindOf(err error) Kind {
	var f *Fatal
	if xerrors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// As is xerrors.As.
func As(err error, target any) bool {
	return xerrors.As(err, target)
}
