// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pan propagates fatal conditions through the patching passes as
// panics, to be converted back to errors at the API boundary.
package pan

import (
	"import.name/pan"

	"gate.computer/intercept/errors"
)

var (
	Check = pan.Check
	Panic = pan.Panic
)

// Error returns the error carried by x, which should be the value returned
// by recover.  Unrelated panics are propagated.
func Error(x any) error {
	return pan.Error(x)
}

// Fatal panics with a fatal condition.
func Fatal(kind errors.Kind, path string, offset int64, addr uintptr, format string, args ...any) {
	pan.Panic(errors.Fatalf(kind, path, offset, addr, format, args...))
}
